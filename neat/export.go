package neat

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GenomeDoc is the YAML form of a genome, for inspecting or storing a
// winner outside of checkpoints.
type GenomeDoc struct {
	Key         int             `yaml:"key"`
	Fitness     float64         `yaml:"fitness"`
	Inputs      []int           `yaml:"inputs"`
	Outputs     []int           `yaml:"outputs"`
	Nodes       []NodeDoc       `yaml:"nodes"`
	Connections []ConnectionDoc `yaml:"connections"`
}

// NodeDoc is one node gene.
type NodeDoc struct {
	Key         int     `yaml:"key"`
	Bias        float64 `yaml:"bias"`
	Response    float64 `yaml:"response"`
	Activation  string  `yaml:"activation"`
	Aggregation string  `yaml:"aggregation"`
}

// ConnectionDoc is one connection gene.
type ConnectionDoc struct {
	In      int     `yaml:"in"`
	Out     int     `yaml:"out"`
	Weight  float64 `yaml:"weight"`
	Enabled bool    `yaml:"enabled"`
}

// Doc returns g as a GenomeDoc with genes in key order.
func (g *Genome) Doc() GenomeDoc {
	d := GenomeDoc{
		Key:     g.Key,
		Fitness: g.Fitness,
		Inputs:  g.Config.InputKeys,
		Outputs: g.Config.OutputKeys,
	}
	for _, k := range g.sortedNodeKeys() {
		n := g.Nodes[k]
		d.Nodes = append(d.Nodes, NodeDoc{k, n.Bias, n.Response, n.Activation, n.Aggregation})
	}
	for _, k := range g.sortedConnectionKeys() {
		c := g.Connections[k]
		d.Connections = append(d.Connections, ConnectionDoc{k.InNodeID, k.OutNodeID, c.Weight, c.Enabled})
	}
	return d
}

// MarshalYAML implements yaml.Marshaler.
func (g *Genome) MarshalYAML() (interface{}, error) {
	return g.Doc(), nil
}

// Genome rebuilds a genome bound to config from the document.
func (d GenomeDoc) Genome(config *GenomeConfig) (*Genome, error) {
	g := NewGenome(d.Key, config)
	g.Fitness = d.Fitness
	for _, n := range d.Nodes {
		if n.Key < 0 {
			return nil, fmt.Errorf("node key %d: input nodes are implicit", n.Key)
		}
		g.Nodes[n.Key] = &NodeGene{Key: n.Key, Bias: n.Bias, Response: n.Response, Activation: n.Activation, Aggregation: n.Aggregation}
		if n.Key >= config.NodeKeyIndex {
			config.NodeKeyIndex = n.Key + 1
		}
	}
	for _, c := range d.Connections {
		k := ConnectionKey{c.In, c.Out}
		if _, ok := g.Nodes[c.Out]; !ok {
			return nil, fmt.Errorf("connection %d->%d ends in unknown node", c.In, c.Out)
		}
		g.Connections[k] = &ConnectionGene{Key: k, Weight: c.Weight, Enabled: c.Enabled}
	}
	return g, nil
}

// WriteGenomeYAML writes g to path.
func WriteGenomeYAML(g *Genome, path string) error {
	data, err := yaml.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshaling genome %d: %w", g.Key, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ReadGenomeYAML loads a genome written by WriteGenomeYAML.
func ReadGenomeYAML(path string, config *GenomeConfig) (*Genome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var d GenomeDoc
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return d.Genome(config)
}
