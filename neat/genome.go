package neat

import (
	"fmt"
	"sort"
	"strings"
)

// Genome is one individual: a set of node genes and connection genes.
// Input nodes are implicit (negative keys in Config.InputKeys).
type Genome struct {
	Key         int
	Nodes       map[int]*NodeGene
	Connections map[ConnectionKey]*ConnectionGene
	Fitness     float64
	Config      *GenomeConfig
}

// NewGenome creates an empty genome.
func NewGenome(key int, config *GenomeConfig) *Genome {
	return &Genome{
		Key:         key,
		Nodes:       make(map[int]*NodeGene),
		Connections: make(map[ConnectionKey]*ConnectionGene),
		Config:      config,
	}
}

// ConfigureNew creates output and hidden nodes and the initial connections.
func (g *Genome) ConfigureNew() {
	for _, k := range g.Config.OutputKeys {
		g.Nodes[k] = NewNodeGene(k, g.Config)
	}
	for i := 0; i < g.Config.NumHidden; i++ {
		k := g.Config.GetNewNodeKey()
		if _, dup := g.Nodes[k]; dup {
			panic(fmt.Sprintf("neat: duplicate node key %d", k))
		}
		g.Nodes[k] = NewNodeGene(k, g.Config)
	}

	switch g.Config.ConnectionType {
	case "unconnected":
	case "fs_neat_nohidden", "fs_neat":
		g.connectFSNeat(false)
	case "fs_neat_hidden":
		g.connectFSNeat(true)
	case "full_nodirect", "full":
		g.connectFraction(g.fullConnections(false), 1)
	case "full_direct":
		g.connectFraction(g.fullConnections(true), 1)
	case "partial_nodirect", "partial":
		g.connectFraction(g.fullConnections(false), g.Config.ConnectionFraction)
	case "partial_direct":
		g.connectFraction(g.fullConnections(true), g.Config.ConnectionFraction)
	default:
		panic(fmt.Sprintf("neat: invalid initial_connection type %q", g.Config.ConnectionType))
	}
}

// hiddenKeys returns the sorted keys of non-output nodes.
func (g *Genome) hiddenKeys() []int {
	outputs := make(map[int]bool, len(g.Config.OutputKeys))
	for _, k := range g.Config.OutputKeys {
		outputs[k] = true
	}
	var hidden []int
	for k := range g.Nodes {
		if !outputs[k] {
			hidden = append(hidden, k)
		}
	}
	sort.Ints(hidden)
	return hidden
}

// connectFSNeat wires one randomly chosen input to every output, and to
// every hidden node too when withHidden is set.
func (g *Genome) connectFSNeat(withHidden bool) {
	in := g.Config.InputKeys[rng.Intn(len(g.Config.InputKeys))]
	targets := append([]int(nil), g.Config.OutputKeys...)
	if withHidden {
		targets = append(g.hiddenKeys(), targets...)
	}
	for _, out := range targets {
		g.addConnection(ConnectionKey{in, out})
	}
}

// fullConnections lists input->hidden and hidden->output edges, plus
// input->output edges when direct is set or there are no hidden nodes.
// Recurrent genomes also get self loops.
func (g *Genome) fullConnections(direct bool) []ConnectionKey {
	hidden := g.hiddenKeys()
	var keys []ConnectionKey
	for _, h := range hidden {
		for _, in := range g.Config.InputKeys {
			keys = append(keys, ConnectionKey{in, h})
		}
		for _, out := range g.Config.OutputKeys {
			keys = append(keys, ConnectionKey{h, out})
		}
	}
	if direct || len(hidden) == 0 {
		for _, in := range g.Config.InputKeys {
			for _, out := range g.Config.OutputKeys {
				keys = append(keys, ConnectionKey{in, out})
			}
		}
	}
	if !g.Config.FeedForward {
		for _, k := range g.sortedNodeKeys() {
			keys = append(keys, ConnectionKey{k, k})
		}
	}
	return keys
}

// connectFraction adds a random fraction of keys, rounded to the nearest count.
func (g *Genome) connectFraction(keys []ConnectionKey, fraction float64) {
	rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	n := int(float64(len(keys))*fraction + 0.5)
	for _, k := range keys[:n] {
		g.addConnection(k)
	}
}

func (g *Genome) addConnection(key ConnectionKey) *ConnectionGene {
	c := NewConnectionGene(key, g.Config)
	g.Connections[key] = c
	return c
}

func (g *Genome) sortedNodeKeys() []int {
	keys := make([]int, 0, len(g.Nodes))
	for k := range g.Nodes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (g *Genome) sortedConnectionKeys() []ConnectionKey {
	keys := make([]ConnectionKey, 0, len(g.Connections))
	for k := range g.Connections {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].InNodeID != keys[j].InNodeID {
			return keys[i].InNodeID < keys[j].InNodeID
		}
		return keys[i].OutNodeID < keys[j].OutNodeID
	})
	return keys
}

// ConfigureCrossover fills g from two parents. Homologous genes are crossed
// over; disjoint and excess genes come from the fitter parent only.
func (g *Genome) ConfigureCrossover(parent1, parent2 *Genome) {
	if parent1.Fitness < parent2.Fitness {
		parent1, parent2 = parent2, parent1
	}
	g.Config = parent1.Config

	for k, c1 := range parent1.Connections {
		if c2, ok := parent2.Connections[k]; ok {
			g.Connections[k] = c1.Crossover(c2)
		} else {
			g.Connections[k] = c1.Copy()
		}
	}
	for k, n1 := range parent1.Nodes {
		if n2, ok := parent2.Nodes[k]; ok {
			g.Nodes[k] = n1.Crossover(n2)
		} else {
			g.Nodes[k] = n1.Copy()
		}
	}
}

// structuralSurer reports whether structural mutations should fall back to
// an alternative instead of doing nothing.
func (gc *GenomeConfig) structuralSurer() bool {
	switch strings.ToLower(gc.StructuralMutationSurer) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return gc.SingleStructuralMutation
	}
}

// Mutate applies structural mutations and then perturbs every gene.
func (g *Genome) Mutate() {
	c := g.Config
	if c.SingleStructuralMutation {
		div := c.NodeAddProb + c.NodeDeleteProb + c.ConnAddProb + c.ConnDeleteProb
		if div < 1 {
			div = 1
		}
		r := rng.Float64()
		switch {
		case r < c.NodeAddProb/div:
			g.mutateAddNode()
		case r < (c.NodeAddProb+c.NodeDeleteProb)/div:
			g.mutateDeleteNode()
		case r < (c.NodeAddProb+c.NodeDeleteProb+c.ConnAddProb)/div:
			g.mutateAddConnection()
		case r < (c.NodeAddProb+c.NodeDeleteProb+c.ConnAddProb+c.ConnDeleteProb)/div:
			g.mutateDeleteConnection()
		}
	} else {
		if rng.Float64() < c.NodeAddProb {
			g.mutateAddNode()
		}
		if rng.Float64() < c.NodeDeleteProb {
			g.mutateDeleteNode()
		}
		if rng.Float64() < c.ConnAddProb {
			g.mutateAddConnection()
		}
		if rng.Float64() < c.ConnDeleteProb {
			g.mutateDeleteConnection()
		}
	}

	for _, k := range g.sortedConnectionKeys() {
		g.Connections[k].Mutate(g, c)
	}
	for _, k := range g.sortedNodeKeys() {
		g.Nodes[k].Mutate(c)
	}
}

// mutateAddNode splits a random connection: the old edge is disabled and
// replaced by in->new (weight 1) and new->out (old weight).
func (g *Genome) mutateAddNode() {
	if len(g.Connections) == 0 {
		if g.Config.structuralSurer() {
			g.mutateAddConnection()
		}
		return
	}
	keys := g.sortedConnectionKeys()
	split := g.Connections[keys[rng.Intn(len(keys))]]
	split.Enabled = false

	nk := g.Config.GetNewNodeKey()
	g.Nodes[nk] = NewNodeGene(nk, g.Config)

	in := g.addConnection(ConnectionKey{split.Key.InNodeID, nk})
	in.Weight, in.Enabled = 1.0, true
	out := g.addConnection(ConnectionKey{nk, split.Key.OutNodeID})
	out.Weight, out.Enabled = split.Weight, true
}

// mutateDeleteNode removes a random hidden node and every edge touching it.
func (g *Genome) mutateDeleteNode() {
	hidden := g.hiddenKeys()
	if len(hidden) == 0 {
		return
	}
	del := hidden[rng.Intn(len(hidden))]
	for k := range g.Connections {
		if k.InNodeID == del || k.OutNodeID == del {
			delete(g.Connections, k)
		}
	}
	delete(g.Nodes, del)
}

// mutateAddConnection tries once to add a new edge ending in a non-input node.
func (g *Genome) mutateAddConnection() {
	outputs := g.sortedNodeKeys()
	if len(outputs) == 0 {
		return
	}
	out := outputs[rng.Intn(len(outputs))]
	inputs := append(outputs, g.Config.InputKeys...)
	in := inputs[rng.Intn(len(inputs))]
	key := ConnectionKey{in, out}

	if existing, ok := g.Connections[key]; ok {
		if g.Config.structuralSurer() {
			existing.Enabled = true
		}
		return
	}
	if g.isOutput(in) && g.isOutput(out) {
		return
	}
	if g.Config.FeedForward && createsCycle(g, in, out) {
		return
	}
	g.addConnection(key)
}

// mutateDeleteConnection removes a random edge.
func (g *Genome) mutateDeleteConnection() {
	if len(g.Connections) == 0 {
		return
	}
	keys := g.sortedConnectionKeys()
	delete(g.Connections, keys[rng.Intn(len(keys))])
}

func (g *Genome) isOutput(k int) bool {
	for _, o := range g.Config.OutputKeys {
		if o == k {
			return true
		}
	}
	return false
}

// Distance is the NEAT compatibility distance. Node and connection genes
// each contribute (sum of homologous distances + c1 * disjoint) / larger size.
func (g *Genome) Distance(other *Genome) float64 {
	c := g.Config

	nodeDistance := 0.0
	if len(g.Nodes) > 0 || len(other.Nodes) > 0 {
		disjoint := 0
		for k := range other.Nodes {
			if _, ok := g.Nodes[k]; !ok {
				disjoint++
			}
		}
		for k, n1 := range g.Nodes {
			if n2, ok := other.Nodes[k]; ok {
				nodeDistance += n1.Distance(n2, c)
			} else {
				disjoint++
			}
		}
		maxNodes := max(len(g.Nodes), len(other.Nodes))
		nodeDistance = (nodeDistance + c.CompatibilityDisjointCoefficient*float64(disjoint)) / float64(maxNodes)
	}

	connDistance := 0.0
	if len(g.Connections) > 0 || len(other.Connections) > 0 {
		disjoint := 0
		for k := range other.Connections {
			if _, ok := g.Connections[k]; !ok {
				disjoint++
			}
		}
		for k, c1 := range g.Connections {
			if c2, ok := other.Connections[k]; ok {
				connDistance += c1.Distance(c2, c)
			} else {
				disjoint++
			}
		}
		maxConns := max(len(g.Connections), len(other.Connections))
		connDistance = (connDistance + c.CompatibilityDisjointCoefficient*float64(disjoint)) / float64(maxConns)
	}

	return nodeDistance + connDistance
}

// Size returns the number of nodes and enabled connections.
func (g *Genome) Size() (nodes, enabled int) {
	for _, c := range g.Connections {
		if c.Enabled {
			enabled++
		}
	}
	return len(g.Nodes), enabled
}

// Copy returns a deep copy of g sharing only its config.
func (g *Genome) Copy() *Genome {
	cp := NewGenome(g.Key, g.Config)
	cp.Fitness = g.Fitness
	for k, n := range g.Nodes {
		cp.Nodes[k] = n.Copy()
	}
	for k, c := range g.Connections {
		cp.Connections[k] = c.Copy()
	}
	return cp
}

func (g *Genome) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Key: %d\nFitness: %g\nNodes:", g.Key, g.Fitness)
	for _, k := range g.sortedNodeKeys() {
		fmt.Fprintf(&b, "\n\t%d %s", k, g.Nodes[k])
	}
	b.WriteString("\nConnections:")
	for _, k := range g.sortedConnectionKeys() {
		fmt.Fprintf(&b, "\n\t%s", g.Connections[k])
	}
	return b.String()
}

// createsCycle reports whether adding in->out would close a cycle through
// the genome's enabled connections.
func createsCycle(g *Genome, in, out int) bool {
	if in == out {
		return true
	}
	next := make(map[int][]int)
	for k, c := range g.Connections {
		if c.Enabled {
			next[k.InNodeID] = append(next[k.InNodeID], k.OutNodeID)
		}
	}
	visited := map[int]bool{out: true}
	stack := []int{out}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == in {
			return true
		}
		for _, m := range next[n] {
			if !visited[m] {
				visited[m] = true
				stack = append(stack, m)
			}
		}
	}
	return false
}
