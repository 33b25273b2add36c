package nn

import (
	"fmt"
	"sort"

	"github.com/baldhumanity/neat-flappy/neat"
)

// link is one weighted input of a node.
type link struct {
	from   int
	weight float64
}

// nodeEval is everything needed to compute one node's value.
type nodeEval struct {
	key         int
	activation  neat.ActivationType
	aggregation neat.AggregationType
	bias        float64
	response    float64
	links       []link
}

// FeedForwardNetwork is the phenotype of a feed-forward genome. Only nodes
// that can influence an output are evaluated.
type FeedForwardNetwork struct {
	InputKeys  []int
	OutputKeys []int

	evals  []nodeEval
	values map[int]float64
	buf    []float64
}

// CreateFeedForwardNetwork builds the network for g from its enabled
// connections.
func CreateFeedForwardNetwork(g *neat.Genome) (*FeedForwardNetwork, error) {
	if !g.Config.FeedForward {
		return nil, fmt.Errorf("genome %d: feed_forward is disabled", g.Key)
	}

	var conns []neat.ConnectionKey
	for k, c := range g.Connections {
		if c.Enabled {
			conns = append(conns, k)
		}
	}
	sort.Slice(conns, func(i, j int) bool {
		if conns[i].OutNodeID != conns[j].OutNodeID {
			return conns[i].OutNodeID < conns[j].OutNodeID
		}
		return conns[i].InNodeID < conns[j].InNodeID
	})

	net := &FeedForwardNetwork{
		InputKeys:  g.Config.InputKeys,
		OutputKeys: g.Config.OutputKeys,
		values:     make(map[int]float64),
	}
	for _, layer := range FeedForwardLayers(g.Config.InputKeys, g.Config.OutputKeys, conns) {
		for _, key := range layer {
			ng, ok := g.Nodes[key]
			if !ok {
				return nil, fmt.Errorf("genome %d: connection to missing node %d", g.Key, key)
			}
			act, err := neat.GetActivation(ng.Activation)
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", key, err)
			}
			agg, err := neat.GetAggregation(ng.Aggregation)
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", key, err)
			}
			ev := nodeEval{key: key, activation: act, aggregation: agg, bias: ng.Bias, response: ng.Response}
			for _, ck := range conns {
				if ck.OutNodeID == key {
					ev.links = append(ev.links, link{from: ck.InNodeID, weight: g.Connections[ck].Weight})
				}
			}
			net.evals = append(net.evals, ev)
		}
	}
	net.reset()
	return net, nil
}

func (n *FeedForwardNetwork) reset() {
	clear(n.values)
	for _, k := range n.InputKeys {
		n.values[k] = 0
	}
	for _, k := range n.OutputKeys {
		n.values[k] = 0
	}
}

// Activate feeds inputs through the network and returns one value per
// output. An output that no evaluated node feeds stays 0.
func (n *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(n.InputKeys) {
		return nil, fmt.Errorf("expected %d inputs, got %d", len(n.InputKeys), len(inputs))
	}
	for i, k := range n.InputKeys {
		n.values[k] = inputs[i]
	}
	for _, ev := range n.evals {
		n.buf = n.buf[:0]
		for _, l := range ev.links {
			n.buf = append(n.buf, n.values[l.from]*l.weight)
		}
		s := ev.aggregation(n.buf)
		n.values[ev.key] = ev.activation(ev.bias + ev.response*s)
	}
	out := make([]float64, len(n.OutputKeys))
	for i, k := range n.OutputKeys {
		out[i] = n.values[k]
	}
	return out, nil
}

// RequiredForOutput returns the non-input nodes whose values can reach an
// output, outputs included.
func RequiredForOutput(inputs, outputs []int, conns []neat.ConnectionKey) map[int]bool {
	isInput := make(map[int]bool, len(inputs))
	for _, k := range inputs {
		isInput[k] = true
	}
	required := make(map[int]bool)
	seen := make(map[int]bool)
	for _, k := range outputs {
		required[k] = true
		seen[k] = true
	}
	for {
		var next []int
		for _, c := range conns {
			if seen[c.OutNodeID] && !seen[c.InNodeID] {
				next = append(next, c.InNodeID)
			}
		}
		if len(next) == 0 {
			return required
		}
		grew := false
		for _, k := range next {
			seen[k] = true
			if !isInput[k] {
				required[k] = true
				grew = true
			}
		}
		if !grew {
			return required
		}
	}
}

// FeedForwardLayers groups the required nodes into layers that can be
// evaluated in order: every node's inputs lie in earlier layers or are
// network inputs. Nodes within a layer are sorted by key.
func FeedForwardLayers(inputs, outputs []int, conns []neat.ConnectionKey) [][]int {
	required := RequiredForOutput(inputs, outputs, conns)
	done := make(map[int]bool, len(inputs))
	for _, k := range inputs {
		done[k] = true
	}

	var layers [][]int
	for {
		candidates := make(map[int]bool)
		for _, c := range conns {
			if done[c.InNodeID] && !done[c.OutNodeID] {
				candidates[c.OutNodeID] = true
			}
		}
		var layer []int
		for n := range candidates {
			if !required[n] {
				continue
			}
			ready := true
			for _, c := range conns {
				if c.OutNodeID == n && !done[c.InNodeID] {
					ready = false
					break
				}
			}
			if ready {
				layer = append(layer, n)
			}
		}
		if len(layer) == 0 {
			return layers
		}
		sort.Ints(layer)
		for _, n := range layer {
			done[n] = true
		}
		layers = append(layers, layer)
	}
}
