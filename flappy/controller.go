package flappy

import (
	"fmt"

	"github.com/baldhumanity/neat-flappy/neat"
	"github.com/baldhumanity/neat-flappy/neat/nn"
)

// NumInputs is the length of an Observation.
const NumInputs = 4

// Observation is what a bird sees each tick: its own height, the top and
// bottom edges of the current pipe's gap, and the pipe's column.
type Observation [NumInputs]float64

// Observe builds the observation for b against pipe p.
func Observe(b *Bird, p *Pipe) Observation {
	return Observation{
		float64(b.Y),
		float64(p.GapTop()),
		float64(p.GapBottom()),
		float64(p.X),
	}
}

// Controller maps an observation to a decision. Values above the configured
// ascend threshold make the bird jump.
type Controller interface {
	Decide(obs Observation) float64
}

// ControllerFunc adapts a plain function to Controller.
type ControllerFunc func(obs Observation) float64

// Decide calls f.
func (f ControllerFunc) Decide(obs Observation) float64 { return f(obs) }

// BuildFunc turns a genome into a controller.
type BuildFunc func(g *neat.Genome) (Controller, error)

// NetworkController drives a bird with a feed-forward network's first output.
type NetworkController struct {
	net    *nn.FeedForwardNetwork
	inputs []float64
}

// BuildNetwork is the default BuildFunc. It rejects genomes whose network
// does not take exactly NumInputs inputs so Decide never has to fail.
func BuildNetwork(g *neat.Genome) (Controller, error) {
	net, err := nn.CreateFeedForwardNetwork(g)
	if err != nil {
		return nil, fmt.Errorf("building network for genome %d: %w", g.Key, err)
	}
	if len(net.InputKeys) != NumInputs {
		return nil, fmt.Errorf("genome %d network has %d inputs, want %d", g.Key, len(net.InputKeys), NumInputs)
	}
	if len(net.OutputKeys) == 0 {
		return nil, fmt.Errorf("genome %d network has no outputs", g.Key)
	}
	return &NetworkController{net: net, inputs: make([]float64, NumInputs)}, nil
}

// Decide activates the network and returns its first output.
func (c *NetworkController) Decide(obs Observation) float64 {
	copy(c.inputs, obs[:])
	out, err := c.net.Activate(c.inputs)
	if err != nil {
		// Input count was checked in BuildNetwork.
		panic(fmt.Sprintf("flappy: network activation: %v", err))
	}
	return out[0]
}
