package neat

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// floatAttr describes how one float gene attribute is initialised and mutated.
type floatAttr struct {
	mean, stdev    float64
	initType       string
	minVal, maxVal float64
	mutateRate     float64
	replaceRate    float64
	mutatePower    float64
}

func (gc *GenomeConfig) biasAttr() floatAttr {
	return floatAttr{gc.BiasInitMean, gc.BiasInitStdev, gc.BiasInitType, gc.BiasMinValue, gc.BiasMaxValue,
		gc.BiasMutateRate, gc.BiasReplaceRate, gc.BiasMutatePower}
}

func (gc *GenomeConfig) responseAttr() floatAttr {
	return floatAttr{gc.ResponseInitMean, gc.ResponseInitStdev, gc.ResponseInitType, gc.ResponseMinValue, gc.ResponseMaxValue,
		gc.ResponseMutateRate, gc.ResponseReplaceRate, gc.ResponseMutatePower}
}

func (gc *GenomeConfig) weightAttr() floatAttr {
	return floatAttr{gc.WeightInitMean, gc.WeightInitStdev, gc.WeightInitType, gc.WeightMinValue, gc.WeightMaxValue,
		gc.WeightMutateRate, gc.WeightReplaceRate, gc.WeightMutatePower}
}

func (a floatAttr) init() float64 {
	switch strings.ToLower(a.initType) {
	case "gaussian", "normal", "":
		return clamp(rng.NormFloat64()*a.stdev+a.mean, a.minVal, a.maxVal)
	case "uniform":
		lo := math.Max(a.minVal, a.mean-2*a.stdev)
		hi := math.Min(a.maxVal, a.mean+2*a.stdev)
		if hi < lo {
			hi = lo
		}
		return lo + rng.Float64()*(hi-lo)
	default:
		slog.Warn("unknown float init_type, using gaussian", "init_type", a.initType)
		return clamp(rng.NormFloat64()*a.stdev+a.mean, a.minVal, a.maxVal)
	}
}

// mutate perturbs v with probability mutateRate, replaces it with a fresh
// value with probability replaceRate, and otherwise leaves it alone.
func (a floatAttr) mutate(v float64) float64 {
	r := rng.Float64()
	if r < a.mutateRate {
		return clamp(v+rng.NormFloat64()*a.mutatePower, a.minVal, a.maxVal)
	}
	if r < a.mutateRate+a.replaceRate {
		return a.init()
	}
	return v
}

func initChoice(def string, options []string) string {
	if len(options) == 0 {
		return ""
	}
	switch strings.ToLower(def) {
	case "random", "none", "":
		return options[rng.Intn(len(options))]
	}
	for _, o := range options {
		if o == def {
			return def
		}
	}
	slog.Warn("default value not among options, choosing at random", "default", def, "options", options)
	return options[rng.Intn(len(options))]
}

// mutateChoice picks a random option with probability rate. As in
// neat-python the pick may equal the current value.
func mutateChoice(v string, rate float64, options []string) string {
	if len(options) < 2 || rate <= 0 || rng.Float64() >= rate {
		return v
	}
	return options[rng.Intn(len(options))]
}

// NodeGene is a neuron: its bias, response and the functions it applies.
type NodeGene struct {
	Key         int // >= 0; inputs are not node genes
	Bias        float64
	Response    float64
	Activation  string
	Aggregation string
}

// NewNodeGene creates a node with attributes drawn from the config.
func NewNodeGene(key int, config *GenomeConfig) *NodeGene {
	return &NodeGene{
		Key:         key,
		Bias:        config.biasAttr().init(),
		Response:    config.responseAttr().init(),
		Activation:  initChoice(config.ActivationDefault, config.ActivationOptions),
		Aggregation: initChoice(config.AggregationDefault, config.AggregationOptions),
	}
}

func (ng *NodeGene) String() string {
	return fmt.Sprintf("NodeGene(key=%d, bias=%.3f, response=%.3f, activation=%s, aggregation=%s)",
		ng.Key, ng.Bias, ng.Response, ng.Activation, ng.Aggregation)
}

// Copy returns an independent copy.
func (ng *NodeGene) Copy() *NodeGene {
	c := *ng
	return &c
}

// Mutate perturbs every attribute according to its rates.
func (ng *NodeGene) Mutate(config *GenomeConfig) {
	ng.Bias = config.biasAttr().mutate(ng.Bias)
	ng.Response = config.responseAttr().mutate(ng.Response)
	ng.Activation = mutateChoice(ng.Activation, config.ActivationMutateRate, config.ActivationOptions)
	ng.Aggregation = mutateChoice(ng.Aggregation, config.AggregationMutateRate, config.AggregationOptions)
}

// Distance is the attribute distance between two homologous nodes.
func (ng *NodeGene) Distance(other *NodeGene, config *GenomeConfig) float64 {
	d := math.Abs(ng.Bias-other.Bias) + math.Abs(ng.Response-other.Response)
	if ng.Activation != other.Activation {
		d++
	}
	if ng.Aggregation != other.Aggregation {
		d++
	}
	return d * config.CompatibilityWeightCoefficient
}

// Crossover inherits each attribute from ng or other with equal chance.
func (ng *NodeGene) Crossover(other *NodeGene) *NodeGene {
	child := ng.Copy()
	if rng.Float64() < 0.5 {
		child.Bias = other.Bias
	}
	if rng.Float64() < 0.5 {
		child.Response = other.Response
	}
	if rng.Float64() < 0.5 {
		child.Activation = other.Activation
	}
	if rng.Float64() < 0.5 {
		child.Aggregation = other.Aggregation
	}
	return child
}

// ConnectionKey identifies a connection by its endpoints. It doubles as the
// innovation number.
type ConnectionKey struct {
	InNodeID  int
	OutNodeID int
}

// ConnectionGene is a weighted edge between two nodes.
type ConnectionGene struct {
	Key     ConnectionKey
	Weight  float64
	Enabled bool
}

// NewConnectionGene creates a connection with attributes drawn from the config.
func NewConnectionGene(key ConnectionKey, config *GenomeConfig) *ConnectionGene {
	return &ConnectionGene{
		Key:     key,
		Weight:  config.weightAttr().init(),
		Enabled: parseBoolAttribute(config.EnabledDefault),
	}
}

func (cg *ConnectionGene) String() string {
	return fmt.Sprintf("ConnGene(%d->%d, weight=%.3f, enabled=%t)",
		cg.Key.InNodeID, cg.Key.OutNodeID, cg.Weight, cg.Enabled)
}

// Copy returns an independent copy.
func (cg *ConnectionGene) Copy() *ConnectionGene {
	c := *cg
	return &c
}

// Mutate perturbs the weight and may toggle Enabled. In feed-forward genomes
// a connection is never re-enabled if that would close a cycle.
func (cg *ConnectionGene) Mutate(genome *Genome, config *GenomeConfig) {
	cg.Weight = config.weightAttr().mutate(cg.Weight)

	rate := config.EnabledMutateRate
	if cg.Enabled {
		rate += config.EnabledRateToFalseAdd
	} else {
		rate += config.EnabledRateToTrueAdd
	}
	if rate <= 0 || rng.Float64() >= rate {
		return
	}
	next := rng.Float64() < 0.5
	if next && !cg.Enabled && config.FeedForward && createsCycle(genome, cg.Key.InNodeID, cg.Key.OutNodeID) {
		return
	}
	cg.Enabled = next
}

// Distance is the attribute distance between two homologous connections.
func (cg *ConnectionGene) Distance(other *ConnectionGene, config *GenomeConfig) float64 {
	d := math.Abs(cg.Weight - other.Weight)
	if cg.Enabled != other.Enabled {
		d++
	}
	return d * config.CompatibilityWeightCoefficient
}

// Crossover inherits weight and enabled state from cg or other with equal chance.
func (cg *ConnectionGene) Crossover(other *ConnectionGene) *ConnectionGene {
	child := cg.Copy()
	if rng.Float64() < 0.5 {
		child.Weight = other.Weight
	}
	if rng.Float64() < 0.5 {
		child.Enabled = other.Enabled
	}
	return child
}
