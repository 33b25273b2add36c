package neat

import (
	"fmt"
	"math"
	"sync"
)

// AggregationType reduces a node's weighted inputs to a single value.
type AggregationType func(inputs []float64) float64

var (
	aggregationMu sync.RWMutex

	// AggregationFunctions maps config names to reducers.
	AggregationFunctions = map[string]AggregationType{
		"sum":     AggregateSum,
		"product": AggregateProduct,
		"min":     AggregateMin,
		"max":     AggregateMax,
		"maxabs":  AggregateMaxAbs,
		"median":  AggregateMedian,
		"mean":    AggregateMean,
		"average": AggregateMean,
	}
)

// RegisterAggregation adds or replaces a named aggregation function.
func RegisterAggregation(name string, fn AggregationType) {
	aggregationMu.Lock()
	defer aggregationMu.Unlock()
	AggregationFunctions[name] = fn
}

// GetAggregation looks an aggregation function up by name.
func GetAggregation(name string) (AggregationType, error) {
	aggregationMu.RLock()
	defer aggregationMu.RUnlock()
	if fn, ok := AggregationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown aggregation function: %s", name)
}

// Nodes without incoming connections aggregate an empty slice. Every reducer
// returns 0 for that case so a bare bias drives the activation.

func AggregateSum(inputs []float64) float64 {
	return Sum(inputs)
}

func AggregateProduct(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	p := 1.0
	for _, v := range inputs {
		p *= v
	}
	return p
}

func AggregateMin(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	return MinFloat(inputs)
}

func AggregateMax(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	return MaxFloat(inputs)
}

// AggregateMaxAbs returns the input with the largest magnitude, sign kept.
func AggregateMaxAbs(inputs []float64) float64 {
	best := 0.0
	for _, v := range inputs {
		if math.Abs(v) > math.Abs(best) {
			best = v
		}
	}
	return best
}

func AggregateMedian(inputs []float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	return Median(inputs)
}

func AggregateMean(inputs []float64) float64 {
	return Mean(inputs)
}
