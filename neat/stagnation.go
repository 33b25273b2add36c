package neat

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Stagnation tracks per-species fitness history and flags species that
// have stopped improving.
type Stagnation struct {
	Config             *StagnationConfig
	SpeciesFitnessFunc func([]float64) float64
}

// NewStagnation resolves the configured species fitness function.
func NewStagnation(config *StagnationConfig) (*Stagnation, error) {
	fn, ok := StatFunctions[strings.ToLower(config.SpeciesFitnessFunc)]
	if !ok {
		return nil, fmt.Errorf("invalid species_fitness_func: %s", config.SpeciesFitnessFunc)
	}
	return &Stagnation{Config: config, SpeciesFitnessFunc: fn}, nil
}

// StagnationInfo is the verdict for one species.
type StagnationInfo struct {
	SpeciesID  int
	Species    *Species
	IsStagnant bool
}

// Update recomputes each species' fitness, records it in the history and
// returns the species ordered from least to most fit with a stagnation flag.
//
// A species is stagnant when it has not improved for max_stagnation
// generations, unless it is one of the species_elitism fittest species or
// flagging it would leave no more than species_elitism species.
func (s *Stagnation) Update(speciesSet *SpeciesSet, generation int) []StagnationInfo {
	data := make([]StagnationInfo, 0, len(speciesSet.Species))
	for _, sid := range speciesSet.SortedKeys() {
		sp := speciesSet.Species[sid]

		prev := -math.MaxFloat64
		if len(sp.FitnessHistory) > 0 {
			prev = MaxFloat(sp.FitnessHistory)
		}
		sp.Fitness = s.SpeciesFitnessFunc(sp.GetFitnesses())
		sp.FitnessSet = true
		sp.FitnessHistory = append(sp.FitnessHistory, sp.Fitness)
		sp.AdjustedFitness = 0
		if sp.Fitness > prev {
			sp.LastImproved = generation
		}
		data = append(data, StagnationInfo{SpeciesID: sid, Species: sp})
	}

	sort.SliceStable(data, func(i, j int) bool {
		return data[i].Species.Fitness < data[j].Species.Fitness
	})

	nonStagnant := len(data)
	for i := range data {
		sp := data[i].Species
		stagnant := false
		if nonStagnant > s.Config.SpeciesElitism {
			stagnant = generation-sp.LastImproved >= s.Config.MaxStagnation
		}
		if len(data)-i <= s.Config.SpeciesElitism {
			stagnant = false
		}
		if stagnant {
			nonStagnant--
		}
		data[i].IsStagnant = stagnant
	}
	return data
}
