package neat

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// FitnessFunc evaluates a generation by setting each genome's Fitness.
type FitnessFunc func(genomes map[int]*Genome) error

// ErrCompleteExtinction is returned when every species went stagnant and
// reset_on_extinction is off.
var ErrCompleteExtinction = errors.New("neat: complete extinction")

// Population runs the NEAT generation loop.
type Population struct {
	Config       *Config
	Population   map[int]*Genome
	SpeciesSet   *SpeciesSet
	Reproduction *Reproduction
	Stagnation   *Stagnation
	Generation   int
	BestGenome   *Genome // copy of the best genome seen in any generation
	Reporters    *ReporterSet

	fitnessCriterion func([]float64) float64
}

// NewPopulation creates and speciates a fresh initial population.
func NewPopulation(config *Config) (*Population, error) {
	p, err := newPopulation(config)
	if err != nil {
		return nil, err
	}
	p.Population = p.Reproduction.CreateNew(&config.Genome, config.Neat.PopSize)
	p.SpeciesSet.Speciate(config, p.Population, p.Generation)
	return p, nil
}

// newPopulation wires the collaborators without creating genomes.
func newPopulation(config *Config) (*Population, error) {
	criterion, ok := StatFunctions[strings.ToLower(config.Neat.FitnessCriterion)]
	if !ok {
		return nil, fmt.Errorf("unexpected fitness_criterion: %q", config.Neat.FitnessCriterion)
	}
	stagnation, err := NewStagnation(&config.Stagnation)
	if err != nil {
		return nil, fmt.Errorf("failed to create stagnation manager: %w", err)
	}
	reporters := &ReporterSet{}
	return &Population{
		Config:           config,
		SpeciesSet:       NewSpeciesSet(&config.SpeciesSet, reporters),
		Reproduction:     NewReproduction(&config.Reproduction, stagnation, reporters),
		Stagnation:       stagnation,
		Reporters:        reporters,
		fitnessCriterion: criterion,
	}, nil
}

// AddReporter registers r for all subsequent callbacks.
func (p *Population) AddReporter(r Reporter) { p.Reporters.Add(r) }

// RemoveReporter unregisters r.
func (p *Population) RemoveReporter(r Reporter) { p.Reporters.Remove(r) }

// Run evolves for at most n generations, or without a limit when n <= 0.
// It stops early when the fitness criterion reaches fitness_threshold, when
// fn fails, or when ctx is done, and returns the best genome seen so far.
func (p *Population) Run(ctx context.Context, fn FitnessFunc, n int) (*Genome, error) {
	if n <= 0 && p.Config.Neat.NoFitnessTermination {
		return nil, errors.New("neat: cannot have no generational limit with no fitness termination")
	}
	for k := 0; n <= 0 || k < n; k++ {
		if err := ctx.Err(); err != nil {
			return p.BestGenome, err
		}
		solved, err := p.RunGeneration(fn)
		if err != nil {
			return p.BestGenome, err
		}
		if solved {
			return p.BestGenome, nil
		}
	}
	if p.Config.Neat.NoFitnessTermination {
		p.Reporters.FoundSolution(p.Config, p.Generation, p.BestGenome)
	}
	return p.BestGenome, nil
}

// RunGeneration evaluates the current population and, unless the fitness
// threshold was reached, breeds and speciates the next one. It reports
// whether the threshold was reached.
func (p *Population) RunGeneration(fn FitnessFunc) (bool, error) {
	p.Reporters.StartGeneration(p.Generation)

	if err := fn(p.Population); err != nil {
		return false, fmt.Errorf("generation %d: fitness evaluation: %w", p.Generation, err)
	}

	var best *Genome
	fitnesses := make([]float64, 0, len(p.Population))
	for _, k := range sortedIntKeys(p.Population) {
		g := p.Population[k]
		fitnesses = append(fitnesses, g.Fitness)
		if best == nil || g.Fitness > best.Fitness {
			best = g
		}
	}
	p.Reporters.PostEvaluate(p.Config, p.Population, p.SpeciesSet, best)

	if p.BestGenome == nil || best.Fitness > p.BestGenome.Fitness {
		// Elites are carried over as the same objects and re-scored.
		p.BestGenome = best.Copy()
	}

	if !p.Config.Neat.NoFitnessTermination && p.fitnessCriterion(fitnesses) >= p.Config.Neat.FitnessThreshold {
		p.Reporters.FoundSolution(p.Config, p.Generation, best)
		return true, nil
	}

	p.Population = p.Reproduction.Reproduce(p.Config, p.SpeciesSet, p.Config.Neat.PopSize, p.Generation)
	p.Reporters.PostReproduction(p.Config, p.Population, p.SpeciesSet)

	if len(p.SpeciesSet.Species) == 0 {
		p.Reporters.CompleteExtinction()
		if !p.Config.Neat.ResetOnExtinction {
			return false, fmt.Errorf("generation %d: %w", p.Generation, ErrCompleteExtinction)
		}
		p.Population = p.Reproduction.CreateNew(&p.Config.Genome, p.Config.Neat.PopSize)
	}

	p.SpeciesSet.Speciate(p.Config, p.Population, p.Generation)
	p.Reporters.EndGeneration(p.Config, p.Population, p.SpeciesSet)
	p.Generation++
	return false, nil
}
