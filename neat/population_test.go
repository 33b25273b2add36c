package neat

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder counts reporter callbacks.
type recorder struct {
	BaseReporter

	started     []int
	evaluated   int
	ended       int
	reproduced  []int
	extinctions int
	solutions   []int
	stagnant    []int
}

func (r *recorder) StartGeneration(g int) { r.started = append(r.started, g) }
func (r *recorder) PostEvaluate(*Config, map[int]*Genome, *SpeciesSet, *Genome) {
	r.evaluated++
}
func (r *recorder) EndGeneration(*Config, map[int]*Genome, *SpeciesSet) { r.ended++ }
func (r *recorder) PostReproduction(_ *Config, pop map[int]*Genome, _ *SpeciesSet) {
	r.reproduced = append(r.reproduced, len(pop))
}
func (r *recorder) CompleteExtinction()                                   { r.extinctions++ }
func (r *recorder) FoundSolution(_ *Config, g int, _ *Genome)             { r.solutions = append(r.solutions, g) }
func (r *recorder) SpeciesStagnant(sid int, _ *Species)                   { r.stagnant = append(r.stagnant, sid) }

// connectionFitness rewards genomes for their enabled connections.
func connectionFitness(genomes map[int]*Genome) error {
	for _, g := range genomes {
		_, enabled := g.Size()
		g.Fitness = float64(enabled)
	}
	return nil
}

func constantFitness(v float64) FitnessFunc {
	return func(genomes map[int]*Genome) error {
		for _, g := range genomes {
			g.Fitness = v
		}
		return nil
	}
}

func newTestPopulation(t *testing.T, replace ...string) (*Population, *recorder) {
	t.Helper()
	Seed(1)
	p, err := NewPopulation(testConfig(t, replace...))
	require.NoError(t, err)
	rec := &recorder{}
	p.AddReporter(rec)
	return p, rec
}

func TestNewPopulation(t *testing.T) {
	p, _ := newTestPopulation(t)

	assert.Len(t, p.Population, 20)
	assert.Equal(t, 0, p.Generation)
	assert.NotEmpty(t, p.SpeciesSet.Species)
	for k := range p.Population {
		_, ok := p.SpeciesSet.GetSpeciesID(k)
		assert.True(t, ok, "genome %d speciated", k)
	}
}

func TestRunStopsAtGenerationLimit(t *testing.T) {
	p, rec := newTestPopulation(t)

	best, err := p.Run(context.Background(), connectionFitness, 3)
	require.NoError(t, err)
	require.NotNil(t, best)

	assert.Equal(t, 3, p.Generation)
	assert.Equal(t, []int{0, 1, 2}, rec.started)
	assert.Equal(t, 3, rec.evaluated)
	assert.Equal(t, 3, rec.ended)
	assert.Empty(t, rec.solutions)
	assert.NotEmpty(t, p.Population)
}

func TestRunStopsAtFitnessThreshold(t *testing.T) {
	p, rec := newTestPopulation(t, "fitness_threshold = 100", "fitness_threshold = 3")

	calls := 0
	fn := func(genomes map[int]*Genome) error {
		calls++
		return constantFitness(float64(calls))(genomes)
	}

	best, err := p.Run(context.Background(), fn, 10)
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
	assert.Equal(t, 3.0, best.Fitness)
	assert.Equal(t, []int{2}, rec.solutions)
	assert.Equal(t, 2, p.Generation, "no breeding after the solution")
	assert.Equal(t, 2, rec.ended)
}

func TestRunNoFitnessTermination(t *testing.T) {
	p, rec := newTestPopulation(t,
		"fitness_threshold = 100", "fitness_threshold = 1",
		"no_fitness_termination = False", "no_fitness_termination = True",
	)

	_, err := p.Run(context.Background(), constantFitness(5), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Generation)
	assert.Equal(t, []int{2}, rec.solutions, "reported once at the end")

	_, err = p.Run(context.Background(), constantFitness(5), 0)
	assert.Error(t, err)
}

func TestRunHonoursContext(t *testing.T) {
	p, rec := newTestPopulation(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, connectionFitness, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.started)
}

func TestRunCancelledMidway(t *testing.T) {
	p, _ := newTestPopulation(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	fn := func(genomes map[int]*Genome) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return connectionFitness(genomes)
	}

	best, err := p.Run(ctx, fn, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotNil(t, best, "best so far is returned")
	assert.Equal(t, 2, calls)
}

func TestRunPropagatesFitnessErrors(t *testing.T) {
	p, _ := newTestPopulation(t)
	boom := errors.New("boom")

	_, err := p.Run(context.Background(), func(map[int]*Genome) error { return boom }, 3)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, p.Generation)
}

func TestCompleteExtinction(t *testing.T) {
	extinct := []string{
		"compatibility_threshold = 3.0", "compatibility_threshold = 1000",
		"max_stagnation = 20", "max_stagnation = 1",
		"species_elitism = 2", "species_elitism = 0",
	}

	t.Run("fails without reset", func(t *testing.T) {
		p, rec := newTestPopulation(t, extinct...)
		_, err := p.Run(context.Background(), constantFitness(1), 5)
		require.ErrorIs(t, err, ErrCompleteExtinction)
		assert.Equal(t, 1, rec.extinctions)
		assert.Len(t, rec.stagnant, 1)
	})

	t.Run("starts over with reset", func(t *testing.T) {
		replace := append(append([]string(nil), extinct...),
			"reset_on_extinction = False", "reset_on_extinction = True")
		p, rec := newTestPopulation(t, replace...)
		_, err := p.Run(context.Background(), constantFitness(1), 4)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rec.extinctions, 1)
		assert.Len(t, p.Population, 20)
		assert.Equal(t, 4, p.Generation)
	})
}

func TestElitesSurvive(t *testing.T) {
	p, _ := newTestPopulation(t, "compatibility_threshold = 3.0", "compatibility_threshold = 1000")
	require.Len(t, p.SpeciesSet.Species, 1)

	fn := func(genomes map[int]*Genome) error {
		for k, g := range genomes {
			g.Fitness = float64(k)
		}
		return nil
	}
	_, err := p.Run(context.Background(), fn, 1)
	require.NoError(t, err)

	assert.Contains(t, p.Population, 20)
	assert.Contains(t, p.Population, 19)
	assert.NotContains(t, p.Population, 1)
	for k := range p.Population {
		if k > 20 {
			assert.Len(t, p.Reproduction.Ancestors[k], 2)
		}
	}
}

func TestReporterSetRemove(t *testing.T) {
	p, rec := newTestPopulation(t)
	p.RemoveReporter(rec)

	_, err := p.Run(context.Background(), connectionFitness, 1)
	require.NoError(t, err)
	assert.Empty(t, rec.started)
}

func TestStdOutReporterLogs(t *testing.T) {
	var buf bytes.Buffer
	p, _ := newTestPopulation(t)
	p.AddReporter(NewStdOutReporter(true, slog.New(slog.NewTextHandler(&buf, nil))))

	_, err := p.Run(context.Background(), connectionFitness, 1)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "generation started")
	assert.Contains(t, out, "population evaluated")
	assert.Contains(t, out, "genetic distance")
	assert.Contains(t, out, "species=")
	assert.Contains(t, out, "generation finished")
}

func TestBestGenomeKeepsItsFitness(t *testing.T) {
	p, rec := newTestPopulation(t)

	generation := 0
	var carried *Genome
	fn := func(genomes map[int]*Genome) error {
		for k, g := range genomes {
			g.Fitness = 0
			if generation == 0 {
				g.Fitness = float64(k)
			}
		}
		if generation == 1 {
			carried = genomes[20]
		}
		generation++
		return nil
	}
	winner, err := p.Run(context.Background(), fn, 3)
	require.NoError(t, err)

	require.NotNil(t, winner)
	assert.Equal(t, 20, winner.Key)
	assert.Equal(t, 20.0, winner.Fitness)

	// The elite itself was carried over and re-scored.
	require.NotNil(t, carried)
	assert.Equal(t, 0.0, carried.Fitness)
	assert.NotSame(t, carried, winner)

	assert.Len(t, rec.reproduced, 3)
	for _, n := range rec.reproduced {
		assert.Positive(t, n)
	}
}
