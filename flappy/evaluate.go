package flappy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/baldhumanity/neat-flappy/neat"
)

// ErrNoMembers is returned when a generation is evaluated with no genomes.
var ErrNoMembers = errors.New("flappy: no genomes to evaluate")

// FrameSink consumes a world snapshot after every tick. Presentation layers
// implement it; returning an error stops the generation at the tick boundary.
type FrameSink interface {
	Frame(ctx context.Context, s Snapshot) error
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(ctx context.Context, s Snapshot) error

// Frame calls f.
func (f FrameSinkFunc) Frame(ctx context.Context, s Snapshot) error { return f(ctx, s) }

// GenerationResult summarises one evaluated generation.
type GenerationResult struct {
	Generation  int     // environment generation counter after the reset
	Members     int     // birds spawned
	Ticks       int     // ticks until the last bird crashed
	Score       int     // pipes reached
	BestFitness float64 // highest fitness written back
	BestGenome  int     // key of the genome holding BestFitness
}

// LogValue implements slog.LogValuer.
func (r GenerationResult) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", r.Generation),
		slog.Int("members", r.Members),
		slog.Int("ticks", r.Ticks),
		slog.Int("score", r.Score),
		slog.Float64("best_fitness", r.BestFitness),
		slog.Int("best_genome", r.BestGenome),
	)
}

// Evaluator runs whole generations through an Env and writes fitness back
// into the genomes.
type Evaluator struct {
	env      *Env
	build    BuildFunc
	sink     FrameSink
	maxTicks int
	logger   *slog.Logger

	last GenerationResult
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithFrameSink sends a snapshot to sink after every tick.
func WithFrameSink(sink FrameSink) Option {
	return func(e *Evaluator) { e.sink = sink }
}

// WithMaxTicks caps the length of a generation. A generation that hits the
// cap ends normally with the survivors' fitness intact. Zero means no cap.
func WithMaxTicks(n int) Option {
	return func(e *Evaluator) { e.maxTicks = n }
}

// WithLogger sets the logger used for per-generation summaries.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// NewEvaluator creates an evaluator over env. A nil build uses BuildNetwork.
func NewEvaluator(env *Env, build BuildFunc, opts ...Option) *Evaluator {
	if build == nil {
		build = BuildNetwork
	}
	e := &Evaluator{env: env, build: build, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Env returns the environment the evaluator drives.
func (e *Evaluator) Env() *Env { return e.env }

// LastResult returns the summary of the most recent completed generation.
func (e *Evaluator) LastResult() GenerationResult { return e.last }

// Evaluate flies one bird per genome until all of them have crashed. Each
// genome's Fitness is reset to zero and then accumulated in place. The
// context is checked between ticks; cancellation aborts the generation,
// leaves partial fitness in place and resets the environment.
func (e *Evaluator) Evaluate(ctx context.Context, genomes map[int]*neat.Genome) error {
	if len(genomes) == 0 {
		return ErrNoMembers
	}

	// Map iteration order is random; sort so runs with the same seed match.
	keys := make([]int, 0, len(genomes))
	for k := range genomes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	for _, k := range keys {
		g := genomes[k]
		g.Fitness = 0
		c, err := e.build(g)
		if err != nil {
			e.env.Reset()
			return fmt.Errorf("building controller for genome %d: %w", k, err)
		}
		e.env.Add(c, &g.Fitness)
	}

	for {
		if err := ctx.Err(); err != nil {
			e.env.Reset()
			return err
		}

		done := e.env.Step()

		if e.sink != nil {
			if err := e.sink.Frame(ctx, e.env.Snapshot()); err != nil {
				if !done {
					e.env.Reset()
				}
				return fmt.Errorf("frame sink: %w", err)
			}
		}

		if done {
			break
		}
		if e.maxTicks > 0 && e.env.Ticks() >= e.maxTicks {
			// Birds still alive keep the fitness they earned, unpenalised.
			score, alive := e.env.Score(), e.env.Alive()
			e.env.Reset()
			e.logger.Info("generation stopped at tick cap", "max_ticks", e.maxTicks, "alive", alive)
			e.finish(genomes, keys, e.maxTicks, score)
			return nil
		}
	}

	e.finish(genomes, keys, e.env.LastTicks(), e.env.LastScore())
	return nil
}

// finish records the result of the generation that just ended.
func (e *Evaluator) finish(genomes map[int]*neat.Genome, keys []int, ticks, score int) {
	res := GenerationResult{
		Generation:  e.env.Generation(),
		Members:     len(keys),
		Ticks:       ticks,
		Score:       score,
		BestFitness: math.Inf(-1),
	}
	for _, k := range keys {
		if f := genomes[k].Fitness; f > res.BestFitness {
			res.BestFitness = f
			res.BestGenome = k
		}
	}
	e.last = res
	e.logger.Info("generation evaluated", "result", res)
}

// FitnessFunc adapts the evaluator to the engine's callback signature.
func (e *Evaluator) FitnessFunc(ctx context.Context) neat.FitnessFunc {
	return func(genomes map[int]*neat.Genome) error {
		return e.Evaluate(ctx, genomes)
	}
}

// Engine is the evolution engine contract: it hands each generation's
// genomes to fn and decides when to stop.
type Engine interface {
	Run(ctx context.Context, fn neat.FitnessFunc, generations int) (*neat.Genome, error)
}

// Train runs the engine against the evaluator for up to generations
// generations and returns the best genome found.
func Train(ctx context.Context, engine Engine, eval *Evaluator, generations int) (*neat.Genome, error) {
	winner, err := engine.Run(ctx, eval.FitnessFunc(ctx), generations)
	if err != nil {
		return winner, fmt.Errorf("training: %w", err)
	}
	return winner, nil
}
