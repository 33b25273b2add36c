package neat

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// Reporter receives progress callbacks from a Population. Embed
// BaseReporter to implement only the hooks you need.
type Reporter interface {
	StartGeneration(generation int)
	EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet)
	PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome)
	PostReproduction(config *Config, population map[int]*Genome, species *SpeciesSet)
	CompleteExtinction()
	FoundSolution(config *Config, generation int, best *Genome)
	SpeciesStagnant(sid int, species *Species)
	Info(msg string, args ...any)
}

// BaseReporter implements every Reporter hook as a no-op.
type BaseReporter struct{}

func (BaseReporter) StartGeneration(int) {}
func (BaseReporter) EndGeneration(*Config, map[int]*Genome, *SpeciesSet) {}
func (BaseReporter) PostEvaluate(*Config, map[int]*Genome, *SpeciesSet, *Genome) {}
func (BaseReporter) PostReproduction(*Config, map[int]*Genome, *SpeciesSet) {}
func (BaseReporter) CompleteExtinction() {}
func (BaseReporter) FoundSolution(*Config, int, *Genome) {}
func (BaseReporter) SpeciesStagnant(int, *Species) {}
func (BaseReporter) Info(string, ...any) {}

// ReporterSet fans each callback out to its members in registration order.
// The zero value is ready to use.
type ReporterSet struct {
	reporters []Reporter
}

// Add registers r.
func (rs *ReporterSet) Add(r Reporter) {
	rs.reporters = append(rs.reporters, r)
}

// Remove unregisters r if present.
func (rs *ReporterSet) Remove(r Reporter) {
	for i, x := range rs.reporters {
		if x == r {
			rs.reporters = append(rs.reporters[:i], rs.reporters[i+1:]...)
			return
		}
	}
}

func (rs *ReporterSet) StartGeneration(gen int) {
	for _, r := range rs.reporters {
		r.StartGeneration(gen)
	}
}

func (rs *ReporterSet) EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet) {
	for _, r := range rs.reporters {
		r.EndGeneration(config, population, species)
	}
}

func (rs *ReporterSet) PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	for _, r := range rs.reporters {
		r.PostEvaluate(config, population, species, best)
	}
}

func (rs *ReporterSet) PostReproduction(config *Config, population map[int]*Genome, species *SpeciesSet) {
	for _, r := range rs.reporters {
		r.PostReproduction(config, population, species)
	}
}

func (rs *ReporterSet) CompleteExtinction() {
	for _, r := range rs.reporters {
		r.CompleteExtinction()
	}
}

func (rs *ReporterSet) FoundSolution(config *Config, generation int, best *Genome) {
	for _, r := range rs.reporters {
		r.FoundSolution(config, generation, best)
	}
}

func (rs *ReporterSet) SpeciesStagnant(sid int, species *Species) {
	for _, r := range rs.reporters {
		r.SpeciesStagnant(sid, species)
	}
}

func (rs *ReporterSet) Info(msg string, args ...any) {
	for _, r := range rs.reporters {
		r.Info(msg, args...)
	}
}

// StdOutReporter logs generation progress through slog.
type StdOutReporter struct {
	BaseReporter

	ShowSpeciesDetail bool
	Logger            *slog.Logger

	generation      int
	generationStart time.Time
	times           []time.Duration
}

// NewStdOutReporter creates a reporter logging to logger, or to
// slog.Default() when logger is nil.
func NewStdOutReporter(showSpeciesDetail bool, logger *slog.Logger) *StdOutReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &StdOutReporter{ShowSpeciesDetail: showSpeciesDetail, Logger: logger}
}

func (r *StdOutReporter) StartGeneration(generation int) {
	r.generation = generation
	r.generationStart = time.Now()
	r.Logger.Info("generation started", "generation", generation)
}

func (r *StdOutReporter) EndGeneration(config *Config, population map[int]*Genome, species *SpeciesSet) {
	r.Logger.Info("population speciated",
		"generation", r.generation,
		"members", humanize.Comma(int64(len(population))),
		"species", len(species.Species))

	if r.ShowSpeciesDetail {
		for _, sid := range species.SortedKeys() {
			s := species.Species[sid]
			args := []any{
				"species", sid,
				"age", r.generation - s.Created,
				"size", len(s.Members),
				"stagnation", r.generation - s.LastImproved,
			}
			if s.FitnessSet {
				args = append(args, "fitness", s.Fitness, "adjusted_fitness", s.AdjustedFitness)
			}
			r.Logger.Info("species", args...)
		}
	}

	elapsed := time.Since(r.generationStart)
	r.times = append(r.times, elapsed)
	if len(r.times) > 10 {
		r.times = r.times[1:]
	}
	var total time.Duration
	for _, t := range r.times {
		total += t
	}
	r.Logger.Info("generation finished",
		"generation", r.generation,
		"elapsed", elapsed.Round(time.Millisecond),
		"average", (total / time.Duration(len(r.times))).Round(time.Millisecond))
}

func (r *StdOutReporter) PostEvaluate(config *Config, population map[int]*Genome, species *SpeciesSet, best *Genome) {
	fitnesses := make([]float64, 0, len(population))
	for _, g := range population {
		fitnesses = append(fitnesses, g.Fitness)
	}
	sid, _ := species.GetSpeciesID(best.Key)
	nodes, conns := best.Size()
	r.Logger.Info("population evaluated",
		"generation", r.generation,
		"mean_fitness", Mean(fitnesses),
		"stdev", Stdev(fitnesses),
		"best_fitness", best.Fitness,
		"best_genome", best.Key,
		"best_species", sid,
		"best_nodes", nodes,
		"best_connections", conns)
}

func (r *StdOutReporter) CompleteExtinction() {
	r.Logger.Warn("all species extinct")
}

func (r *StdOutReporter) FoundSolution(config *Config, generation int, best *Genome) {
	nodes, conns := best.Size()
	r.Logger.Info("solution found",
		"generation", generation,
		"genome", best.Key,
		"fitness", best.Fitness,
		"nodes", nodes,
		"connections", conns)
}

func (r *StdOutReporter) SpeciesStagnant(sid int, species *Species) {
	if r.ShowSpeciesDetail {
		r.Logger.Info("species removed after stagnation", "species", sid, "members", len(species.Members))
	}
}

func (r *StdOutReporter) Info(msg string, args ...any) {
	r.Logger.Info(msg, args...)
}
