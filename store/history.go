package store

import (
	"context"
	"log/slog"

	"github.com/baldhumanity/neat-flappy/neat"
)

// HistoryReporter is a neat.Reporter that appends a GenerationRecord for
// every evaluated generation. Storage errors are logged, not fatal.
type HistoryReporter struct {
	neat.BaseReporter

	// Annotate, when set, fills in fields the engine does not know about
	// (Score, Ticks) before the record is written.
	Annotate func(rec *GenerationRecord)

	ctx        context.Context
	store      Store
	runID      string
	logger     *slog.Logger
	generation int
	written    int
}

// NewHistoryReporter writes records for runID into s.
func NewHistoryReporter(ctx context.Context, s Store, runID string, logger *slog.Logger) *HistoryReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryReporter{ctx: ctx, store: s, runID: runID, logger: logger}
}

// Written returns how many records were stored.
func (h *HistoryReporter) Written() int { return h.written }

func (h *HistoryReporter) StartGeneration(generation int) {
	h.generation = generation
}

func (h *HistoryReporter) PostEvaluate(config *neat.Config, population map[int]*neat.Genome, species *neat.SpeciesSet, best *neat.Genome) {
	fitnesses := make([]float64, 0, len(population))
	for _, g := range population {
		fitnesses = append(fitnesses, g.Fitness)
	}
	rec := GenerationRecord{
		RunID:        h.runID,
		Generation:   h.generation,
		Members:      len(population),
		Species:      len(species.Species),
		BestFitness:  best.Fitness,
		MeanFitness:  neat.Mean(fitnesses),
		StdevFitness: neat.Stdev(fitnesses),
		BestGenome:   best.Key,
	}
	if h.Annotate != nil {
		h.Annotate(&rec)
	}
	if err := h.store.AppendGeneration(h.ctx, rec); err != nil {
		h.logger.Error("failed to store generation", "record", rec, "error", err)
		return
	}
	h.written++
}
