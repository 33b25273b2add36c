// Package store persists training runs: one record per run, a summary per
// evaluated generation, and the winning genome.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Store is implemented by the memory and sqlite backends. Get methods report
// a missing record with found == false and a nil error.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	AppendGeneration(ctx context.Context, rec GenerationRecord) error
	ListGenerations(ctx context.Context, runID string) ([]GenerationRecord, error)
	SaveWinner(ctx context.Context, runID string, genomeYAML []byte) error
	GetWinner(ctx context.Context, runID string) ([]byte, bool, error)
}

// Run describes one training invocation.
type Run struct {
	ID         string
	Seed       int64
	StartedAt  time.Time
	NeatConfig string // path of the NEAT INI file
	GameConfig string // game config as YAML
}

// NewRunID returns a fresh random run id.
func NewRunID() string {
	return uuid.NewString()
}

// GenerationRecord summarises one evaluated generation.
type GenerationRecord struct {
	RunID        string
	Generation   int
	Members      int
	Species      int
	BestFitness  float64
	MeanFitness  float64
	StdevFitness float64
	BestGenome   int
	Score        int // pipes passed
	Ticks        int
}

// LogValue implements slog.LogValuer.
func (r GenerationRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run", r.RunID),
		slog.Int("generation", r.Generation),
		slog.Int("members", r.Members),
		slog.Int("species", r.Species),
		slog.Float64("best_fitness", r.BestFitness),
		slog.Float64("mean_fitness", r.MeanFitness),
		slog.Int("score", r.Score),
		slog.Int("ticks", r.Ticks),
	)
}
