package store

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/neat-flappy/neat"
)

func newPopulation(t *testing.T) *neat.Population {
	t.Helper()
	config, err := neat.LoadConfig("../examples/flappy/configs/flappy-config")
	require.NoError(t, err)
	neat.Seed(1)
	p, err := neat.NewPopulation(config)
	require.NoError(t, err)
	return p
}

func keyFitness(genomes map[int]*neat.Genome) error {
	for k, g := range genomes {
		g.Fitness = float64(k % 10)
	}
	return nil
}

func TestHistoryReporter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Init(ctx))

	p := newPopulation(t)
	h := NewHistoryReporter(ctx, s, "run-1", nil)
	h.Annotate = func(rec *GenerationRecord) {
		rec.Score = rec.Generation + 5
		rec.Ticks = 120
	}
	p.AddReporter(h)

	_, err := p.Run(ctx, keyFitness, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, h.Written())
	recs, err := s.ListGenerations(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	first := recs[0]
	assert.Equal(t, 0, first.Generation)
	assert.Equal(t, 50, first.Members)
	assert.Equal(t, 9.0, first.BestFitness)
	assert.Equal(t, 9, first.BestGenome)
	assert.InDelta(t, 4.5, first.MeanFitness, 1e-9)
	assert.Positive(t, first.Species)
	assert.Equal(t, 5, first.Score)
	assert.Equal(t, 120, first.Ticks)
	assert.Equal(t, 1, recs[1].Generation)
	assert.Equal(t, 6, recs[1].Score)
}

func TestHistoryReporterLogsStoreErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := newPopulation(t)
	h := NewHistoryReporter(context.Background(), NewMemoryStore(), "run-2", logger)
	p.AddReporter(h)

	_, err := p.Run(context.Background(), keyFitness, 1)
	require.NoError(t, err, "storage errors do not stop training")
	assert.Zero(t, h.Written())
	assert.Contains(t, buf.String(), "failed to store generation")
}
