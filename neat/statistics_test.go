package neat

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWithStatistics(t *testing.T, generations int) *StatisticsReporter {
	t.Helper()
	p, _ := newTestPopulation(t, "fitness_threshold = 100", "fitness_threshold = 1000000")
	stats := NewStatisticsReporter()
	p.AddReporter(stats)

	gen := 0
	fn := func(genomes map[int]*Genome) error {
		gen++
		for k, g := range genomes {
			g.Fitness = float64(gen*1000 + k%7)
		}
		return nil
	}
	_, err := p.Run(context.Background(), fn, generations)
	require.NoError(t, err)
	return stats
}

func TestStatisticsReporter(t *testing.T) {
	stats := runWithStatistics(t, 3)

	require.Len(t, stats.MostFitGenomes, 3)
	means := stats.GetFitnessMean()
	require.Len(t, means, 3)
	assert.Less(t, means[0], means[1])
	assert.Less(t, means[1], means[2])
	assert.Len(t, stats.GetFitnessStdev(), 3)
	assert.Len(t, stats.GetFitnessMedian(), 3)

	best := stats.BestGenome()
	require.NotNil(t, best)
	assert.Equal(t, 3006.0, best.Fitness)
	top := stats.BestGenomes(2)
	require.Len(t, top, 2)
	assert.GreaterOrEqual(t, top[0].Fitness, top[1].Fitness)

	sizes := stats.GetSpeciesSizes()
	require.Len(t, sizes, 3)
	for _, row := range sizes {
		total := 0
		for _, n := range row {
			total += n
		}
		assert.Positive(t, total)
	}
}

func TestStatisticsReporterKeepsCopies(t *testing.T) {
	p, _ := newTestPopulation(t)
	stats := NewStatisticsReporter()
	p.AddReporter(stats)
	_, err := p.Run(context.Background(), constantFitness(2), 1)
	require.NoError(t, err)

	for _, g := range p.Population {
		g.Fitness = -1
	}
	assert.Equal(t, 2.0, stats.BestGenome().Fitness)
}

func TestStatisticsSave(t *testing.T) {
	stats := runWithStatistics(t, 2)
	dir := filepath.Join(t.TempDir(), "out")

	require.NoError(t, stats.Save(dir))

	f, err := os.Open(filepath.Join(dir, "fitness_history.csv"))
	require.NoError(t, err)
	defer f.Close()
	var rows []FitnessRecord
	require.NoError(t, gocsv.UnmarshalFile(f, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Generation)
	assert.Equal(t, 1006.0, rows[0].Best)
	assert.Equal(t, 1, rows[1].Generation)

	data, err := os.ReadFile(filepath.Join(dir, "speciation.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "generation,species,size")
	assert.Equal(t, len(stats.SpeciesRecords()), countLines(string(data))-1)
}

func countLines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}

func TestStatisticsEmpty(t *testing.T) {
	stats := NewStatisticsReporter()
	assert.Nil(t, stats.BestGenome())
	assert.Empty(t, stats.FitnessRecords())
	assert.Empty(t, stats.GetSpeciesSizes())
}
