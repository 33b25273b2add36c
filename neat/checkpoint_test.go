package neat

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRoundTrip(t *testing.T) {
	p, _ := newTestPopulation(t)
	_, err := p.Run(context.Background(), connectionFitness, 2)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "checkpoint")
	require.NoError(t, p.SaveCheckpoint(path, p.Generation))

	config := testConfig(t)
	restored, err := RestoreCheckpoint(path, config)
	require.NoError(t, err)

	assert.Equal(t, p.Generation, restored.Generation)
	assert.ElementsMatch(t, sortedIntKeys(p.Population), sortedIntKeys(restored.Population))
	assert.Equal(t, p.SpeciesSet.SortedKeys(), restored.SpeciesSet.SortedKeys())
	assert.Equal(t, p.SpeciesSet.Indexer, restored.SpeciesSet.Indexer)
	assert.Equal(t, p.Reproduction.NextGenomeKey, restored.Reproduction.NextGenomeKey)
	require.NotNil(t, restored.BestGenome)
	assert.Equal(t, p.BestGenome.Fitness, restored.BestGenome.Fitness)

	maxNode := 0
	for k, g := range restored.Population {
		assert.Same(t, &config.Genome, g.Config)
		for nk := range g.Nodes {
			maxNode = max(maxNode, nk)
		}
		sid, ok := restored.SpeciesSet.GetSpeciesID(k)
		require.True(t, ok)
		assert.Same(t, g, restored.SpeciesSet.Species[sid].Members[k])
	}
	assert.Greater(t, config.Genome.NodeKeyIndex, maxNode)

	// Evolution carries on from the restored state.
	_, err = restored.Run(context.Background(), connectionFitness, 1)
	require.NoError(t, err)
	assert.Equal(t, p.Generation+1, restored.Generation)
}

func TestRestoreCheckpointErrors(t *testing.T) {
	config := testConfig(t)
	dir := t.TempDir()

	_, err := RestoreCheckpoint(filepath.Join(dir, "missing"), config)
	assert.ErrorContains(t, err, "failed to open checkpoint")

	garbage := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbage, []byte("not gzip"), 0644))
	_, err = RestoreCheckpoint(garbage, config)
	assert.Error(t, err)
}

func TestCheckpointerSavesEveryN(t *testing.T) {
	p, _ := newTestPopulation(t)
	prefix := filepath.Join(t.TempDir(), "flappy-")
	cp := NewCheckpointer(p, 2, 0, prefix)
	p.AddReporter(cp)

	_, err := p.Run(context.Background(), connectionFitness, 4)
	require.NoError(t, err)

	assert.FileExists(t, prefix+"1")
	assert.FileExists(t, prefix+"3")
	assert.NoFileExists(t, prefix+"0")
	assert.NoFileExists(t, prefix+"2")
	assert.Equal(t, prefix+"3", cp.LastSaved())

	restored, err := RestoreCheckpoint(prefix+"1", testConfig(t))
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Generation, "resumes with the next generation")
}

func TestCheckpointerDefaultPrefix(t *testing.T) {
	p, _ := newTestPopulation(t)
	cp := NewCheckpointer(p, 1, 0, "")
	assert.Equal(t, "neat-checkpoint-", cp.Prefix)
	assert.Empty(t, cp.LastSaved())
}
