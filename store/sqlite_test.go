//go:build sqlite

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	s, err := NewStore("sqlite", filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer func() { assert.NoError(t, CloseIfSupported(s)) }()

	exerciseStore(t, s)
}

func TestSQLiteStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	first := NewSQLiteStore(path)
	require.NoError(t, first.Init(ctx))
	require.NoError(t, first.AppendGeneration(ctx, GenerationRecord{RunID: "r", Generation: 0, Score: 3}))
	require.NoError(t, first.Close())

	second := NewSQLiteStore(path)
	require.NoError(t, second.Init(ctx))
	defer second.Close()

	recs, err := second.ListGenerations(ctx, "r")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 3, recs[0].Score)
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	_, _, err := s.GetRun(context.Background(), "x")
	assert.ErrorIs(t, err, errNotInitialized)

	_, err = NewStore("sqlite", "")
	assert.Error(t, err)
}
