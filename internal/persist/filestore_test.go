package persist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/dds-statsbackend/internal/graph"
	"github.com/arc-self/dds-statsbackend/internal/persist"
)

func TestFileStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := persist.NewFileStore(dir)
	require.NoError(t, err)

	g := graph.New()
	_, err = g.InsertHost("h1")
	require.NoError(t, err)

	require.NoError(t, store.Save("snap1", g))

	loaded := graph.New()
	require.NoError(t, store.Load("snap1", loaded))

	matches := loaded.GetEntitiesByName(graph.KindHost, "h1")
	assert.Len(t, matches, 1)
}

func TestFileStoreLoadMissingFileErrors(t *testing.T) {
	dir := t.TempDir()
	store, err := persist.NewFileStore(dir)
	require.NoError(t, err)

	err = store.Load("does-not-exist", graph.New())
	assert.Error(t, err)
}
