package baseline

import (
	"context"
	"testing"

	"github.com/ZaguanLabs/locsync"
	"github.com/ZaguanLabs/locsync/store"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSibling_SnapshotPath(t *testing.T) {
	s := NewSibling(store.New(memfs.New()), "")
	assert.Equal(t, "locales/en.prev.json", s.SnapshotPath("locales/en.json"))
	assert.Equal(t, "messages.prev.yaml", s.SnapshotPath("messages.yaml"))

	custom := NewSibling(store.New(memfs.New()), ".last")
	assert.Equal(t, "en.last.json", custom.SnapshotPath("en.json"))
}

func TestSibling_MissingSnapshotIsEmpty(t *testing.T) {
	s := NewSibling(store.New(memfs.New()), "")

	prev, err := s.Previous(context.Background(), "locales/en.json")
	require.NoError(t, err)
	assert.Equal(t, 0, prev.Len())
}

func TestSibling_RecordThenPrevious(t *testing.T) {
	st := store.New(memfs.New())
	s := NewSibling(st, "")
	ctx := context.Background()

	tree := locsync.FromMap(map[string]any{
		"title": "Hello",
		"menu":  map[string]any{"file": "File"},
	})
	require.NoError(t, s.Record(ctx, "locales/en.json", tree))

	ok, err := st.Exists("locales/en.prev.json")
	require.NoError(t, err)
	assert.True(t, ok)

	prev, err := s.Previous(ctx, "locales/en.json")
	require.NoError(t, err)
	assert.True(t, locsync.Equal(tree, prev))
}

func TestSibling_Cancelled(t *testing.T) {
	s := NewSibling(store.New(memfs.New()), "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Previous(ctx, "en.json")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Record(ctx, "en.json", locsync.NewNode()), context.Canceled)
}

func TestNew(t *testing.T) {
	st := store.New(memfs.New())

	p, err := New(st, Options{})
	require.NoError(t, err)
	assert.IsType(t, &Sibling{}, p)

	p, err = New(st, Options{Kind: KindGit, Revision: "main"})
	require.NoError(t, err)
	require.IsType(t, &Git{}, p)
	assert.Equal(t, "main", p.(*Git).Revision())

	_, err = New(st, Options{Kind: "svn"})
	assert.True(t, locsync.IsConfigurationError(err))
}
