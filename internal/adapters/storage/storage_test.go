package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileStore_CRUDAndReload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")

	s, err := NewProfileStore(dir)
	require.NoError(t, err)
	assert.Empty(t, s.Names(ctx))

	require.NoError(t, s.Put(ctx, "lobby", json.RawMessage(`{"1":"intro.mp4","2":"loop.mp4"}`)))
	require.NoError(t, s.Put(ctx, "Зал 2", json.RawMessage(`{"1":"b.mp4"}`)))
	assert.Equal(t, []string{"lobby", "Зал 2"}, s.Names(ctx))

	doc, err := s.Get(ctx, "lobby")
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":"intro.mp4","2":"loop.mp4"}`, string(doc))

	_, err = os.Stat(filepath.Join(dir, ProfilesFileName))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, ProfilesFileName+".tmp"))
	assert.True(t, os.IsNotExist(err))

	reloaded, err := NewProfileStore(dir)
	require.NoError(t, err)
	assert.Len(t, reloaded.All(ctx), 2)

	require.NoError(t, reloaded.Delete(ctx, "lobby"))
	_, err = reloaded.Get(ctx, "lobby")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.ErrorIs(t, reloaded.Delete(ctx, "lobby"), ErrProfileNotFound)
}

func TestProfileStore_RejectsBadInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, err := NewProfileStore(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Put(ctx, "  ", json.RawMessage(`{}`)), ErrInvalidProfileName)
	assert.ErrorIs(t, s.Put(ctx, "a/b", json.RawMessage(`{}`)), ErrInvalidProfileName)
	assert.ErrorIs(t, s.Put(ctx, "ok", json.RawMessage(`{not json`)), ErrInvalidDocument)
	assert.Empty(t, s.Names(ctx))
}

func TestProfileStore_CorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProfilesFileName), []byte("[[["), 0o600))

	_, err := NewProfileStore(dir)
	require.Error(t, err)
}

func TestConfigStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Nil(t, s.Get(ctx))

	require.NoError(t, s.Put(ctx, json.RawMessage(`{"screens":{"1":"a.mp4"},"loop":30}`)))
	assert.ErrorIs(t, s.Put(ctx, json.RawMessage(`nope`)), ErrInvalidDocument)

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.JSONEq(t, `{"screens":{"1":"a.mp4"},"loop":30}`, string(reloaded.Get(ctx)))
}
