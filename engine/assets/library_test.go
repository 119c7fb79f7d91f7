package assets

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibraryLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "watch.toml", watchTOML)
	writeFile(t, dir, "hub.yaml", hubYAML)
	writeFile(t, dir, "README.md", "# not a rig")

	lib := NewLibrary(dir)
	require.NoError(t, lib.LoadAll(context.Background()))
	assert.Equal(t, []string{"hub", "watch"}, lib.Names())

	hub, ok := lib.Get("hub")
	require.True(t, ok)
	assert.NotNil(t, hub.Hub)

	watch, ok := lib.Get("watch")
	require.True(t, ok)
	assert.Nil(t, watch.Hub)
	assert.Len(t, watch.Track.Keyframes, 1)
}

func TestLibraryLoadAllFailsOnBadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "watch.toml", watchTOML)
	writeFile(t, dir, "broken.toml", "name = ")

	lib := NewLibrary(dir)
	assert.Error(t, lib.LoadAll(context.Background()))
}

func TestLibraryRemove(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "watch.toml", watchTOML)

	lib := NewLibrary(dir)
	_, err := lib.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, lib.Len())

	name, ok := lib.Remove(path)
	assert.True(t, ok)
	assert.Equal(t, "watch", name)
	assert.Equal(t, 0, lib.Len())

	_, ok = lib.Remove(path)
	assert.False(t, ok)
}

func TestLibraryLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"watch.toml": &fstest.MapFile{Data: []byte(watchTOML)},
		"hub.yml":    &fstest.MapFile{Data: []byte(hubYAML)},
		"notes.txt":  &fstest.MapFile{Data: []byte("ignored")},
	}

	lib := NewLibrary("")
	require.NoError(t, lib.LoadFS(context.Background(), fsys))
	assert.Equal(t, []string{"hub", "watch"}, lib.Names())

	r, ok := lib.Get("watch")
	require.True(t, ok)
	assert.Equal(t, "watch.toml", r.Path)
}
