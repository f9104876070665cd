package domain

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilePathSetDecomposition(t *testing.T) {
	fps := NewFilePathSet("/music/album/song.mp3")
	assert.Equal(t, "/music/album/", fps.Dir)
	assert.Equal(t, "song", fps.Stem)
	assert.Equal(t, "mp3", fps.Ext)
	assert.Equal(t, "/music/album/song.mp3", fps.Join())
}

func TestFilePathSetKeepsExtensionCasing(t *testing.T) {
	fps := NewFilePathSet("/music/Song.MP3")
	assert.Equal(t, "mp3", fps.Ext, "classification key is lowercased")
	assert.Equal(t, "/music/Song.MP3", fps.Join(), "joined path keeps the on-disk casing")
}

func TestFilePathSetNoExtension(t *testing.T) {
	fps := NewFilePathSet("/etc/hosts")
	assert.Equal(t, "hosts", fps.Stem)
	assert.Empty(t, fps.Ext)
	assert.Equal(t, "/etc/hosts", fps.Join())
}

func TestFilePathSetDottedStem(t *testing.T) {
	fps := NewFilePathSet("/x/archive.tar.gz")
	assert.Equal(t, "archive.tar", fps.Stem)
	assert.Equal(t, "gz", fps.Ext)
}

func TestFilePathSetRelativeInput(t *testing.T) {
	fps := NewFilePathSet("song.wav")
	assert.True(t, filepath.IsAbs(fps.Join()), "relative inputs resolve to absolute paths")
}

func TestBatchContains(t *testing.T) {
	b := NewBatch()
	a := NewFilePathSet("/a/one.mp3")
	b.Append(CategoryAudio, a)

	assert.True(t, b.Contains(CategoryAudio, NewFilePathSet("/a/one.mp3")))
	assert.False(t, b.Contains(CategoryAudio, NewFilePathSet("/a/two.mp3")))
	assert.False(t, b.Contains(CategoryMovie, a), "category scoped")
}

func TestBatchMergePreservesOrder(t *testing.T) {
	a := NewBatch()
	a.Append(CategoryAudio, NewFilePathSet("/a/1.mp3"))
	other := NewBatch()
	other.Append(CategoryAudio, NewFilePathSet("/a/2.mp3"))
	other.Append(CategoryImage, NewFilePathSet("/a/3.png"))

	a.Merge(other)
	audio := a.Files(CategoryAudio)
	assert.Len(t, audio, 2)
	assert.Equal(t, "1", audio[0].Stem)
	assert.Equal(t, "2", audio[1].Stem)
	assert.Len(t, a.Files(CategoryImage), 1)
	assert.Equal(t, 3, a.Len())
}
