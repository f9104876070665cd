package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/anyconv/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		ext string
		cat domain.Category
		ok  bool
	}{
		{"mp3", domain.CategoryAudio, true},
		{"flac", domain.CategoryAudio, true},
		{"png", domain.CategoryImage, true},
		{"gif", domain.CategoryImage, true},
		{"pdf", domain.CategoryDocument, true},
		{"docx", domain.CategoryDocument, true},
		{"srt", domain.CategoryDocument, true},
		{"mp4", domain.CategoryMovie, true},
		{"mkv", domain.CategoryMovie, true},
		{"xyz", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		cat, ok := Classify(tt.ext)
		assert.Equal(t, tt.ok, ok, tt.ext)
		if tt.ok {
			assert.Equal(t, tt.cat, cat, tt.ext)
		}
	}
}

func TestResolveTarget(t *testing.T) {
	t.Run("audio format", func(t *testing.T) {
		cat, desc, err := ResolveTarget("mp3")
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryAudio, cat)
		assert.Equal(t, "libmp3lame", desc.Encoder)
	})

	t.Run("movie container", func(t *testing.T) {
		cat, desc, err := ResolveTarget("webm")
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryMovie, cat)
		assert.Equal(t, "libvpx", desc.Encoder)
	})

	t.Run("codec carries fallback container", func(t *testing.T) {
		cat, desc, err := ResolveTarget("h264")
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryMovieCodec, cat)
		assert.Equal(t, "libx264", desc.Encoder)
		assert.Equal(t, "mkv", desc.Fallback)
	})

	t.Run("protocol", func(t *testing.T) {
		cat, _, err := ResolveTarget("hls")
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryProtocol, cat)
	})

	t.Run("document handler", func(t *testing.T) {
		cat, desc, err := ResolveTarget("md")
		require.NoError(t, err)
		assert.Equal(t, domain.CategoryDocument, cat)
		assert.Equal(t, domain.HandlerMarkdown, desc.Handler)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := ResolveTarget("xyz")
		require.ErrorIs(t, err, domain.ErrUnknownFormat)
	})
}

func TestContainerLookups(t *testing.T) {
	enc, ok := MovieEncoder("mkv")
	require.True(t, ok)
	assert.Equal(t, "libx264", enc)

	_, ok = MovieEncoder("png")
	assert.False(t, ok)

	assert.True(t, IsMovieExt("mp4"))
	assert.False(t, IsMovieExt("mp3"))

	enc, ok = AudioEncoder("flac")
	require.True(t, ok)
	assert.Equal(t, "flac", enc)
}

func TestAudioBitrateTable(t *testing.T) {
	tests := []struct {
		format  string
		quality domain.Quality
		want    string
	}{
		{"flac", domain.QualityHigh, "500k"},
		{"flac", domain.QualityMedium, "320k"},
		{"flac", domain.QualityLow, "192k"},
		{"mp3", domain.QualityHigh, "320k"},
		{"mp3", domain.QualityMedium, "192k"},
		{"mp3", domain.QualityLow, "128k"},
		{"mp3", domain.Quality(""), ""},
		{"wav", domain.Quality("bogus"), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AudioBitrate(tt.format, tt.quality),
			"%s/%s", tt.format, tt.quality)
	}
}

func TestSupportedFormatsSortedAndDeduped(t *testing.T) {
	formats := SupportedFormats()
	require.NotEmpty(t, formats)
	for i := 1; i < len(formats); i++ {
		assert.Less(t, formats[i-1], formats[i], "must be strictly increasing")
	}
	assert.Contains(t, formats, "mp3")
	assert.Contains(t, formats, "hls")
	assert.Contains(t, formats, "h264")
}

func TestAudioExtensionsSorted(t *testing.T) {
	exts := AudioExtensions()
	require.NotEmpty(t, exts)
	assert.Contains(t, exts, "mp3")
	for i := 1; i < len(exts); i++ {
		assert.LessOrEqual(t, exts[i-1], exts[i])
	}
}
