// Package metadata extracts source-file metadata into JSON sidecars next
// to conversion outputs, and reapplies audio tags to converted files.
package metadata

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/bnema/anyconv/internal/domain"
)

// Sidecar is the JSON document written to
// "<output>/.metadata/<stem>.metadata.json".
type Sidecar struct {
	Format      string            `json:"format"`
	ExtractedAt time.Time         `json:"extracted_at"`
	Tags        map[string]string `json:"tags"`
	CustomTags  map[string]string `json:"custom_tags,omitempty"`
}

// ParseCustomTags turns "key:value" CLI arguments into a tag map. A
// missing colon is a configuration error.
func ParseCustomTags(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	tags := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, ":")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: metadata tag %q is not key:value", domain.ErrConfig, arg)
		}
		tags[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return tags, nil
}

// Extract reads category-appropriate metadata from src. Extraction is
// best effort: unreadable tags degrade to the filesystem basics rather
// than failing the conversion.
func Extract(src domain.FilePathSet, category domain.Category) *Sidecar {
	sc := &Sidecar{
		Format:      string(category),
		ExtractedAt: time.Now().UTC(),
		Tags:        fileTags(src.Join()),
	}

	switch category {
	case domain.CategoryAudio:
		mergeTags(sc.Tags, audioTags(src.Join()))
	case domain.CategoryImage:
		mergeTags(sc.Tags, imageTags(src.Join()))
	}
	return sc
}

func fileTags(path string) map[string]string {
	tags := make(map[string]string)
	info, err := os.Stat(path)
	if err != nil {
		return tags
	}
	tags["size"] = strconv.FormatInt(info.Size(), 10)
	tags["modified"] = info.ModTime().UTC().Format(time.RFC3339)
	return tags
}

func audioTags(path string) map[string]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil
	}

	tags := make(map[string]string)
	put := func(key, value string) {
		if value != "" {
			tags[key] = value
		}
	}
	put("title", m.Title())
	put("artist", m.Artist())
	put("album", m.Album())
	put("album_artist", m.AlbumArtist())
	put("composer", m.Composer())
	put("genre", m.Genre())
	if year := m.Year(); year > 0 {
		tags["year"] = strconv.Itoa(year)
	}
	if track, total := m.Track(); track > 0 {
		tags["track"] = strconv.Itoa(track)
		if total > 0 {
			tags["track_total"] = strconv.Itoa(total)
		}
	}
	put("file_type", string(m.FileType()))
	return tags
}

type exifCollector struct {
	tags map[string]string
}

func (c *exifCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	c.tags[string(name)] = strings.Trim(tag.String(), `"`)
	return nil
}

func imageTags(path string) map[string]string {
	tags := make(map[string]string)

	if f, err := os.Open(path); err == nil {
		if cfg, _, err := image.DecodeConfig(f); err == nil {
			tags["width"] = strconv.Itoa(cfg.Width)
			tags["height"] = strconv.Itoa(cfg.Height)
		}
		f.Close()
	}

	f, err := os.Open(path)
	if err != nil {
		return tags
	}
	defer f.Close()
	x, err := exif.Decode(f)
	if err != nil {
		return tags
	}
	collector := &exifCollector{tags: tags}
	_ = x.Walk(collector)
	return tags
}

// DocumentTags augments the filesystem basics with page count when known.
func DocumentTags(sc *Sidecar, pages int) {
	if pages > 0 {
		sc.Tags["pages"] = strconv.Itoa(pages)
	}
}

// Write stores the sidecar under outputDir/.metadata, returning the
// sidecar path.
func Write(outputDir, stem string, sc *Sidecar) (string, error) {
	dir := filepath.Join(outputDir, ".metadata")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("metadata dir: %w", err)
	}

	raw, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, stem+".metadata.json")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return "", fmt.Errorf("write sidecar: %w", err)
	}
	return path, nil
}

func mergeTags(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}
