package domain

import (
	"path/filepath"
	"strings"
)

// FilePathSet is the decomposed (directory, stem, extension) form of a file
// path. Dir keeps a trailing separator, Ext is the lowercased extension
// without the dot (the classification key), and Stem excludes the final
// dot-extension. Join reproduces the original absolute path, including the
// extension's on-disk casing.
type FilePathSet struct {
	Dir  string
	Stem string
	Ext  string

	// rawExt preserves the extension as found on disk; Ext alone would
	// break Join on case-sensitive filesystems for names like "Song.MP3".
	rawExt string
}

func NewFilePathSet(path string) FilePathSet {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	base := filepath.Base(abs)
	rawExt := ""
	stem := base
	if idx := strings.LastIndex(base, "."); idx > 0 {
		stem = base[:idx]
		rawExt = base[idx+1:]
	}
	return FilePathSet{
		Dir:    filepath.Dir(abs) + string(filepath.Separator),
		Stem:   stem,
		Ext:    strings.ToLower(rawExt),
		rawExt: rawExt,
	}
}

// Join reassembles the absolute path the set was built from.
func (f FilePathSet) Join() string {
	ext := f.rawExt
	if ext == "" {
		ext = f.Ext
	}
	if ext == "" {
		return f.Dir + f.Stem
	}
	return f.Dir + f.Stem + "." + ext
}

// Batch maps each input category to the files scheduled for it, in
// discovery order. A file appears in exactly one category.
type Batch struct {
	files map[Category][]FilePathSet
}

func NewBatch() *Batch {
	return &Batch{files: make(map[Category][]FilePathSet)}
}

func (b *Batch) Append(cat Category, fps FilePathSet) {
	b.files[cat] = append(b.files[cat], fps)
}

// Files returns the scheduled entries for one category, discovery-ordered.
func (b *Batch) Files(cat Category) []FilePathSet {
	return b.files[cat]
}

func (b *Batch) IsEmpty() bool {
	for _, v := range b.files {
		if len(v) > 0 {
			return false
		}
	}
	return true
}

func (b *Batch) Len() int {
	n := 0
	for _, v := range b.files {
		n += len(v)
	}
	return n
}

// Merge appends every entry of other onto b, preserving per-category order.
func (b *Batch) Merge(other *Batch) {
	for cat, sets := range other.files {
		b.files[cat] = append(b.files[cat], sets...)
	}
}

// Contains reports whether fps was scheduled in the given category.
func (b *Batch) Contains(cat Category, fps FilePathSet) bool {
	for _, s := range b.files[cat] {
		if s == fps {
			return true
		}
	}
	return false
}
