package domain

import (
	"fmt"
	"strings"
)

type Quality string

const (
	QualityHigh   Quality = "high"
	QualityMedium Quality = "medium"
	QualityLow    Quality = "low"
)

// ParseQuality normalizes a user-supplied quality string. Anything outside
// the known set maps to the empty quality (encoder default).
func ParseQuality(s string) Quality {
	switch Quality(strings.ToLower(s)) {
	case QualityHigh:
		return QualityHigh
	case QualityMedium:
		return QualityMedium
	case QualityLow:
		return QualityLow
	}
	return ""
}

// RunRequest is the parsed intent for one batch run. It is built by the CLI
// (or a watcher event) and never mutated afterwards.
type RunRequest struct {
	Inputs       []string
	TargetFormat string // possibly a comma-separated list
	Output       string
	Framerate    int
	Quality      Quality
	Merge        bool
	Concat       bool
	SplitRanges  string
	DeleteSource bool
	Across       bool
	Recursive    bool
	Dropzone     bool
	Workers      int
	Language     string
	CustomTags   map[string]string
}

// Validate enforces that exactly one of target format, merge, concat or
// split is requested.
func (r *RunRequest) Validate() error {
	set := 0
	if r.TargetFormat != "" {
		set++
	}
	if r.Merge {
		set++
	}
	if r.Concat {
		set++
	}
	if r.SplitRanges != "" {
		set++
	}
	if set == 0 {
		return fmt.Errorf("%w: one of --format, --merge, --concat or --split is required", ErrConfig)
	}
	if set > 1 {
		return fmt.Errorf("%w: --format, --merge, --concat and --split are mutually exclusive", ErrConfig)
	}
	return nil
}

// Formats splits the target format list, lowercased, in the order given.
func (r *RunRequest) Formats() []string {
	if r.TargetFormat == "" {
		return nil
	}
	parts := strings.Split(strings.ToLower(r.TargetFormat), ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
