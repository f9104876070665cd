package fileops

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// numericProbeBudget bounds the sequential "_1, _2, ..." probing before the
// resolver switches to a random suffix. Directories with thousands of
// numeric siblings would otherwise stall the whole batch.
const numericProbeBudget = 2 * time.Second

// ResolveConflict returns path unchanged when it is free, otherwise the
// first non-existing "<stem>_<n>.<ext>" sibling. When numeric probing
// exceeds its time budget it falls back to "<stem>_<rand5>.<ext>". The
// caller creates the file; a race between resolution and creation costs at
// most one extra retry.
func ResolveConflict(path string) string {
	if _, err := os.Stat(path); err != nil {
		return path
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	stem, ext := base, ""
	if idx := strings.LastIndex(base, "."); idx > 0 {
		stem, ext = base[:idx], base[idx:]
	}

	deadline := time.Now().Add(numericProbeBudget)
	for n := 1; time.Now().Before(deadline); n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}

	for {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, randSuffix(), ext))
		if _, err := os.Stat(candidate); err != nil {
			return candidate
		}
	}
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randSuffix() string {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	for i := range b {
		b[i] = suffixAlphabet[int(b[i])%len(suffixAlphabet)]
	}
	return string(b)
}
