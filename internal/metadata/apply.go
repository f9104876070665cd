package metadata

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// ApplyID3 writes the familiar tag keys back onto an mp3 output so a
// transcode keeps its source's identity. Non-mp3 outputs are ignored.
func ApplyID3(output string, tags map[string]string) error {
	if strings.ToLower(filepath.Ext(output)) != ".mp3" || len(tags) == 0 {
		return nil
	}

	id3, err := id3v2.Open(output, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open id3 %s: %w", output, err)
	}
	defer id3.Close()

	if v := tags["title"]; v != "" {
		id3.SetTitle(v)
	}
	if v := tags["artist"]; v != "" {
		id3.SetArtist(v)
	}
	if v := tags["album"]; v != "" {
		id3.SetAlbum(v)
	}
	if v := tags["genre"]; v != "" {
		id3.SetGenre(v)
	}
	if v := tags["year"]; v != "" {
		id3.SetYear(v)
	}

	if err := id3.Save(); err != nil {
		return fmt.Errorf("save id3 %s: %w", output, err)
	}
	return nil
}
