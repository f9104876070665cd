package domain

import "fmt"

// Rendition is one resolution/bitrate variant of the adaptive-streaming
// ladder.
type Rendition struct {
	Width        int
	Height       int
	VideoBitrate string // e.g. "400k"
	AudioBitrate string // e.g. "64k"
}

func (r Rendition) Resolution() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// BandwidthBPS converts the video bitrate token into bits per second for
// the master playlist.
func (r Rendition) BandwidthBPS() int {
	var kbps int
	if _, err := fmt.Sscanf(r.VideoBitrate, "%dk", &kbps); err != nil {
		return 0
	}
	return kbps * 1000
}

// HLSLadder is the fixed rendition set used for HLS output.
var HLSLadder = []Rendition{
	{Width: 426, Height: 240, VideoBitrate: "400k", AudioBitrate: "64k"},
	{Width: 640, Height: 360, VideoBitrate: "800k", AudioBitrate: "96k"},
	{Width: 842, Height: 480, VideoBitrate: "1400k", AudioBitrate: "128k"},
	{Width: 1280, Height: 720, VideoBitrate: "2800k", AudioBitrate: "128k"},
	{Width: 1920, Height: 1080, VideoBitrate: "5000k", AudioBitrate: "192k"},
}
