// Package registry holds the static format tables: which extension belongs
// to which category, and how a target format maps to an encoder token,
// codec pair or converter operation. It never touches the filesystem.
package registry

import (
	"fmt"
	"sort"

	"github.com/bnema/anyconv/internal/domain"
)

var audioFormats = map[string]string{
	"mp3":  "libmp3lame",
	"flac": "flac",
	"aac":  "aac",
	"ac3":  "ac3",
	"dts":  "dts",
	"ogg":  "libvorbis",
	"wma":  "wmav2",
	"wav":  "pcm_s16le",
	"m4a":  "aac",
	"aiff": "pcm_s16le",
	"weba": "libopus",
	"mka":  "libvorbis",
	"wv":   "wavpack",
	"tta":  "tta",
	"m4b":  "aac",
	"eac3": "eac3",
	"spx":  "libvorbis",
	"mp2":  "mp2",
	"caf":  "pcm_s16be",
	"au":   "pcm_s16be",
	"oga":  "libvorbis",
	"opus": "libopus",
	"m3u8": "pcm_s16le",
	"w64":  "pcm_s16le",
	"mlp":  "mlp",
	"adts": "aac",
	"sbc":  "sbc",
	"thd":  "truehd",
}

var imageFormats = map[string]domain.HandlerID{
	"gif":      domain.HandlerGIF,
	"png":      domain.HandlerFrames,
	"jpeg":     domain.HandlerFrames,
	"jpg":      domain.HandlerFrames,
	"bmp":      domain.HandlerBMP,
	"webp":     domain.HandlerWebP,
	"tiff":     domain.HandlerFrames,
	"tga":      domain.HandlerFrames,
	"ps":       domain.HandlerFrames,
	"ico":      domain.HandlerFrames,
	"eps":      domain.HandlerFrames,
	"jpeg2000": domain.HandlerFrames,
	"im":       domain.HandlerFrames,
	"pcx":      domain.HandlerFrames,
	"ppm":      domain.HandlerFrames,
}

var documentFormats = map[string]domain.HandlerID{
	"md":   domain.HandlerMarkdown,
	"pdf":  domain.HandlerPDF,
	"docx": domain.HandlerOffice,
	"pptx": domain.HandlerOffice,
	"srt":  domain.HandlerSubtitles,
}

var movieFormats = map[string]string{
	"webm":  "libvpx",
	"mov":   "libx264",
	"mkv":   "libx264",
	"avi":   "libx264",
	"mp4":   "libx264",
	"wmv":   "wmv2",
	"flv":   "libx264",
	"mjpeg": "mjpeg",
	"m2ts":  "mpeg2video",
	"3gp":   "libx264",
	"3g2":   "libx264",
	"asf":   "wmv2",
	"vob":   "mpeg2video",
	"ts":    "hevc",
	"raw":   "rawvideo",
	"mpg":   "mpeg2video",
	"mxf":   "mpeg2video",
	"drc":   "libx265",
	"swf":   "flv",
	"f4v":   "libx264",
	"m4v":   "libx264",
	"mts":   "mpeg2video",
	"m2v":   "mpeg2video",
	"yuv":   "rawvideo",
}

// movieCodecs maps codec names to [encoder, fallback container].
var movieCodecs = map[string][2]string{
	"av1":        {"libaom-av1", "mkv"},
	"avc":        {"libx264", "mp4"},
	"vp9":        {"libvpx-vp9", "mp4"},
	"h265":       {"libx265", "mkv"},
	"h264":       {"libx264", "mkv"},
	"h263p":      {"h263p", "mkv"},
	"xvid":       {"libxvid", "mp4"},
	"mpeg4":      {"mpeg4", "mp4"},
	"theora":     {"libtheora", "ogv"},
	"mpeg2":      {"mpeg2video", "mp4"},
	"mpeg1":      {"mpeg1video", "mp4"},
	"hevc":       {"libx265", "mkv"},
	"prores":     {"prores", "mkv"},
	"vp8":        {"libvpx", "webm"},
	"huffyuv":    {"huffyuv", "mkv"},
	"ffv1":       {"ffv1", "mkv"},
	"ffvhuff":    {"ffvhuff", "mkv"},
	"v210":       {"v210", "mkv"},
	"v410":       {"v410", "mkv"},
	"v308":       {"v308", "mkv"},
	"v408":       {"v408", "mkv"},
	"zlib":       {"zlib", "mkv"},
	"qtrle":      {"qtrle", "mkv"},
	"snow":       {"snow", "mkv"},
	"svq1":       {"svq1", "mkv"},
	"utvideo":    {"utvideo", "mkv"},
	"cinepak":    {"cinepak", "mkv"},
	"msmpeg4":    {"msmpeg4", "mkv"},
	"h264_nvenc": {"h264_nvenc", "mp4"},
	"vpx":        {"libvpx", "webm"},
	"h264_rgb":   {"libx264rgb", "mkv"},
	"mpeg2video": {"mpeg2video", "mpg"},
	"prores_ks":  {"prores_ks", "mkv"},
	"vc2":        {"vc2", "mkv"},
	"flv1":       {"flv", "flv"},
}

var protocols = map[string]string{
	"hls":  "hls",
	"dash": "dash",
}

// Classify returns the input category of an extension, honoring the fixed
// scan order Audio, Image, Document, Movie, MovieCodec, Protocol.
func Classify(ext string) (domain.Category, bool) {
	for _, cat := range domain.ClassifyOrder {
		if _, ok := lookup(cat, ext); ok {
			return cat, true
		}
	}
	return "", false
}

func lookup(cat domain.Category, key string) (domain.Descriptor, bool) {
	switch cat {
	case domain.CategoryAudio:
		if token, ok := audioFormats[key]; ok {
			return domain.Descriptor{Kind: domain.DescEncoder, Encoder: token}, true
		}
	case domain.CategoryImage:
		if h, ok := imageFormats[key]; ok {
			return domain.Descriptor{Kind: domain.DescHandler, Handler: h}, true
		}
	case domain.CategoryDocument:
		if h, ok := documentFormats[key]; ok {
			return domain.Descriptor{Kind: domain.DescHandler, Handler: h}, true
		}
	case domain.CategoryMovie:
		if token, ok := movieFormats[key]; ok {
			return domain.Descriptor{Kind: domain.DescEncoder, Encoder: token}, true
		}
	case domain.CategoryMovieCodec:
		if pair, ok := movieCodecs[key]; ok {
			return domain.Descriptor{Kind: domain.DescCodecPair, Encoder: pair[0], Fallback: pair[1]}, true
		}
	case domain.CategoryProtocol:
		if name, ok := protocols[key]; ok {
			return domain.Descriptor{Kind: domain.DescHandler, Handler: domain.HandlerProtocol, Encoder: name}, true
		}
	}
	return domain.Descriptor{}, false
}

// ResolveTarget maps a requested target format to its category and
// descriptor, scanning categories in the fixed order.
func ResolveTarget(format string) (domain.Category, domain.Descriptor, error) {
	for _, cat := range domain.ClassifyOrder {
		if desc, ok := lookup(cat, format); ok {
			return cat, desc, nil
		}
	}
	return "", domain.Descriptor{}, fmt.Errorf("%w: %q", domain.ErrUnknownFormat, format)
}

// MovieEncoder returns the encoder token for a movie container extension.
func MovieEncoder(ext string) (string, bool) {
	token, ok := movieFormats[ext]
	return token, ok
}

// IsMovieExt reports whether ext is a known movie container.
func IsMovieExt(ext string) bool {
	_, ok := movieFormats[ext]
	return ok
}

// AudioExtensions returns the known audio extensions, sorted. Used by the
// merge pipeline when probing a movie's directory for an audio sibling.
func AudioExtensions() []string {
	exts := make([]string, 0, len(audioFormats))
	for ext := range audioFormats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// AudioEncoder returns the encoder token for an audio extension.
func AudioEncoder(ext string) (string, bool) {
	token, ok := audioFormats[ext]
	return token, ok
}

// SupportedFormats enumerates every recognized target format, sorted.
func SupportedFormats() []string {
	var formats []string
	for ext := range audioFormats {
		formats = append(formats, ext)
	}
	for ext := range imageFormats {
		formats = append(formats, ext)
	}
	for ext := range documentFormats {
		formats = append(formats, ext)
	}
	for ext := range movieFormats {
		formats = append(formats, ext)
	}
	for name := range movieCodecs {
		formats = append(formats, name)
	}
	for name := range protocols {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return dedupe(formats)
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || sorted[i-1] != s {
			out = append(out, s)
		}
	}
	return out
}

// highHeadroomFormats shift the bitrate scale up one notch.
var highHeadroomFormats = map[string]bool{
	"flac": true, "wav": true, "aac": true, "aiff": true, "eac3": true,
	"dts": true, "au": true, "wv": true, "tta": true, "mlp": true,
}

// AudioBitrate returns the target bitrate for a format/quality pair, or ""
// for an unknown quality (encoder default).
func AudioBitrate(format string, quality domain.Quality) string {
	if highHeadroomFormats[format] {
		switch quality {
		case domain.QualityHigh:
			return "500k"
		case domain.QualityMedium:
			return "320k"
		case domain.QualityLow:
			return "192k"
		}
		return ""
	}
	switch quality {
	case domain.QualityHigh:
		return "320k"
	case domain.QualityMedium:
		return "192k"
	case domain.QualityLow:
		return "128k"
	}
	return ""
}
