package domain

type Category string

const (
	CategoryAudio      Category = "audio"
	CategoryImage      Category = "image"
	CategoryMovie      Category = "movie"
	CategoryMovieCodec Category = "movie_codec"
	CategoryDocument   Category = "document"
	CategoryProtocol   Category = "protocol"
)

// ClassifyOrder is the category scan order used when an extension appears in
// more than one table. It must not be reordered: "ts" for example is both a
// movie container and an HLS segment suffix, and resolves to Movie only
// because Movie precedes Protocol here.
var ClassifyOrder = []Category{
	CategoryAudio,
	CategoryImage,
	CategoryDocument,
	CategoryMovie,
	CategoryMovieCodec,
	CategoryProtocol,
}

// InputCategories are the categories a discovered file can be scheduled
// into. MovieCodec and Protocol describe output intent only.
var InputCategories = []Category{
	CategoryAudio,
	CategoryImage,
	CategoryDocument,
	CategoryMovie,
}

type DescriptorKind int

const (
	// DescEncoder carries an opaque encoder token for the external tool.
	DescEncoder DescriptorKind = iota
	// DescCodecPair carries an encoder token plus a fallback container.
	DescCodecPair
	// DescHandler selects a converter operation for format families that
	// need multi-stage logic.
	DescHandler
)

type HandlerID string

const (
	HandlerFrames    HandlerID = "frames"
	HandlerGIF       HandlerID = "gif"
	HandlerBMP       HandlerID = "bmp"
	HandlerWebP      HandlerID = "webp"
	HandlerMarkdown  HandlerID = "markdown"
	HandlerPDF       HandlerID = "pdf"
	HandlerOffice    HandlerID = "office"
	HandlerSubtitles HandlerID = "subtitles"
	HandlerProtocol  HandlerID = "protocol"
)

// Descriptor is the tagged variant stored per target format in the registry.
type Descriptor struct {
	Kind     DescriptorKind
	Encoder  string
	Fallback string // fallback container, DescCodecPair only
	Handler  HandlerID
}
