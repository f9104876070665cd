package port

// ImageEngine covers still-image work that never needs the external
// transcoder: re-encoding, gif expansion and assembly.
type ImageEngine interface {
	Reencode(input, output string) error
	Dimensions(path string) (width, height int, err error)
	// GIFFrames expands an animated gif into outDir as zero-padded
	// "<stem>_<n>.<ext>" stills, returning the paths in frame order.
	GIFFrames(input, outDir, stem, ext string) ([]string, error)
	// AssembleGIF builds one animated gif from stills, one frame each,
	// with the given per-frame delay in hundredths of a second.
	AssembleGIF(frames []string, output string, delay int) error
	// GridGIF lays rows of images out as a single-frame grid gif.
	GridGIF(rows [][]string, output string) error
}
