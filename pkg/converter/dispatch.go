package converter

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/xbanchon/image-conversion-service/internal/pipeline"
	"github.com/xbanchon/image-conversion-service/internal/processor"
)

type pipelineFunc func(*pipeline.Runner, processor.Options) error

var pipelines = map[pipeline.ID]pipelineFunc{
	{From: pipeline.JPEG, To: pipeline.JPEG}: (*pipeline.Runner).JPEGToJPEG,
	{From: pipeline.PNG, To: pipeline.JPEG}:  (*pipeline.Runner).PNGToJPEG,
	{From: pipeline.PNG, To: pipeline.PNG}:   (*pipeline.Runner).PNGToPNG,
	{From: pipeline.GIF, To: pipeline.GIF}:   (*pipeline.Runner).GIFToGIF,
	{From: pipeline.GIF, To: pipeline.WebP}:  (*pipeline.Runner).GIFToWebP,
	{From: pipeline.PNG, To: pipeline.WebP}:  (*pipeline.Runner).PNGToWebP,
	{From: pipeline.JPEG, To: pipeline.WebP}: (*pipeline.Runner).JPEGToWebP,
	{From: pipeline.WebP, To: pipeline.WebP}: (*pipeline.Runner).WebPToWebP,
	{From: pipeline.PNG, To: pipeline.AVIF}:  (*pipeline.Runner).PNGToAVIF,
}

// Resolve picks the pipeline for a pair of paths from their extensions only.
// It never touches the filesystem.
func Resolve(inputPath, outputPath string) (pipeline.ID, error) {
	in, ok := extension(inputPath)
	if !ok {
		return pipeline.ID{}, &MissingExtensionError{Side: Input, Path: inputPath}
	}

	out, ok := extension(outputPath)
	if !ok {
		return pipeline.ID{}, &MissingExtensionError{Side: Output, Path: outputPath}
	}

	from, fromOK := pipeline.ParseFormat(in)
	to, toOK := pipeline.ParseFormat(out)
	id := pipeline.ID{From: from, To: to}

	if _, ok := pipelines[id]; !fromOK || !toOK || !ok {
		return pipeline.ID{}, &UnsupportedConversionError{From: in, To: out}
	}

	return id, nil
}

// Pipelines lists the supported conversions, sorted by name.
func Pipelines() []pipeline.ID {
	ids := make([]pipeline.ID, 0, len(pipelines))
	for id := range pipelines {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

// extension returns the lower-cased extension of the file name in path.
// Names without a dot, dotfiles and names ending in a dot have none.
func extension(path string) (string, bool) {
	base := filepath.Base(path)

	i := strings.LastIndexByte(base, '.')
	if i <= 0 || i == len(base)-1 {
		return "", false
	}

	return strings.ToLower(base[i+1:]), true
}
