package converter

import (
	"fmt"

	"github.com/xbanchon/image-conversion-service/internal/pipeline"
	"github.com/xbanchon/image-conversion-service/internal/processor"
)

type Side int

const (
	Input Side = iota
	Output
)

func (s Side) String() string {
	if s == Input {
		return "input"
	}
	return "output"
}

type MissingExtensionError struct {
	Side Side
	Path string
}

func (e *MissingExtensionError) Error() string {
	return fmt.Sprintf("%s file has no extension: %q", e.Side, e.Path)
}

// UnsupportedConversionError names the lower-cased extensions as given, not
// their normalized formats.
type UnsupportedConversionError struct {
	From string
	To   string
}

func (e *UnsupportedConversionError) Error() string {
	return fmt.Sprintf("unsupported conversion from %s to %s", e.From, e.To)
}

type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type PipelineError struct {
	Pipeline pipeline.ID
	Err      error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("error converting %s: %s", e.Pipeline, e.Err.Error())
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Cause kinds surfaced by failed pipelines.
type Kind = processor.Kind

const (
	KindIO                     = processor.KindIO
	KindDecode                 = processor.KindDecode
	KindEncode                 = processor.KindEncode
	KindUnsupportedPixelLayout = processor.KindUnsupportedPixelLayout
	KindExit                   = processor.KindExit
	KindSignaled               = processor.KindSignaled
)

// StageError is the per-stage wrapper found inside a PipelineError.
type StageError = pipeline.StageError

// Cause reports the kind of the innermost adapter failure in err.
func Cause(err error) (Kind, bool) {
	return processor.KindOf(err)
}

// ExitCode reports the exit status of a failed external tool.
func ExitCode(err error) (int, bool) {
	return processor.ExitCode(err)
}
