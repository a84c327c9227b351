package pipeline

import "fmt"

const (
	StageResize   = "resize"
	StageOptimize = "optimize png"
	StageGifsicle = "gifsicle"
	StageGif2WebP = "gif2webp"
	StageWebP     = "webp"
	StageAVIF     = "avif"
	StageCleanup  = "cleanup"
)

// StageError records which stage of an orchestration failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err.Error())
}

func (e *StageError) Unwrap() error {
	return e.Err
}
