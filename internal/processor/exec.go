package processor

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// run executes bin with args through the configured shell and waits for it.
// Only the exit status is used; output is logged for diagnostics.
func (t *Tools) run(op, bin string, args ...string) error {
	command := shellquote.Join(append([]string{bin}, args...)...)

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(t.Shell, "-c", command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	t.Logger.Debugw("running external tool", "op", op, "command", command)

	err := cmd.Run()

	t.Logger.Debugw("external tool finished",
		"op", op,
		"status", cmd.ProcessState.String(),
		"stdout", strings.TrimSpace(stdout.String()),
		"stderr", strings.TrimSpace(stderr.String()),
	)

	return processError(op, err)
}

// processError maps the result of exec.Cmd.Run onto the adapter taxonomy:
// a non-zero exit becomes KindExit, death by signal KindSignaled and a failure
// to start the process KindIO.
func processError(op string, err error) error {
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return ioError(op, err)
	}

	// ExitCode is -1 when the process was terminated by a signal.
	if code := exitErr.ExitCode(); code >= 0 {
		return &Error{Kind: KindExit, Op: op, Code: code, Err: err}
	}

	return &Error{Kind: KindSignaled, Op: op, Err: ErrSignaled}
}
