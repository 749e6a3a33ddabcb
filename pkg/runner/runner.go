package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes an external process and waits for it to exit.
// A non-zero exit code is reported in the Result, never as an error.
// The error is only set when the process could not be run at all.
type Runner interface {
	Run(ctx context.Context, argv []string, captureStderr bool) (Result, error)
}

type ExecRunner struct{}

var _ Runner = &ExecRunner{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, argv []string, captureStderr bool) (Result, error) {
	if len(argv) == 0 {
		return Result{}, errors.New("empty command")
	}

	log := zap.S().Named("runner")
	log.Debugw("running command", "argv", argv)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	if captureStderr {
		cmd.Stderr = &stderr
	}

	result := Result{}
	err := cmd.Run()
	result.Stdout = stdout.Bytes()
	result.Stderr = stderr.Bytes()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return result, fmt.Errorf("failed to run %q: %w", argv[0], err)
	}

	for _, line := range splitLines(result.Stdout) {
		log.Infof("stdout: %s", line)
	}
	for _, line := range splitLines(result.Stderr) {
		log.Debugf("stderr: %s", line)
	}

	return result, nil
}

func splitLines(b []byte) []string {
	if len(b) == 0 {
		return nil
	}
	s := strings.ReplaceAll(string(b), "\r", "")
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
