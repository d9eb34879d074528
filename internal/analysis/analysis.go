// Package analysis runs the external type analysis process and hands back its
// raw output.
package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Result is what the analysis process produced: its exit code and output.
type Result struct {
	Code   int
	Output string
	Stderr string
}

// ProcessError reports a non-zero exit of the analysis process.
type ProcessError struct {
	Code   int
	Stderr string
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("analysis process exited with error code %d", e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLine(s)
	}
	return msg
}

// Check returns a *ProcessError unless the process succeeded. Callers must
// check the result before extracting errors from its output.
func (r Result) Check() error {
	if r.Code != 0 {
		return &ProcessError{Code: r.Code, Stderr: r.Stderr}
	}
	return nil
}

// Run executes command in dir and collects its output. A non-zero exit is not
// an error here; it is recorded in Result.Code for Check to report.
func Run(ctx context.Context, command []string, dir string) (Result, error) {
	if len(command) == 0 {
		return Result{}, errors.New("no analysis command configured")
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Output: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) && ctx.Err() == nil {
			result.Code = exitError.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("failed to run %s: %w", command[0], err)
	}
	return result, nil
}

// ReadResult wraps an already produced payload, e.g. a saved output file, as
// a successful Result.
func ReadResult(r io.Reader) (Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read analysis output: %w", err)
	}
	return Result{Output: string(data)}, nil
}

// DirectoriesToAnalyze returns the filter roots relative to cwd, sorted and
// without duplicates.
func DirectoriesToAnalyze(filterRoots []string, cwd string) []string {
	seen := make(map[string]bool, len(filterRoots))
	var dirs []string
	for _, root := range filterRoots {
		rel, err := filepath.Rel(cwd, root)
		if err != nil {
			rel = root
		}
		if !seen[rel] {
			seen[rel] = true
			dirs = append(dirs, rel)
		}
	}
	sort.Strings(dirs)
	return dirs
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
