// Package executor runs external commands (ffmpeg, the platform file opener).
package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Executor runs external commands.
type Executor interface {
	// Execute runs a command to completion and returns its stdout.
	Execute(ctx context.Context, name string, args ...string) (string, error)
	// Start launches a command without waiting for it to exit.
	Start(name string, args ...string) error
	LookPath(name string) (string, error)
}

type implExecutor struct{}

// New creates an Executor backed by os/exec.
func New() Executor {
	return &implExecutor{}
}

// Execute runs name with args. A failing command's stderr is folded into the error.
func (e *implExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return "", fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, lastLines(stderrStr, 5))
		}
		return "", fmt.Errorf("command '%s' failed: %w", name, err)
	}

	return stdout.String(), nil
}

// Start launches name with args and returns once it is running. The child is
// reaped in the background; its exit status is not reported.
func (e *implExecutor) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("command '%s' failed to start: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// LookPath reports where name would be found in PATH.
func (e *implExecutor) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// lastLines keeps the tail of noisy tool output (ffmpeg prints a banner first).
func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
