// Package gittool shells out to an installed git binary for the operations
// grit does not implement natively (stash, rebase, bisect, worktrees, and
// similar). The repository metadata stays untouched; git only ever sees the
// working directory it is pointed at.
package gittool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// Tool runs git subcommands in a working directory.
type Tool interface {
	// Capture runs git with the given arguments and returns its stdout.
	Capture(ctx context.Context, dir string, args ...string) ([]byte, error)
	// Stream runs git with output wired to the given writers.
	Stream(ctx context.Context, dir string, stdout, stderr io.Writer, args ...string) error
}

// ExecTool invokes the git binary on PATH.
type ExecTool struct {
	// Binary overrides the executable name; empty means "git".
	Binary string
	// Timeout bounds streaming invocations; zero means 5 minutes.
	Timeout time.Duration
}

var _ Tool = (*ExecTool)(nil)

// Delegated is the set of subcommands grit forwards to git rather than
// implementing natively.
var Delegated = map[string]bool{
	"stash":     true,
	"rebase":    true,
	"bisect":    true,
	"worktree":  true,
	"submodule": true,
	"archive":   true,
	"gc":        true,
	"clean":     true,
	"fsck":      true,
}

func (t *ExecTool) binary() string {
	if t.Binary != "" {
		return t.Binary
	}
	return "git"
}

// Capture runs git and collects stdout. On failure the error carries git's
// stderr so callers can surface the real diagnostic.
func (t *ExecTool) Capture(ctx context.Context, dir string, args ...string) ([]byte, error) {
	gitArgs := args
	if strings.TrimSpace(dir) != "" {
		gitArgs = append([]string{"-C", dir}, args...)
	}
	cmd := exec.CommandContext(ctx, t.binary(), gitArgs...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("git %s: %s", strings.Join(args, " "), msg)
	}
	return stdout.Bytes(), nil
}

// Stream runs git with output forwarded to the given writers.
func (t *ExecTool) Stream(ctx context.Context, dir string, stdout, stderr io.Writer, args ...string) error {
	gitArgs := append([]string{}, args...)
	if strings.TrimSpace(dir) != "" {
		gitArgs = append([]string{"-C", dir}, gitArgs...)
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, t.binary(), gitArgs...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return nil
}
