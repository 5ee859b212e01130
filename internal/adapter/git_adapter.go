package adapter

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

// GitAdapter abstracts git queries used for changed-file selection.
type GitAdapter interface {
	// ChangedCFiles returns the .c files touched by the last commit, as
	// absolute paths. Any git failure yields an empty slice, never an error:
	// changed-file selection is best-effort.
	ChangedCFiles(ctx context.Context, repoPath m.Path) []m.Path
}

// LocalGitAdapter runs the git binary through os/exec.
type LocalGitAdapter struct {
	timeout time.Duration
}

// NewLocalGitAdapter constructs a LocalGitAdapter with a default 30s timeout.
func NewLocalGitAdapter() *LocalGitAdapter {
	return &LocalGitAdapter{
		timeout: 30 * time.Second,
	}
}

// ChangedCFiles diffs HEAD~1 against HEAD and keeps .c files that still exist.
func (a *LocalGitAdapter) ChangedCFiles(ctx context.Context, repoPath m.Path) []m.Path {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "diff", "--name-only", "HEAD~1", "HEAD")
	cmd.Dir = string(repoPath)

	var stdout bytes.Buffer

	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return nil
	}

	var changed []m.Path

	fs := NewLocalSourceFSAdapter()

	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || filepath.Ext(line) != ".c" {
			continue
		}

		full := fs.JoinPath(string(repoPath), line)
		if fs.FileExists(full) {
			changed = append(changed, full)
		}
	}

	return changed
}
