package gitcmd

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rmlabs/wsm/internal/wmerr"
)

// execGit runs a git command in workDir and returns its stdout. A
// non-zero exit becomes a wmerr execution error with stderr folded into
// the message. Commands run without a timeout: a hung network operation
// hangs the caller, which is the documented behavior for sequential
// release runs. Cancellation, when wanted, comes through ctx.
func execGit(ctx context.Context, workDir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		if detail != "" {
			return stdout.Bytes(), wmerr.Wrap(wmerr.KindExec, err,
				"git %s failed in %s: %s", strings.Join(args, " "), workDir, detail)
		}
		return stdout.Bytes(), wmerr.Wrap(wmerr.KindExec, err,
			"git %s failed in %s", strings.Join(args, " "), workDir)
	}

	return stdout.Bytes(), nil
}

// parseLines splits command output into trimmed, non-empty lines.
func parseLines(output []byte) []string {
	if len(output) == 0 {
		return nil
	}

	lines := strings.Split(string(output), "\n")
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}

	return result
}

// IsRepo reports whether path is the root of a git repository working
// tree. Used during repository discovery, where a plain directory is a
// container of repositories rather than a repository itself.
func IsRepo(path string) bool {
	// .git may be a file for worktrees and submodules; both count.
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}
