package release

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/rmlabs/wsm/internal/wmerr"
	"github.com/rmlabs/wsm/internal/workspace"
)

// Builder runs a repository's declared build command and collects the
// declared output files into a destination directory.
type Builder struct {
	log *zap.Logger

	// Stdout and Stderr receive the build command's output. They
	// default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// NewBuilder returns a Builder streaming build output to the process
// stdout/stderr.
func NewBuilder(log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{log: log, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Build executes the configured command with the repository as working
// directory, creates destDir, and copies each declared output into it,
// preserving filenames. It returns the destination paths of the copied
// outputs.
//
// A non-zero exit from the build command, or a declared output missing
// afterwards, is an execution error; nothing is retried or rolled
// back.
func (b *Builder) Build(ctx context.Context, repo workspace.Repo, cfg workspace.BuildConfig, destDir string) ([]string, error) {
	if len(cfg.Cmd) == 0 {
		return nil, wmerr.E(wmerr.KindConfig, "empty build command for %s", repo.Key())
	}

	b.log.Info("build",
		zap.String("repo", repo.Key()),
		zap.String("cmd", strings.Join(cfg.Cmd, " ")))

	cmd := exec.CommandContext(ctx, cfg.Cmd[0], cfg.Cmd[1:]...)
	cmd.Dir = repo.Path
	cmd.Stdout = b.Stdout
	cmd.Stderr = b.Stderr

	if err := cmd.Run(); err != nil {
		return nil, wmerr.Wrap(wmerr.KindExec, err,
			"build command %q failed in %s", strings.Join(cfg.Cmd, " "), repo.Key())
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, wmerr.Wrap(wmerr.KindExec, err, "creating artifact directory %s", destDir)
	}

	var outputs []string
	for _, out := range cfg.Outputs {
		src := filepath.Join(repo.Path, out)
		dst := filepath.Join(destDir, filepath.Base(out))

		if err := copyFile(src, dst); err != nil {
			return nil, wmerr.Wrap(wmerr.KindExec, err,
				"declared output %s missing after build of %s", out, repo.Key())
		}
		outputs = append(outputs, dst)
	}

	return outputs, nil
}

// copyFile copies src to dst, truncating any existing file.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
