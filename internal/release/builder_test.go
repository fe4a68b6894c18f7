package release

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rmlabs/wsm/internal/wmerr"
	"github.com/rmlabs/wsm/internal/workspace"
)

// testBuilder returns a Builder with build output captured instead of
// hitting the test process streams.
func testBuilder(t *testing.T) *Builder {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	b := NewBuilder(nil)
	b.Stdout = &bytes.Buffer{}
	b.Stderr = &bytes.Buffer{}
	return b
}

func testRepo(t *testing.T) workspace.Repo {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "node", "abc")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	return workspace.RepoAt(dir)
}

func TestBuildCollectsOutputs(t *testing.T) {
	b := testBuilder(t)
	repo := testRepo(t)
	dest := filepath.Join(t.TempDir(), "out", "node", "abc")

	cfg := workspace.BuildConfig{
		Cmd:     []string{"sh", "-c", "mkdir -p build && echo image > build/fw.bin && echo syms > map.txt"},
		Outputs: []string{"build/fw.bin", "map.txt"},
	}

	outputs, err := b.Build(context.Background(), repo, cfg, dest)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if len(outputs) != 2 {
		t.Fatalf("outputs = %v, want 2 paths", outputs)
	}
	for _, want := range []string{"fw.bin", "map.txt"} {
		data, err := os.ReadFile(filepath.Join(dest, want))
		if err != nil {
			t.Errorf("output %s not copied: %v", want, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("output %s is empty", want)
		}
	}
}

func TestBuildCreatesDestDir(t *testing.T) {
	b := testBuilder(t)
	repo := testRepo(t)

	// Deeply nested, nothing pre-created.
	dest := filepath.Join(t.TempDir(), "a", "b", "c")
	cfg := workspace.BuildConfig{Cmd: []string{"true"}}

	if _, err := b.Build(context.Background(), repo, cfg, dest); err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if info, err := os.Stat(dest); err != nil || !info.IsDir() {
		t.Errorf("dest dir not created: %v", err)
	}

	// Idempotent on an existing directory.
	if _, err := b.Build(context.Background(), repo, cfg, dest); err != nil {
		t.Fatalf("Build() on existing dest failed: %v", err)
	}
}

func TestBuildCommandFailureIsFatal(t *testing.T) {
	b := testBuilder(t)
	repo := testRepo(t)

	cfg := workspace.BuildConfig{Cmd: []string{"sh", "-c", "exit 3"}}
	_, err := b.Build(context.Background(), repo, cfg, t.TempDir())
	if err == nil {
		t.Fatal("Build() succeeded with failing command")
	}
	if !errors.Is(err, wmerr.Exec) {
		t.Errorf("error kind = %v, want exec", wmerr.KindOf(err))
	}
}

func TestBuildMissingOutput(t *testing.T) {
	b := testBuilder(t)
	repo := testRepo(t)

	cfg := workspace.BuildConfig{
		Cmd:     []string{"true"},
		Outputs: []string{"never/created.bin"},
	}

	_, err := b.Build(context.Background(), repo, cfg, t.TempDir())
	if err == nil {
		t.Fatal("Build() succeeded with a missing declared output")
	}
	if !errors.Is(err, wmerr.Exec) {
		t.Errorf("error kind = %v, want exec", wmerr.KindOf(err))
	}
}

func TestBuildEmptyCommand(t *testing.T) {
	b := NewBuilder(nil)
	repo := testRepo(t)

	_, err := b.Build(context.Background(), repo, workspace.BuildConfig{}, t.TempDir())
	if err == nil {
		t.Fatal("Build() succeeded with empty command")
	}
	if !errors.Is(err, wmerr.Config) {
		t.Errorf("error kind = %v, want config", wmerr.KindOf(err))
	}
}
