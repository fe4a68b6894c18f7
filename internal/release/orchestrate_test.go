package release

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rmlabs/wsm/internal/gitcmd"
	"github.com/rmlabs/wsm/internal/subtree"
	"github.com/rmlabs/wsm/internal/version"
	"github.com/rmlabs/wsm/internal/wmerr"
	"github.com/rmlabs/wsm/internal/workspace"
)

// fakeWorkspace is a scripted workspace: a real directory tree with
// fake git repositories resolved through a shared opener.
type fakeWorkspace struct {
	cfg   *workspace.Config
	fakes map[string]*gitcmd.Fake
}

// newFakeWorkspace lays out a workspace with one buildable repository
// node/abc whose build produces fw.bin without running anything.
func newFakeWorkspace(t *testing.T) *fakeWorkspace {
	t.Helper()

	root := t.TempDir()
	repoDir := filepath.Join(root, "node", "abc")
	if err := os.MkdirAll(repoDir, 0o755); err != nil {
		t.Fatal(err)
	}
	// The build command is a no-op; the output already exists.
	if err := os.WriteFile(filepath.Join(repoDir, "fw.bin"), []byte("image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, workspace.ArtifactRepoName), 0o755); err != nil {
		t.Fatal(err)
	}

	return &fakeWorkspace{
		cfg: &workspace.Config{
			Root:     root,
			Projects: map[string]string{},
			Builds: map[string]workspace.BuildConfig{
				"node/abc": {Cmd: []string{"true"}, Outputs: []string{"fw.bin"}},
			},
		},
		fakes: map[string]*gitcmd.Fake{},
	}
}

// open is the gitcmd.Opener, returning one stable fake per path.
func (w *fakeWorkspace) open(path string) gitcmd.Repo {
	if f, ok := w.fakes[path]; ok {
		return f
	}
	f := gitcmd.NewFake(path)
	w.fakes[path] = f
	return f
}

// fake returns the fake for a path relative to the root, creating it
// so scripting can happen before the orchestrator touches it.
func (w *fakeWorkspace) fake(rel string) *gitcmd.Fake {
	path := w.cfg.Root
	if rel != "." {
		path = filepath.Join(w.cfg.Root, rel)
	}
	w.open(path)
	return w.fakes[path]
}

func (w *fakeWorkspace) orchestrator() *Orchestrator {
	b := NewBuilder(nil)
	b.Stdout = &bytes.Buffer{}
	b.Stderr = &bytes.Buffer{}

	mw := NewManifestWriter(nil)
	mw.now = func() time.Time { return time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC) }

	sync := subtree.New(w.open, workspace.MainBranch, nil)
	return NewOrchestrator(w.cfg, w.open, b, mw, sync, nil)
}

func (w *fakeWorkspace) repos() []workspace.Repo {
	return []workspace.Repo{workspace.RepoAt(filepath.Join(w.cfg.Root, "node", "abc"))}
}

func TestReleaseFlow(t *testing.T) {
	w := newFakeWorkspace(t)
	repo := w.fake("node/abc")
	repo.TagList = []string{"v0.1.0"}

	ver, err := w.orchestrator().Release(context.Background(), w.repos(), version.BumpMinor)
	if err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	if ver.String() != "v0.2.0" {
		t.Errorf("version = %s, want v0.2.0", ver)
	}

	// Source repo: updated, tagged, tags pushed.
	if !repo.CalledWith("Checkout main") {
		t.Errorf("no checkout of main, calls: %v", repo.Calls)
	}
	if !repo.CalledWith("Pull") {
		t.Errorf("no pull, calls: %v", repo.Calls)
	}
	if !repo.CalledWith("Tag v0.2.0") {
		t.Errorf("no tag, calls: %v", repo.Calls)
	}
	if !repo.CalledWith("PushTags") {
		t.Errorf("no tag push, calls: %v", repo.Calls)
	}

	// Manifest persisted under artifact-root/key/version.
	manifestPath := filepath.Join(w.cfg.ArtifactRoot(), "node/abc", "v0.2.0", workspace.ManifestFileName)
	m, err := readManifest(manifestPath)
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	if m.Version != "v0.2.0" || m.Mode != ModeRelease {
		t.Errorf("manifest = %+v", m)
	}
	if _, ok := m.Artifacts["fw.bin"]; !ok {
		t.Errorf("manifest artifacts = %+v", m.Artifacts)
	}

	// Artifact repo committed and pushed.
	artifacts := w.fake(workspace.ArtifactRepoName)
	if !artifacts.CalledWith("AddAll") {
		t.Errorf("artifact repo not staged, calls: %v", artifacts.Calls)
	}
	if !artifacts.CalledWith("Commit release: v0.2.0") {
		t.Errorf("artifact repo not committed, calls: %v", artifacts.Calls)
	}
	if !artifacts.CalledWith("Push") {
		t.Errorf("artifact repo not pushed, calls: %v", artifacts.Calls)
	}

	// Artifact repo folded into the workspace root.
	super := w.fake(".")
	if !super.CalledWith("SubtreeAdd artifacts") {
		t.Errorf("artifact repo not synced to root, calls: %v", super.Calls)
	}
}

func TestReleaseFromNoTags(t *testing.T) {
	w := newFakeWorkspace(t)

	ver, err := w.orchestrator().Release(context.Background(), w.repos(), version.BumpMinor)
	if err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	if ver.String() != "v0.1.0" {
		t.Errorf("version = %s, want v0.1.0", ver)
	}
}

func TestHotfixFlow(t *testing.T) {
	w := newFakeWorkspace(t)
	repo := w.fake("node/abc")
	repo.TagList = []string{"v1.2.3", "v1.2.3-hotfix.1"}

	base, err := version.Parse("v1.2.3")
	if err != nil {
		t.Fatal(err)
	}

	ver, err := w.orchestrator().Hotfix(context.Background(), w.repos(), base)
	if err != nil {
		t.Fatalf("Hotfix() failed: %v", err)
	}
	if ver.String() != "v1.2.3-hotfix.2" {
		t.Errorf("version = %s, want v1.2.3-hotfix.2", ver)
	}

	manifestPath := filepath.Join(w.cfg.ArtifactRoot(), "node/abc", ver.String(), workspace.ManifestFileName)
	m, err := readManifest(manifestPath)
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}
	if m.Mode != ModeHotfix {
		t.Errorf("mode = %s, want hotfix", m.Mode)
	}

	artifacts := w.fake(workspace.ArtifactRepoName)
	if !artifacts.CalledWith("Commit hotfix: v1.2.3-hotfix.2") {
		t.Errorf("artifact commit message wrong, calls: %v", artifacts.Calls)
	}
}

func TestReleaseSkipsReposWithoutBuild(t *testing.T) {
	w := newFakeWorkspace(t)

	// Add a second repository with no build configuration.
	docsDir := filepath.Join(w.cfg.Root, "docs", "site")
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	docs := w.fake("docs/site")

	repos := append(w.repos(), workspace.RepoAt(docsDir))
	if _, err := w.orchestrator().Release(context.Background(), repos, version.BumpPatch); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}

	// Updated like every repo, but never built or tagged.
	if !docs.CalledWith("Checkout main") {
		t.Errorf("unbuilt repo not updated, calls: %v", docs.Calls)
	}
	if docs.CalledWith("Tag") {
		t.Errorf("unbuilt repo tagged, calls: %v", docs.Calls)
	}
}

func TestReleaseAbortsBeforeBuildOnPullFailure(t *testing.T) {
	w := newFakeWorkspace(t)
	repo := w.fake("node/abc")
	repo.FailWith("Pull", "remote unreachable")

	_, err := w.orchestrator().Release(context.Background(), w.repos(), version.BumpMinor)
	if err == nil {
		t.Fatal("Release() succeeded through a pull failure")
	}
	if !errors.Is(err, wmerr.Exec) {
		t.Errorf("error kind = %v, want exec", wmerr.KindOf(err))
	}

	if repo.CalledWith("Tag") {
		t.Errorf("tagged after failed pull, calls: %v", repo.Calls)
	}
	if _, err := os.Stat(filepath.Join(w.cfg.ArtifactRoot(), "node/abc")); !os.IsNotExist(err) {
		t.Error("artifacts written despite aborted release")
	}
}

func TestReleaseAbortsAfterPushFailure(t *testing.T) {
	w := newFakeWorkspace(t)
	artifacts := w.fake(workspace.ArtifactRepoName)
	artifacts.FailWith("Push", "remote rejected")

	_, err := w.orchestrator().Release(context.Background(), w.repos(), version.BumpMinor)
	if err == nil {
		t.Fatal("Release() succeeded through an artifact push failure")
	}

	// The subtree sync never runs; earlier side effects stay in place.
	super := w.fake(".")
	if super.CalledWith("SubtreeAdd") || super.CalledWith("SubtreePull") {
		t.Errorf("subtree sync ran after failure, calls: %v", super.Calls)
	}
	repo := w.fake("node/abc")
	if !repo.CalledWith("Tag") {
		t.Error("expected the already-completed tag to remain")
	}
}

func TestReleaseNoRepos(t *testing.T) {
	w := newFakeWorkspace(t)

	_, err := w.orchestrator().Release(context.Background(), nil, version.BumpMinor)
	if err == nil {
		t.Fatal("Release() succeeded with no repositories")
	}
	if !errors.Is(err, wmerr.Config) {
		t.Errorf("error kind = %v, want config", wmerr.KindOf(err))
	}
}

func TestDevBuild(t *testing.T) {
	w := newFakeWorkspace(t)

	if err := w.orchestrator().DevBuild(context.Background(), w.repos()); err != nil {
		t.Fatalf("DevBuild() failed: %v", err)
	}

	out := filepath.Join(w.cfg.DevBuildRoot(), "node/abc", "fw.bin")
	if _, err := os.Stat(out); err != nil {
		t.Errorf("dev build output missing: %v", err)
	}

	// No manifest, no tag.
	if _, err := os.Stat(filepath.Join(w.cfg.DevBuildRoot(), "node/abc", workspace.ManifestFileName)); !os.IsNotExist(err) {
		t.Error("dev build wrote a manifest")
	}
	repo := w.fake("node/abc")
	if repo.CalledWith("Tag") {
		t.Errorf("dev build tagged the repo, calls: %v", repo.Calls)
	}
}
