// Package release implements the versioned release pipeline: building
// repositories, manifesting their artifacts, verifying manifests, and
// orchestrating the full multi-repository release flow.
package release

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/rmlabs/wsm/internal/gitcmd"
	"github.com/rmlabs/wsm/internal/version"
	"github.com/rmlabs/wsm/internal/wmerr"
	"github.com/rmlabs/wsm/internal/workspace"
)

// Mode distinguishes ordinary releases from hotfixes.
type Mode string

const (
	ModeRelease Mode = "release"
	ModeHotfix  Mode = "hotfix"
)

// Source records the provenance of a build.
type Source struct {
	Commit string `json:"commit"`
	Branch string `json:"branch"`
}

// ArtifactRecord holds the recorded content hash of one artifact.
type ArtifactRecord struct {
	SHA256 string `json:"sha256"`
}

// Manifest is the persisted, hash-backed record of one release's
// artifacts and provenance. Immutable once written; verification only
// reads it.
type Manifest struct {
	Repo      string                    `json:"repo"`
	Version   string                    `json:"version"`
	Mode      Mode                      `json:"mode"`
	Timestamp time.Time                 `json:"timestamp"`
	Source    Source                    `json:"source"`
	Artifacts map[string]ArtifactRecord `json:"artifacts"`
}

// ManifestWriter produces release manifests. The clock is injectable
// for tests; NewManifestWriter defaults it to UTC wall time.
type ManifestWriter struct {
	now func() time.Time
	log *zap.Logger
}

// NewManifestWriter returns a writer stamping manifests with UTC time.
func NewManifestWriter(log *zap.Logger) *ManifestWriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &ManifestWriter{
		now: func() time.Time { return time.Now().UTC() },
		log: log,
	}
}

// Write hashes the given artifact files, captures the repository's
// current commit and branch, and persists the manifest inside
// artifactDir. It must run after the build so the recorded commit
// matches what was built.
func (w *ManifestWriter) Write(ctx context.Context, repo gitcmd.Repo, key string, ver version.Version, artifactDir string, artifacts []string, mode Mode) (*Manifest, error) {
	commit, err := repo.Head(ctx)
	if err != nil {
		return nil, err
	}
	branch, err := repo.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}

	records := make(map[string]ArtifactRecord, len(artifacts))
	for _, path := range artifacts {
		sum, err := hashFile(path)
		if err != nil {
			return nil, wmerr.Wrap(wmerr.KindExec, err, "hashing artifact %s", path)
		}
		records[filepath.Base(path)] = ArtifactRecord{SHA256: sum}
	}

	m := &Manifest{
		Repo:      key,
		Version:   ver.String(),
		Mode:      mode,
		Timestamp: w.now(),
		Source:    Source{Commit: commit, Branch: branch},
		Artifacts: records,
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, wmerr.Wrap(wmerr.KindExec, err, "encoding manifest for %s", key)
	}

	path := filepath.Join(artifactDir, workspace.ManifestFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return nil, wmerr.Wrap(wmerr.KindExec, err, "writing manifest %s", path)
	}

	w.log.Info("manifest written",
		zap.String("repo", key),
		zap.String("version", ver.String()),
		zap.Int("artifacts", len(records)))
	return m, nil
}

// hashFile streams a file through sha256 and returns the hex digest.
// Streaming keeps large binary artifacts out of memory.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// readManifest loads a manifest file.
func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
