package release

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/rmlabs/wsm/internal/workspace"
)

// CheckStatus is the outcome of verifying one artifact.
type CheckStatus string

const (
	// StatusOK means the artifact exists and its hash matches.
	StatusOK CheckStatus = "ok"

	// StatusMissing means a manifested artifact file is absent.
	StatusMissing CheckStatus = "missing"

	// StatusMismatch means the recomputed hash differs from the
	// recorded one.
	StatusMismatch CheckStatus = "mismatch"

	// StatusUnreadable means the manifest itself could not be read or
	// parsed.
	StatusUnreadable CheckStatus = "unreadable"
)

// Check is the result of one artifact (or manifest) verification.
type Check struct {
	// Repo is the manifest's repository key.
	Repo string

	// Version is the manifest's recorded version.
	Version string

	// Artifact is the artifact filename; empty for manifest-level
	// failures.
	Artifact string

	// Status is the verification outcome.
	Status CheckStatus

	// Detail carries the failure reason for non-ok checks.
	Detail string
}

// Failed reports whether this check is a failure.
func (c Check) Failed() bool {
	return c.Status != StatusOK
}

// Report aggregates every check of a verification run.
type Report struct {
	Checks []Check
}

// Failed reports whether any individual check failed.
func (r *Report) Failed() bool {
	for _, c := range r.Checks {
		if c.Failed() {
			return true
		}
	}
	return false
}

// Verifier revalidates persisted manifests against the artifact files
// on disk. It is read-only and independent of the release flow.
type Verifier struct {
	root string
	log  *zap.Logger
}

// NewVerifier returns a Verifier scanning the given artifact
// repository root.
func NewVerifier(artifactRoot string, log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{root: artifactRoot, log: log}
}

// Verify discovers every manifest under the artifact root, keeps those
// recording the requested version (and, when repoFilter is non-nil,
// a repository key in the filter), and checks every recorded artifact:
// present and hash-matching. The scan never halts early; every
// discoverable manifest is evaluated so one failure cannot hide
// another.
func (v *Verifier) Verify(ctx context.Context, ver string, repoFilter map[string]bool) (*Report, error) {
	var manifests []string
	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == workspace.ManifestFileName {
			manifests = append(manifests, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			// No artifact repository yet: nothing to verify.
			return &Report{}, nil
		}
		return nil, err
	}
	sort.Strings(manifests)

	report := &Report{}
	for _, path := range manifests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v.verifyManifest(path, ver, repoFilter, report)
	}
	return report, nil
}

// verifyManifest appends checks for a single manifest file. Skipped
// manifests (wrong version, filtered repo) contribute nothing, neither
// pass nor fail.
func (v *Verifier) verifyManifest(path, ver string, repoFilter map[string]bool, report *Report) {
	m, err := readManifest(path)
	if err != nil {
		report.Checks = append(report.Checks, Check{
			Repo:    path,
			Version: ver,
			Status:  StatusUnreadable,
			Detail:  err.Error(),
		})
		return
	}

	if m.Version != ver {
		return
	}
	if repoFilter != nil && !repoFilter[m.Repo] {
		return
	}

	dir := filepath.Dir(path)

	names := make([]string, 0, len(m.Artifacts))
	for name := range m.Artifacts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		record := m.Artifacts[name]
		check := Check{Repo: m.Repo, Version: m.Version, Artifact: name}

		sum, err := hashFile(filepath.Join(dir, name))
		switch {
		case err != nil:
			check.Status = StatusMissing
			check.Detail = err.Error()
		case sum != record.SHA256:
			check.Status = StatusMismatch
			check.Detail = "recorded " + record.SHA256 + ", computed " + sum
		default:
			check.Status = StatusOK
		}

		if check.Failed() {
			v.log.Warn("artifact check failed",
				zap.String("repo", check.Repo),
				zap.String("artifact", name),
				zap.String("status", string(check.Status)))
		}
		report.Checks = append(report.Checks, check)
	}
}
