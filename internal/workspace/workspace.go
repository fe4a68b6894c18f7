// Package workspace models the multi-repository workspace: its
// configuration, its layout conventions, and the discovery of child
// repositories from command-line selectors.
//
// A workspace is a directory tree rooted at a superrepo. Child
// repositories live at group/name paths under the root, the artifact
// repository lives at "artifacts", and dev builds land in "dev_builds".
package workspace

import (
	"path/filepath"
	"strings"

	"github.com/rmlabs/wsm/internal/wmerr"
)

const (
	// MainBranch is the default branch of every repository in the
	// workspace.
	MainBranch = "main"

	// DevBranch is the integration branch feature work starts from.
	DevBranch = "dev"

	// ConfigFileName is the per-workspace configuration file at the
	// workspace root.
	ConfigFileName = ".workspace_config.json"

	// ArtifactRepoName is the directory (and repository) under the
	// root that stores released artifacts and manifests.
	ArtifactRepoName = "artifacts"

	// DevBuildDirName is the directory under the root that receives
	// unversioned dev build outputs.
	DevBuildDirName = "dev_builds"

	// BinaryMarkerFile marks a repository as binary-content.
	BinaryMarkerFile = ".bin"

	// ManifestFileName is the manifest file written next to each
	// release's artifacts.
	ManifestFileName = "manifest.json"
)

// LFSPatterns are the glob patterns tracked via git-lfs when a
// repository is marked as binary.
var LFSPatterns = []string{
	"*.ipt", "*.iam", "*.kicad_pcb", "*.kicad_sch", "*.step",
	"*.stp", "*.stl", "*.pdf", "*.png", "*.jpg", "*.jpeg",
}

// Repo identifies a child repository by its two-part key and its
// location on disk. Immutable once resolved for the duration of an
// operation.
type Repo struct {
	// Group is the containing group directory name; empty for
	// repositories directly under the root.
	Group string

	// Name is the repository directory name.
	Name string

	// Path is the absolute repository path.
	Path string
}

// Key returns the group/name identifier used in configuration and
// manifests.
func (r Repo) Key() string {
	return r.Group + "/" + r.Name
}

// RepoAt builds a Repo handle from a repository path, deriving the key
// from the last two path components.
func RepoAt(path string) Repo {
	return Repo{
		Group: filepath.Base(filepath.Dir(path)),
		Name:  filepath.Base(path),
		Path:  path,
	}
}

// ParseRepoName splits a "group/name" or bare "name" argument. More
// than two segments, or an empty segment, is a configuration error.
func ParseRepoName(fullname string) (group, name string, err error) {
	parts := strings.Split(fullname, "/")
	switch len(parts) {
	case 1:
		name = parts[0]
	case 2:
		group, name = parts[0], parts[1]
		if group == "" {
			return "", "", wmerr.E(wmerr.KindConfig, "invalid repo name %q", fullname)
		}
	default:
		return "", "", wmerr.E(wmerr.KindConfig, "invalid repo name %q", fullname)
	}

	if name == "" {
		return "", "", wmerr.E(wmerr.KindConfig, "invalid repo name %q", fullname)
	}
	return group, name, nil
}
