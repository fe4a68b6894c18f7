package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rmlabs/wsm/internal/wmerr"
)

// BuildConfig is a repository's declared build procedure: the command
// to run and the output files to capture as artifacts, both relative to
// the repository.
type BuildConfig struct {
	Cmd     []string `json:"cmd"`
	Outputs []string `json:"outputs"`
}

// Config is the per-workspace configuration, fully populated at load
// time and read-only afterwards. Root is resolved during Load; nothing
// injects fields after construction.
type Config struct {
	// Root is the absolute workspace root path.
	Root string

	// Projects maps selector aliases to paths relative to Root.
	Projects map[string]string

	// Builds maps repository keys (group/name) to build configuration.
	Builds map[string]BuildConfig
}

// configFile is the on-disk shape of ConfigFileName.
type configFile struct {
	Projects map[string]string      `json:"projects"`
	Builds   map[string]BuildConfig `json:"builds"`
}

// Load reads the workspace configuration from root and returns a
// Config with Root resolved to an absolute path.
func Load(root string) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, wmerr.Wrap(wmerr.KindConfig, err, "resolving workspace root %q", root)
	}

	path := filepath.Join(absRoot, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wmerr.Wrap(wmerr.KindConfig, err, "reading workspace config %s", path)
	}

	var file configFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, wmerr.Wrap(wmerr.KindConfig, err, "parsing workspace config %s", path)
	}

	cfg := &Config{
		Root:     absRoot,
		Projects: file.Projects,
		Builds:   file.Builds,
	}
	if cfg.Projects == nil {
		cfg.Projects = map[string]string{}
	}
	if cfg.Builds == nil {
		cfg.Builds = map[string]BuildConfig{}
	}
	return cfg, nil
}

// WriteInitial writes an empty workspace configuration at root,
// leaving an existing file untouched.
func WriteInitial(root string) error {
	path := filepath.Join(root, ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := json.MarshalIndent(configFile{
		Projects: map[string]string{},
		Builds:   map[string]BuildConfig{},
	}, "", "  ")
	if err != nil {
		return wmerr.Wrap(wmerr.KindConfig, err, "encoding workspace config")
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return wmerr.Wrap(wmerr.KindConfig, err, "writing workspace config %s", path)
	}
	return nil
}

// BuildFor returns the build configuration for a repository key. The
// second return is false for repositories with no configured build,
// which a release skips without error.
func (c *Config) BuildFor(key string) (BuildConfig, bool) {
	b, ok := c.Builds[key]
	return b, ok
}

// ArtifactRoot returns the artifact repository path under the root.
func (c *Config) ArtifactRoot() string {
	return filepath.Join(c.Root, ArtifactRepoName)
}

// DevBuildRoot returns the dev build output path under the root.
func (c *Config) DevBuildRoot() string {
	return filepath.Join(c.Root, DevBuildDirName)
}
