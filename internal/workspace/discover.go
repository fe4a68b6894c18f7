package workspace

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/rmlabs/wsm/internal/gitcmd"
	"github.com/rmlabs/wsm/internal/wmerr"
)

// ResolveAlias maps a selector to an absolute path under the root. A
// selector that is a configured project alias resolves to its path;
// anything else is treated as a path relative to the root.
func (c *Config) ResolveAlias(alias string) string {
	if rel, ok := c.Projects[alias]; ok {
		return filepath.Join(c.Root, rel)
	}
	return filepath.Join(c.Root, alias)
}

// FindRepos resolves a set of selectors to child repositories. A
// selector naming a repository selects it; a selector naming a plain
// directory selects every repository directly inside it. No selectors
// means the workspace root itself ("."). Unknown selectors are a
// configuration error. Results are sorted by path so multi-repo
// operations run in a stable order.
func (c *Config) FindRepos(selectors []string) ([]Repo, error) {
	if len(selectors) == 0 {
		selectors = []string{"."}
	}

	seen := make(map[string]bool)
	var repos []Repo

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			repos = append(repos, RepoAt(path))
		}
	}

	for _, sel := range selectors {
		path := c.ResolveAlias(sel)

		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			return nil, wmerr.E(wmerr.KindConfig, "repo selector %q not found", sel)
		}

		if gitcmd.IsRepo(path) {
			add(path)
			continue
		}

		// A container directory: collect its repositories.
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, wmerr.Wrap(wmerr.KindConfig, err, "reading directory %s", path)
		}
		for _, entry := range entries {
			sub := filepath.Join(path, entry.Name())
			if entry.IsDir() && gitcmd.IsRepo(sub) {
				add(sub)
			}
		}
	}

	sort.Slice(repos, func(i, j int) bool { return repos[i].Path < repos[j].Path })
	return repos, nil
}

// FilterKeys returns the key set of the given repositories, used to
// restrict verification to selected repositories.
func FilterKeys(repos []Repo) map[string]bool {
	if len(repos) == 0 {
		return nil
	}
	keys := make(map[string]bool, len(repos))
	for _, r := range repos {
		keys[r.Key()] = true
	}
	return keys
}
