package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmlabs/wsm/internal/wmerr"
)

// setupWorkspace lays out a workspace root with a config file and the
// given fake repositories (directories containing a .git marker).
func setupWorkspace(t *testing.T, config string, repoPaths ...string) string {
	t.Helper()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ConfigFileName), []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	for _, rel := range repoPaths {
		dir := filepath.Join(root, rel, ".git")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	return root
}

func TestLoad(t *testing.T) {
	root := setupWorkspace(t, `{
  "projects": {"abc": "node/abc"},
  "builds": {"node/abc": {"cmd": ["make", "all"], "outputs": ["out/fw.bin"]}}
}`)

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if !filepath.IsAbs(cfg.Root) {
		t.Errorf("Root = %q, want absolute path", cfg.Root)
	}

	build, ok := cfg.BuildFor("node/abc")
	if !ok {
		t.Fatal("BuildFor(node/abc) not found")
	}
	if len(build.Cmd) != 2 || build.Cmd[0] != "make" {
		t.Errorf("build cmd = %v, want [make all]", build.Cmd)
	}
	if len(build.Outputs) != 1 || build.Outputs[0] != "out/fw.bin" {
		t.Errorf("build outputs = %v", build.Outputs)
	}

	if _, ok := cfg.BuildFor("node/other"); ok {
		t.Error("BuildFor(node/other) found, want miss")
	}
}

func TestLoadMissingConfig(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("Load() succeeded without a config file")
	}
	if !errors.Is(err, wmerr.Config) {
		t.Errorf("error kind = %v, want config", wmerr.KindOf(err))
	}
}

func TestLoadEmptyMaps(t *testing.T) {
	root := setupWorkspace(t, `{}`)
	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Projects == nil || cfg.Builds == nil {
		t.Error("Load() left nil maps")
	}
}

func TestResolveAlias(t *testing.T) {
	root := setupWorkspace(t, `{"projects": {"abc": "node/abc"}}`)
	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}

	if got := cfg.ResolveAlias("abc"); got != filepath.Join(cfg.Root, "node/abc") {
		t.Errorf("ResolveAlias(abc) = %q", got)
	}
	// Unconfigured selectors pass through as root-relative paths.
	if got := cfg.ResolveAlias("node/xyz"); got != filepath.Join(cfg.Root, "node/xyz") {
		t.Errorf("ResolveAlias(node/xyz) = %q", got)
	}
}

func TestFindRepos(t *testing.T) {
	root := setupWorkspace(t, `{"projects": {"abc": "node/abc"}}`,
		"node/abc", "node/xyz", "fw/ctrl")
	cfg, err := Load(root)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		selectors []string
		wantKeys  []string
		wantErr   bool
	}{
		{
			name:      "alias selects one repo",
			selectors: []string{"abc"},
			wantKeys:  []string{"node/abc"},
		},
		{
			name:      "container selects children",
			selectors: []string{"node"},
			wantKeys:  []string{"node/abc", "node/xyz"},
		},
		{
			name:      "duplicates collapse",
			selectors: []string{"abc", "node"},
			wantKeys:  []string{"node/abc", "node/xyz"},
		},
		{
			name:      "mixed groups sorted by path",
			selectors: []string{"node", "fw"},
			wantKeys:  []string{"fw/ctrl", "node/abc", "node/xyz"},
		},
		{
			name:      "unknown selector",
			selectors: []string{"nope"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos, err := cfg.FindRepos(tt.selectors)
			if tt.wantErr {
				if err == nil {
					t.Fatal("FindRepos() succeeded, want error")
				}
				if !errors.Is(err, wmerr.Config) {
					t.Errorf("error kind = %v, want config", wmerr.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("FindRepos() failed: %v", err)
			}

			var keys []string
			for _, r := range repos {
				keys = append(keys, r.Key())
			}
			if len(keys) != len(tt.wantKeys) {
				t.Fatalf("keys = %v, want %v", keys, tt.wantKeys)
			}
			for i := range keys {
				if keys[i] != tt.wantKeys[i] {
					t.Errorf("keys = %v, want %v", keys, tt.wantKeys)
					break
				}
			}
		})
	}
}

func TestParseRepoName(t *testing.T) {
	tests := []struct {
		input   string
		group   string
		name    string
		wantErr bool
	}{
		{input: "abc", group: "", name: "abc"},
		{input: "node/abc", group: "node", name: "abc"},
		{input: "a/b/c", wantErr: true},
		{input: "/abc", wantErr: true},
		{input: "node/", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			group, name, err := ParseRepoName(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRepoName(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRepoName(%q) failed: %v", tt.input, err)
			}
			if group != tt.group || name != tt.name {
				t.Errorf("ParseRepoName(%q) = (%q, %q), want (%q, %q)",
					tt.input, group, name, tt.group, tt.name)
			}
		})
	}
}

func TestRepoKey(t *testing.T) {
	r := RepoAt("/ws/node/abc")
	if r.Key() != "node/abc" {
		t.Errorf("Key() = %q, want node/abc", r.Key())
	}
}

func TestWriteInitial(t *testing.T) {
	root := t.TempDir()
	if err := WriteInitial(root); err != nil {
		t.Fatalf("WriteInitial() failed: %v", err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load() after WriteInitial failed: %v", err)
	}
	if len(cfg.Projects) != 0 || len(cfg.Builds) != 0 {
		t.Error("initial config not empty")
	}

	// Existing file is left untouched.
	custom := []byte(`{"projects": {"x": "node/x"}, "builds": {}}`)
	path := filepath.Join(root, ConfigFileName)
	if err := os.WriteFile(path, custom, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteInitial(root); err != nil {
		t.Fatalf("WriteInitial() second call failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(custom) {
		t.Error("WriteInitial() overwrote an existing config")
	}
}

func TestFilterKeys(t *testing.T) {
	if FilterKeys(nil) != nil {
		t.Error("FilterKeys(nil) != nil")
	}

	keys := FilterKeys([]Repo{RepoAt("/ws/node/abc"), RepoAt("/ws/fw/ctrl")})
	if !keys["node/abc"] || !keys["fw/ctrl"] || len(keys) != 2 {
		t.Errorf("FilterKeys() = %v", keys)
	}
}
