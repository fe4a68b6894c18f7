package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rmlabs/wsm/internal/gitcmd"
	"github.com/rmlabs/wsm/internal/ui"
	"github.com/rmlabs/wsm/internal/workspace"
)

// repoGitignore is the default ignore file of a new child repository.
const repoGitignore = "*/.vscode\n"

var newCmd = &cobra.Command{
	Use:   "new <alias> <[group/]name>",
	Short: "Create a child repository and fold it into the superrepo",
	Long: `Create a new child repository under the workspace root.

The repository is initialised on main with an initial commit (.gitkeep
and .gitignore), a dev branch is created and checked out, and the new
repository is immediately synchronised into the superrepo.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		group, name, err := workspace.ParseRepoName(args[1])
		if err != nil {
			return err
		}

		cfg, err := openWorkspace(args[0])
		if err != nil {
			return err
		}

		path := filepath.Join(cfg.Root, group, name)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return err
		}

		r := gitcmd.New(path)
		if err := r.Init(ctx); err != nil {
			return err
		}
		if err := r.CheckoutNew(ctx, workspace.MainBranch); err != nil {
			return err
		}

		if err := os.WriteFile(filepath.Join(path, ".gitkeep"), nil, 0o644); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(path, ".gitignore"), []byte(repoGitignore), 0o644); err != nil {
			return err
		}

		if err := r.AddAll(ctx); err != nil {
			return err
		}
		if err := r.Commit(ctx, "initial commit", gitcmd.CommitOptions{}); err != nil {
			return err
		}
		if err := r.CheckoutNew(ctx, workspace.DevBranch); err != nil {
			return err
		}

		if err := newSynchronizer().Sync(ctx, path, cfg.Root); err != nil {
			return err
		}

		fmt.Println(ui.Statusf("new", "created %s", path))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <alias> [selectors...]",
	Short: "Show branch, binary, LFS and dirty state per repository",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := openWorkspace(args[0])
		if err != nil {
			return err
		}
		repos, err := cfg.FindRepos(args[1:])
		if err != nil {
			return err
		}

		for _, repo := range repos {
			r := gitcmd.New(repo.Path)

			branch, err := r.CurrentBranch(ctx)
			if err != nil {
				return err
			}
			dirty, err := r.HasChanges(ctx)
			if err != nil {
				return err
			}
			binary := fileExists(filepath.Join(repo.Path, workspace.BinaryMarkerFile))
			lfs := fileExists(filepath.Join(repo.Path, ".gitattributes"))

			fmt.Printf("%s | branch: %s | binary: %s | LFS: %s | dirty: %s\n",
				ui.RenderAccent(repo.Key()),
				branch,
				renderBool(binary),
				renderBool(lfs),
				renderDirty(dirty))
		}
		return nil
	},
}

var markBinCmd = &cobra.Command{
	Use:   "mark-bin <alias> [selectors...]",
	Short: "Mark repositories as binary and enable LFS tracking",
	Long: `Mark the selected repositories as binary-content.

Each repository gets a .bin marker file, git-lfs hooks, and LFS
tracking for the standard binary patterns (CAD, PCB, images, PDFs).
The change is committed and the repository synchronised into the
superrepo.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := openWorkspace(args[0])
		if err != nil {
			return err
		}
		repos, err := cfg.FindRepos(args[1:])
		if err != nil {
			return err
		}

		sync := newSynchronizer()
		for _, repo := range repos {
			r := gitcmd.New(repo.Path)

			marker := filepath.Join(repo.Path, workspace.BinaryMarkerFile)
			if err := os.WriteFile(marker, nil, 0o644); err != nil {
				return err
			}
			if err := r.Add(ctx, workspace.BinaryMarkerFile); err != nil {
				return err
			}

			if err := r.LFSInstall(ctx); err != nil {
				return err
			}
			for _, pattern := range workspace.LFSPatterns {
				if err := r.LFSTrack(ctx, pattern); err != nil {
					return err
				}
			}
			if err := r.Add(ctx, ".gitattributes"); err != nil {
				return err
			}

			dirty, err := r.HasChanges(ctx)
			if err != nil {
				return err
			}
			if dirty {
				if err := r.Commit(ctx, "chore: mark repo as binary and enable LFS", gitcmd.CommitOptions{}); err != nil {
					return err
				}
			}

			if err := sync.Sync(ctx, repo.Path, cfg.Root); err != nil {
				return err
			}

			fmt.Println(ui.Statusf("mark-bin", "marked %s as binary", repo.Key()))
		}
		return nil
	},
}

var initSubmodulesCmd = &cobra.Command{
	Use:   "init-submodules <alias> [selectors...]",
	Short: "Initialise submodules in the selected repositories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := openWorkspace(args[0])
		if err != nil {
			return err
		}
		repos, err := cfg.FindRepos(args[1:])
		if err != nil {
			return err
		}

		for _, repo := range repos {
			if err := gitcmd.New(repo.Path).SubmoduleUpdate(ctx); err != nil {
				fmt.Println(ui.Statusf("init-submodules", "%s %s", repo.Key(), ui.RenderDim("(no submodules)")))
				continue
			}
			fmt.Println(ui.Statusf("init-submodules", "%s initialised", repo.Key()))
		}
		return nil
	},
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func renderBool(v bool) string {
	if v {
		return ui.RenderOK("yes")
	}
	return ui.RenderDim("no")
}

func renderDirty(v bool) string {
	if v {
		return ui.RenderFail("yes")
	}
	return ui.RenderOK("no")
}

func init() {
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(markBinCmd)
	rootCmd.AddCommand(initSubmodulesCmd)
}
