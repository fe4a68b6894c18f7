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

// rootGitignore keeps dev builds and nested repository metadata out of
// the superrepo.
const rootGitignore = "dev_builds/\n*/.git\n*/.vscode\n"

var superCmd = &cobra.Command{
	Use:   "super",
	Short: "Operate on the aggregating superrepo",
	Long: `Operate on the workspace root repository.

The superrepo embeds every child repository at its path prefix via
subtree merges and carries the workspace configuration.`,
}

var superInitCmd = &cobra.Command{
	Use:   "init <alias> [remote-url]",
	Short: "Initialise the workspace root and the artifact repository",
	Long: `Initialise a workspace at the root registered for the alias.

Creates the superrepo on main, the dev_builds directory, the artifact
repository with an initial empty commit, an empty workspace
configuration and a root .gitignore, then commits the lot. With a
remote URL, origin is registered and main pushed upstream. Everything
already present is left untouched, so re-running is safe.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		root, err := workspace.LookupRoot(flagConfig, args[0])
		if err != nil {
			return err
		}
		if err := os.MkdirAll(root, 0o755); err != nil {
			return err
		}

		super := gitcmd.New(root)
		if !gitcmd.IsRepo(root) {
			if err := super.Init(ctx); err != nil {
				return err
			}
			if err := super.CheckoutNew(ctx, workspace.MainBranch); err != nil {
				return err
			}
		}

		artifactDir := filepath.Join(root, workspace.ArtifactRepoName)
		for _, dir := range []string{filepath.Join(root, workspace.DevBuildDirName), artifactDir} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}

		if !gitcmd.IsRepo(artifactDir) {
			artifacts := gitcmd.New(artifactDir)
			if err := artifacts.Init(ctx); err != nil {
				return err
			}
			if err := artifacts.CheckoutNew(ctx, workspace.MainBranch); err != nil {
				return err
			}
			if err := artifacts.Commit(ctx, "init artifact repo", gitcmd.CommitOptions{AllowEmpty: true}); err != nil {
				return err
			}
		}

		if err := workspace.WriteInitial(root); err != nil {
			return err
		}

		gitignore := filepath.Join(root, ".gitignore")
		if _, err := os.Stat(gitignore); os.IsNotExist(err) {
			if err := os.WriteFile(gitignore, []byte(rootGitignore), 0o644); err != nil {
				return err
			}
		}

		if err := super.AddAll(ctx); err != nil {
			return err
		}
		dirty, err := super.HasChanges(ctx)
		if err != nil {
			return err
		}
		if dirty {
			if err := super.Commit(ctx, "chore: initialize workspace", gitcmd.CommitOptions{}); err != nil {
				return err
			}
		}

		if len(args) == 2 {
			if err := super.AddRemote(ctx, "origin", args[1]); err != nil {
				return err
			}
			if err := super.PushUpstream(ctx, "origin", workspace.MainBranch); err != nil {
				return err
			}
		}

		fmt.Println(ui.Statusf("init", "workspace initialised at %s", root))
		return nil
	},
}

var superSyncCmd = &cobra.Command{
	Use:   "sync <alias> [selectors...]",
	Short: "Fold child repositories into the superrepo",
	Long: `Synchronise the selected repositories into the superrepo.

Each repository's main branch is imported (first time) or merged
(afterwards) under its path prefix via git subtree, and the result
committed. A repository with no new content is skipped without an
empty commit. Merge conflicts abort and are left for the operator.`,
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
			if err := sync.Sync(ctx, repo.Path, cfg.Root); err != nil {
				return err
			}
			fmt.Println(ui.Statusf("sync", "%s", repo.Key()))
		}
		return nil
	},
}

var superCommitCmd = &cobra.Command{
	Use:   "commit <alias>",
	Short: "Commit the workspace configuration and .gitignore",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := openWorkspace(args[0])
		if err != nil {
			return err
		}

		super := gitcmd.New(cfg.Root)
		if err := super.Add(ctx, workspace.ConfigFileName, ".gitignore"); err != nil {
			return err
		}
		dirty, err := super.HasChanges(ctx)
		if err != nil {
			return err
		}
		if !dirty {
			fmt.Println(ui.Statusf("commit", "nothing to commit"))
			return nil
		}
		if err := super.Commit(ctx, "chore: update workspace config and gitignore", gitcmd.CommitOptions{}); err != nil {
			return err
		}

		fmt.Println(ui.Statusf("commit", "workspace config committed"))
		return nil
	},
}

var superPushCmd = &cobra.Command{
	Use:   "push <alias>",
	Short: "Push the superrepo to its remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := openWorkspace(args[0])
		if err != nil {
			return err
		}
		if err := gitcmd.New(cfg.Root).Push(cmd.Context()); err != nil {
			return err
		}
		fmt.Println(ui.Statusf("push", "superrepo pushed"))
		return nil
	},
}

var superPullCmd = &cobra.Command{
	Use:   "pull <alias>",
	Short: "Pull the superrepo from its remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := openWorkspace(args[0])
		if err != nil {
			return err
		}
		if err := gitcmd.New(cfg.Root).Pull(cmd.Context()); err != nil {
			return err
		}
		fmt.Println(ui.Statusf("pull", "superrepo pulled"))
		return nil
	},
}

func init() {
	superCmd.AddCommand(superInitCmd)
	superCmd.AddCommand(superSyncCmd)
	superCmd.AddCommand(superCommitCmd)
	superCmd.AddCommand(superPushCmd)
	superCmd.AddCommand(superPullCmd)
	rootCmd.AddCommand(superCmd)
}
