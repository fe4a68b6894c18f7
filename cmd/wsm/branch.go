package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmlabs/wsm/internal/gitcmd"
	"github.com/rmlabs/wsm/internal/ui"
	"github.com/rmlabs/wsm/internal/wmerr"
	"github.com/rmlabs/wsm/internal/workspace"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Branch conventions across workspace repositories",
	Long: `Manage branches across workspace repositories.

Feature branches (feature/<name>) start from and finish into dev.
Hotfix branches (hotfix/<name>) start from main and finish into both
main and dev.`,
}

var branchCheckoutCmd = &cobra.Command{
	Use:   "checkout <alias> <branch> [selectors...]",
	Short: "Check out a branch in every selected repository",
	Long: `Check out the named branch in every selected repository.

The branch must exist in all of them; a repository missing the branch
is an error and aborts before any checkout.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		branch := args[1]

		cfg, err := openWorkspace(args[0])
		if err != nil {
			return err
		}
		repos, err := cfg.FindRepos(args[2:])
		if err != nil {
			return err
		}

		for _, repo := range repos {
			r := gitcmd.New(repo.Path)
			ok, err := r.BranchExists(ctx, branch)
			if err != nil {
				return err
			}
			if !ok {
				return wmerr.E(wmerr.KindConfig, "branch %s does not exist in %s", branch, repo.Key())
			}
		}

		for _, repo := range repos {
			if err := gitcmd.New(repo.Path).Checkout(ctx, branch); err != nil {
				return err
			}
			fmt.Println(ui.Statusf("checkout", "%s -> %s", repo.Key(), branch))
		}
		return nil
	},
}

var branchSwitchCmd = &cobra.Command{
	Use:   "switch <alias> <branch> [selectors...]",
	Short: "Check out a branch where it exists, skip the rest",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		branch := args[1]

		cfg, err := openWorkspace(args[0])
		if err != nil {
			return err
		}
		repos, err := cfg.FindRepos(args[2:])
		if err != nil {
			return err
		}

		for _, repo := range repos {
			r := gitcmd.New(repo.Path)
			ok, err := r.BranchExists(ctx, branch)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println(ui.Statusf("switch", "%s %s", repo.Key(), ui.RenderDim("(no "+branch+")")))
				continue
			}
			if err := r.Checkout(ctx, branch); err != nil {
				return err
			}
			fmt.Println(ui.Statusf("switch", "%s -> %s", repo.Key(), branch))
		}
		return nil
	},
}

var branchCurrentCmd = &cobra.Command{
	Use:   "current <alias> [selectors...]",
	Short: "Show the current branch of every selected repository",
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
			branch, err := gitcmd.New(repo.Path).CurrentBranch(ctx)
			if err != nil {
				return err
			}
			if branch == "" {
				branch = "(detached)"
			}
			fmt.Printf("%s -> %s\n", repo.Key(), ui.RenderAccent(branch))
		}
		return nil
	},
}

var branchListCmd = &cobra.Command{
	Use:   "list <alias> <selector>",
	Short: "List all branches of one repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		repo, err := selectOneRepo(args[0], args[1])
		if err != nil {
			return err
		}

		branches, err := gitcmd.New(repo.Path).Branches(ctx)
		if err != nil {
			return err
		}
		current, err := gitcmd.New(repo.Path).CurrentBranch(ctx)
		if err != nil {
			return err
		}

		for _, b := range branches {
			if b == current {
				fmt.Printf("* %s\n", ui.RenderAccent(b))
			} else {
				fmt.Printf("  %s\n", b)
			}
		}
		return nil
	},
}

var branchStartCmd = &cobra.Command{
	Use:   "start <alias> <feature|hotfix> <name> <selector>",
	Short: "Start (or resume) a feature or hotfix branch",
	Long: `Start a feature or hotfix branch in one repository.

The base branch (dev for features, main for hotfixes) is checked out
and pulled first. An existing branch of the same name is resumed
instead of recreated.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		branch, base, err := conventionBranch(args[1], args[2])
		if err != nil {
			return err
		}

		repo, err := selectOneRepo(args[0], args[3])
		if err != nil {
			return err
		}
		r := gitcmd.New(repo.Path)

		if err := r.Checkout(ctx, base); err != nil {
			return err
		}
		if err := r.Pull(ctx); err != nil {
			return err
		}

		exists, err := r.BranchExists(ctx, branch)
		if err != nil {
			return err
		}
		if exists {
			if err := r.Checkout(ctx, branch); err != nil {
				return err
			}
			fmt.Println(ui.Statusf("resume", "%s -> %s", repo.Key(), branch))
			return nil
		}

		if err := r.CheckoutNew(ctx, branch); err != nil {
			return err
		}
		fmt.Println(ui.Statusf("start", "%s -> %s", repo.Key(), branch))
		return nil
	},
}

var branchFinishCmd = &cobra.Command{
	Use:   "finish <alias> <feature|hotfix> <name> <selector>",
	Short: "Merge a feature or hotfix branch back and delete it",
	Long: `Finish a feature or hotfix branch in one repository.

A feature branch merges into dev; a hotfix branch merges into main and
then dev. Each target is checked out and pulled before a no-fast-forward
merge, and the branch is deleted afterwards. A merge conflict aborts
with the working tree left for the operator to resolve.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		branch, _, err := conventionBranch(args[1], args[2])
		if err != nil {
			return err
		}
		targets := []string{workspace.DevBranch}
		if args[1] == "hotfix" {
			targets = []string{workspace.MainBranch, workspace.DevBranch}
		}

		repo, err := selectOneRepo(args[0], args[3])
		if err != nil {
			return err
		}
		r := gitcmd.New(repo.Path)

		exists, err := r.BranchExists(ctx, branch)
		if err != nil {
			return err
		}
		if !exists {
			return wmerr.E(wmerr.KindConfig, "branch %s does not exist in %s", branch, repo.Key())
		}

		for _, target := range targets {
			if err := r.Checkout(ctx, target); err != nil {
				return err
			}
			if err := r.Pull(ctx); err != nil {
				return err
			}
			if err := r.Merge(ctx, branch, true); err != nil {
				return err
			}
		}

		if err := r.DeleteBranch(ctx, branch); err != nil {
			return err
		}

		fmt.Println(ui.Statusf("finish", "%s %s merged", repo.Key(), branch))
		return nil
	},
}

// conventionBranch maps a kind and short name to the full branch name
// and its base branch.
func conventionBranch(kind, name string) (branch, base string, err error) {
	switch kind {
	case "feature":
		return "feature/" + name, workspace.DevBranch, nil
	case "hotfix":
		return "hotfix/" + name, workspace.MainBranch, nil
	default:
		return "", "", wmerr.E(wmerr.KindConfig, "branch kind must be feature or hotfix, got %q", kind)
	}
}

// selectOneRepo resolves a selector that must name exactly one
// repository.
func selectOneRepo(alias, selector string) (workspace.Repo, error) {
	cfg, err := openWorkspace(alias)
	if err != nil {
		return workspace.Repo{}, err
	}
	repos, err := cfg.FindRepos([]string{selector})
	if err != nil {
		return workspace.Repo{}, err
	}
	if len(repos) != 1 {
		return workspace.Repo{}, wmerr.E(wmerr.KindConfig, "selector %q matches %d repositories, need exactly one", selector, len(repos))
	}
	return repos[0], nil
}

func init() {
	branchCmd.AddCommand(branchCheckoutCmd)
	branchCmd.AddCommand(branchSwitchCmd)
	branchCmd.AddCommand(branchCurrentCmd)
	branchCmd.AddCommand(branchListCmd)
	branchCmd.AddCommand(branchStartCmd)
	branchCmd.AddCommand(branchFinishCmd)
	rootCmd.AddCommand(branchCmd)
}
