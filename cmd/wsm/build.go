package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rmlabs/wsm/internal/ui"
	"github.com/rmlabs/wsm/internal/watch"
	"github.com/rmlabs/wsm/internal/workspace"
)

var buildWatch bool

var buildCmd = &cobra.Command{
	Use:   "build <alias> [selectors...]",
	Short: "Run dev builds into dev_builds/",
	Long: `Build the selected repositories without releasing.

Outputs land in dev_builds/<group>/<name> under the workspace root.
Nothing is tagged, manifested or committed. Repositories without a
configured build are skipped.

With --watch the command keeps running and rebuilds a repository
whenever its files change.`,
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

		orch := newOrchestrator(cfg)
		if err := orch.DevBuild(ctx, repos); err != nil {
			return err
		}

		if !buildWatch {
			return nil
		}

		// Watch only the repositories that can actually build.
		var buildable []workspace.Repo
		for _, r := range repos {
			if _, ok := cfg.BuildFor(r.Key()); ok {
				buildable = append(buildable, r)
			}
		}
		if len(buildable) == 0 {
			fmt.Println(ui.Statusf("watch", "no repositories with a configured build, nothing to watch"))
			return nil
		}

		w, err := watch.New(buildable, func(ctx context.Context, repo workspace.Repo) error {
			return orch.DevBuild(ctx, []workspace.Repo{repo})
		}, logger)
		if err != nil {
			return err
		}
		defer w.Close()

		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Println(ui.Statusf("watch", "watching %d repositories, ctrl-c to stop", len(buildable)))
		if err := w.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildWatch, "watch", false, "rebuild on file changes until interrupted")
	rootCmd.AddCommand(buildCmd)
}
