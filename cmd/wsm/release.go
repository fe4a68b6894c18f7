package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmlabs/wsm/internal/ui"
	"github.com/rmlabs/wsm/internal/version"
	"github.com/rmlabs/wsm/internal/wmerr"
)

var releaseCmd = &cobra.Command{
	Use:   "release <alias> <major|minor|patch> [selectors...]",
	Short: "Build, manifest, tag and publish a versioned release",
	Long: `Release the selected repositories at the next version.

The next version is derived from the latest release tag of the first
selected repository, bumped by the given kind. Every selected repository
is updated on main first; repositories with a configured build are then
built, manifested, tagged and pushed, the artifact repository is
committed and pushed, and finally folded back into the workspace root.

A failing step aborts the rest. Completed side effects (pushed tags,
written manifests) are left in place for the operator to resolve.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		kind, err := version.ParseBumpKind(args[1])
		if err != nil {
			return err
		}

		cfg, err := openWorkspace(args[0])
		if err != nil {
			return err
		}
		repos, err := cfg.FindRepos(args[2:])
		if err != nil {
			return err
		}

		ver, err := newOrchestrator(cfg).Release(ctx, repos, kind)
		if err != nil {
			return err
		}

		fmt.Println(ui.Statusf("release", "released %s", ui.RenderAccent(ver.String())))
		return nil
	},
}

var releaseHotfixCmd = &cobra.Command{
	Use:   "release-hotfix <alias> <vX.Y.Z> [selectors...]",
	Short: "Release a hotfix off an existing version",
	Long: `Release a hotfix of the given base version.

The hotfix ordinal is the next free one after the existing hotfix tags
of the first selected repository, so the first hotfix of v1.2.0 is
v1.2.0-hotfix.1. The rest of the flow matches a standard release.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		base, err := version.Parse(args[1])
		if err != nil {
			return err
		}
		if base.IsHotfix() {
			return wmerr.E(wmerr.KindConfig, "hotfix base must be a standard version, got %s", base)
		}

		cfg, err := openWorkspace(args[0])
		if err != nil {
			return err
		}
		repos, err := cfg.FindRepos(args[2:])
		if err != nil {
			return err
		}

		ver, err := newOrchestrator(cfg).Hotfix(ctx, repos, base)
		if err != nil {
			return err
		}

		fmt.Println(ui.Statusf("release", "released %s", ui.RenderAccent(ver.String())))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(releaseHotfixCmd)
}
