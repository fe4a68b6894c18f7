package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmlabs/wsm/internal/release"
	"github.com/rmlabs/wsm/internal/ui"
	"github.com/rmlabs/wsm/internal/wmerr"
	"github.com/rmlabs/wsm/internal/workspace"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <alias> <version> [selectors...]",
	Short: "Re-verify released artifacts against their manifests",
	Long: `Verify every manifest recording the given version.

Each recorded artifact is checked for presence and a matching sha256.
Selectors restrict the scan to the manifests of the selected
repositories. The scan never stops at the first failure; every check is
reported, and any failure makes the command exit non-zero.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := openWorkspace(args[0])
		if err != nil {
			return err
		}

		var filter map[string]bool
		if len(args) > 2 {
			repos, err := cfg.FindRepos(args[2:])
			if err != nil {
				return err
			}
			filter = workspace.FilterKeys(repos)
		}

		verifier := release.NewVerifier(cfg.ArtifactRoot(), logger)
		report, err := verifier.Verify(ctx, args[1], filter)
		if err != nil {
			return err
		}

		for _, c := range report.Checks {
			switch {
			case !c.Failed():
				fmt.Printf("%s %s %s\n", ui.RenderOK("[OK]"), c.Repo, c.Artifact)
			case c.Artifact == "":
				fmt.Printf("%s %s unreadable manifest: %s\n", ui.RenderFail("[FAIL]"), c.Repo, c.Detail)
			default:
				fmt.Printf("%s %s %s %s\n", ui.RenderFail("[FAIL]"), c.Repo, c.Artifact, string(c.Status))
			}
		}

		if report.Failed() {
			return wmerr.E(wmerr.KindIntegrity, "verification of %s failed", args[1])
		}
		fmt.Println(ui.Statusf("verify", "%d artifacts verified", len(report.Checks)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
