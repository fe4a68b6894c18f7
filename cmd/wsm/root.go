package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rmlabs/wsm/internal/gitcmd"
	"github.com/rmlabs/wsm/internal/logging"
	"github.com/rmlabs/wsm/internal/release"
	"github.com/rmlabs/wsm/internal/subtree"
	"github.com/rmlabs/wsm/internal/ui"
	"github.com/rmlabs/wsm/internal/workspace"
)

var rootCmd = &cobra.Command{
	Use:   "wsm",
	Short: "Multi-repo workspace manager",
	Long: `wsm manages a multi-repository workspace built on a superrepo +
subtree model.

Child repositories keep their own history and remotes; the superrepo
embeds each of them at a path prefix via git subtree merges. Versioned
releases build the configured repositories, record sha256 manifests in
the artifact repository, tag the sources, and fold the artifact
repository back into the superrepo.

Workspaces are addressed by alias through the global index (wsm.json in
the current directory or ~/.wsm/, or $WSM_CONFIG).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagLogLevel string
	flagLogFile  string
	flagConfig   string

	logger *zap.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", logging.LevelInfo,
		"log level (debug, info, warn, error, none)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "",
		"also log to this file, with rotation")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"workspace index file (overrides $WSM_CONFIG and the default search)")

	cobra.OnInitialize(initLogger)
}

func initLogger() {
	logger = logging.MustNew(logging.Options{
		Level: flagLogLevel,
		File:  flagLogFile,
	})
}

// Execute runs the command tree. Application errors print a diagnostic
// and exit non-zero; they are never silently swallowed.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("Error:"), err)
		os.Exit(1)
	}
}

// openWorkspace resolves a workspace alias and loads its configuration.
func openWorkspace(alias string) (*workspace.Config, error) {
	root, err := workspace.LookupRoot(flagConfig, alias)
	if err != nil {
		return nil, err
	}
	return workspace.Load(root)
}

// newOrchestrator wires the release pipeline for a workspace.
func newOrchestrator(cfg *workspace.Config) *release.Orchestrator {
	return release.NewOrchestrator(
		cfg,
		gitcmd.Open,
		release.NewBuilder(logger),
		release.NewManifestWriter(logger),
		newSynchronizer(),
		logger,
	)
}

// newSynchronizer wires the subtree synchronizer.
func newSynchronizer() *subtree.Synchronizer {
	return subtree.New(gitcmd.Open, workspace.MainBranch, logger)
}
