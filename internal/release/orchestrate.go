package release

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rmlabs/wsm/internal/gitcmd"
	"github.com/rmlabs/wsm/internal/subtree"
	"github.com/rmlabs/wsm/internal/version"
	"github.com/rmlabs/wsm/internal/wmerr"
	"github.com/rmlabs/wsm/internal/workspace"
)

// Orchestrator composes the release pipeline: version resolution,
// per-repository build and manifest, tagging, artifact repository
// publication, and the final subtree sync of the artifact repository
// into the workspace root.
//
// Steps run strictly sequentially. A failing step aborts the rest;
// side effects of completed steps (pushed tags, written manifests) are
// left in place and the operator resolves partial releases by hand.
// There is no compensating-transaction mechanism.
type Orchestrator struct {
	cfg       *workspace.Config
	open      gitcmd.Opener
	builder   *Builder
	manifests *ManifestWriter
	sync      *subtree.Synchronizer
	log       *zap.Logger
}

// NewOrchestrator wires an Orchestrator from its collaborators.
func NewOrchestrator(cfg *workspace.Config, open gitcmd.Opener, builder *Builder, manifests *ManifestWriter, sync *subtree.Synchronizer, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		cfg:       cfg,
		open:      open,
		builder:   builder,
		manifests: manifests,
		sync:      sync,
		log:       log,
	}
}

// Release performs a standard release: the next version is the latest
// release tag of the first selected repository, bumped by kind.
func (o *Orchestrator) Release(ctx context.Context, repos []workspace.Repo, kind version.BumpKind) (version.Version, error) {
	if len(repos) == 0 {
		return version.Zero, wmerr.E(wmerr.KindConfig, "no repositories selected for release")
	}

	// The first repository is the version-of-record reference.
	base, err := version.Latest(ctx, o.open(repos[0].Path))
	if err != nil {
		return version.Zero, err
	}

	ver, err := version.Bump(base.Base(), kind)
	if err != nil {
		return version.Zero, err
	}

	return ver, o.run(ctx, repos, ver, ModeRelease)
}

// Hotfix performs a hotfix release off the given base version, with
// the next free ordinal taken from the first selected repository.
func (o *Orchestrator) Hotfix(ctx context.Context, repos []workspace.Repo, base version.Version) (version.Version, error) {
	if len(repos) == 0 {
		return version.Zero, wmerr.E(wmerr.KindConfig, "no repositories selected for release")
	}

	ver, err := version.NextHotfix(ctx, base, o.open(repos[0].Path))
	if err != nil {
		return version.Zero, err
	}

	return ver, o.run(ctx, repos, ver, ModeHotfix)
}

// run drives the release state machine for an already-resolved version.
func (o *Orchestrator) run(ctx context.Context, repos []workspace.Repo, ver version.Version, mode Mode) error {
	o.log.Info("release starting",
		zap.String("version", ver.String()),
		zap.String("mode", string(mode)),
		zap.Int("repos", len(repos)))

	// Update every repository before building any, so a late pull
	// failure cannot leave the release built from mixed sources.
	for _, repo := range repos {
		r := o.open(repo.Path)
		if err := r.Checkout(ctx, workspace.MainBranch); err != nil {
			return err
		}
		if err := r.Pull(ctx); err != nil {
			return err
		}
	}

	for _, repo := range repos {
		cfg, ok := o.cfg.BuildFor(repo.Key())
		if !ok {
			// Not every repository in a release set produces artifacts.
			o.log.Info("no build configured, skipping", zap.String("repo", repo.Key()))
			continue
		}

		destDir := filepath.Join(o.cfg.ArtifactRoot(), repo.Key(), ver.String())
		outputs, err := o.builder.Build(ctx, repo, cfg, destDir)
		if err != nil {
			return err
		}

		r := o.open(repo.Path)
		if _, err := o.manifests.Write(ctx, r, repo.Key(), ver, destDir, outputs, mode); err != nil {
			return err
		}

		if err := r.Tag(ctx, ver.String(), ver.String()); err != nil {
			return err
		}
		if err := r.PushTags(ctx); err != nil {
			return err
		}
	}

	artifactRepo := o.open(o.cfg.ArtifactRoot())
	if err := artifactRepo.AddAll(ctx); err != nil {
		return err
	}
	if err := artifactRepo.Commit(ctx, string(mode)+": "+ver.String(), gitcmd.CommitOptions{}); err != nil {
		return err
	}
	if err := artifactRepo.Push(ctx); err != nil {
		return err
	}

	if err := o.sync.Sync(ctx, o.cfg.ArtifactRoot(), o.cfg.Root); err != nil {
		return err
	}

	o.log.Info("release complete", zap.String("version", ver.String()))
	return nil
}

// DevBuild builds every selected repository with a configured build
// into dev_builds/<key>, without tagging or manifesting anything.
// Repositories without a build configuration are skipped.
func (o *Orchestrator) DevBuild(ctx context.Context, repos []workspace.Repo) error {
	for _, repo := range repos {
		cfg, ok := o.cfg.BuildFor(repo.Key())
		if !ok {
			continue
		}

		dest := filepath.Join(o.cfg.DevBuildRoot(), repo.Key())
		if _, err := o.builder.Build(ctx, repo, cfg, dest); err != nil {
			return err
		}
		o.log.Info("dev build complete",
			zap.String("repo", repo.Key()),
			zap.String("dest", dest))
	}
	return nil
}
