// Package subtree folds child repositories into the aggregating
// superrepo with history-preserving subtree merges.
//
// The child's path relative to the superrepo root is the subtree
// prefix. Whether the prefix is already imported is decided by a tree
// lookup against the superrepo's current commit, not by a filesystem
// check: the prefix may exist historically without being checked out.
package subtree

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/rmlabs/wsm/internal/gitcmd"
	"github.com/rmlabs/wsm/internal/wmerr"
)

// Synchronizer performs add-or-pull subtree synchronization into an
// aggregating repository.
type Synchronizer struct {
	open   gitcmd.Opener
	branch string
	log    *zap.Logger
}

// New returns a Synchronizer that merges the given child branch.
func New(open gitcmd.Opener, branch string, log *zap.Logger) *Synchronizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer{open: open, branch: branch, log: log}
}

// Sync folds the child repository at childPath into the superrepo at
// rootPath. First-time prefixes are imported with subtree add; known
// prefixes are merged with subtree pull. Afterwards all working-tree
// changes are staged and committed with a message encoding the prefix;
// when the subtree step produced no changes the commit is skipped and
// the sync still succeeds.
//
// Merge conflicts from the pull surface as execution errors; there is
// no automatic resolution.
func (s *Synchronizer) Sync(ctx context.Context, childPath, rootPath string) error {
	prefix, err := filepath.Rel(rootPath, childPath)
	if err != nil {
		return wmerr.Wrap(wmerr.KindConfig, err,
			"repository %s is not under workspace root %s", childPath, rootPath)
	}
	prefix = filepath.ToSlash(prefix)

	super := s.open(rootPath)

	exists, err := super.TreeHas(ctx, prefix)
	if err != nil {
		return err
	}

	if exists {
		s.log.Info("subtree pull", zap.String("prefix", prefix))
		if err := super.SubtreePull(ctx, prefix, childPath, s.branch); err != nil {
			return err
		}
	} else {
		s.log.Info("subtree add", zap.String("prefix", prefix))
		if err := super.SubtreeAdd(ctx, prefix, childPath, s.branch); err != nil {
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
	if !dirty {
		// Repeated no-op syncs must not pile up empty commits.
		s.log.Info("subtree unchanged", zap.String("prefix", prefix))
		return nil
	}

	return super.Commit(ctx, "sync: "+prefix, gitcmd.CommitOptions{})
}
