// Package gitcmd provides a narrow interface over the git operations the
// workspace manager depends on.
//
// Everything the core logic needs from git travels through the Repo
// interface: tag listing, branch queries, tree lookups, subtree
// add/pull, commit, tag, push. The production implementation (Git)
// shells out to the git binary; the Fake implementation backs the unit
// tests so the release and subtree logic can be exercised without a
// real repository.
//
// # Usage
//
//	repo := gitcmd.New("/ws/node/abc")
//	tags, err := repo.Tags(ctx)
//
// Operations block until the underlying command completes; callers that
// need cancellation pass it through ctx. There is no retry layer: a
// non-zero git exit surfaces as a wmerr execution error and aborts the
// caller.
package gitcmd

import (
	"context"
)

// Repo is the set of git operations used by the workspace manager.
type Repo interface {
	// Root returns the repository's working directory.
	Root() string

	// Tags returns all tag names in the repository.
	Tags(ctx context.Context) ([]string, error)

	// CurrentBranch returns the checked-out branch name, or an empty
	// string in detached HEAD state.
	CurrentBranch(ctx context.Context) (string, error)

	// BranchExists reports whether the named local branch exists.
	BranchExists(ctx context.Context, name string) (bool, error)

	// Branches returns all local branch names.
	Branches(ctx context.Context) ([]string, error)

	// Head returns the commit id of HEAD.
	Head(ctx context.Context) (string, error)

	// TreeHas reports whether the given path prefix exists in the
	// current commit tree. This is a tree lookup, not a filesystem
	// check: a prefix can exist historically without being checked out.
	TreeHas(ctx context.Context, prefix string) (bool, error)

	// SubtreeAdd imports the child repository's branch history under
	// prefix for the first time.
	SubtreeAdd(ctx context.Context, prefix, childPath, branch string) error

	// SubtreePull merges the child repository's branch history into the
	// existing prefix.
	SubtreePull(ctx context.Context, prefix, childPath, branch string) error

	// Add stages the given paths.
	Add(ctx context.Context, paths ...string) error

	// AddAll stages all working-tree changes.
	AddAll(ctx context.Context) error

	// Commit records staged changes with the given message.
	Commit(ctx context.Context, message string, opts CommitOptions) error

	// HasChanges reports whether the working tree has uncommitted
	// changes (staged or not).
	HasChanges(ctx context.Context) (bool, error)

	// Tag creates an annotated tag.
	Tag(ctx context.Context, name, message string) error

	// PushTags pushes all tags to the default remote.
	PushTags(ctx context.Context) error

	// Push pushes the current branch to its remote.
	Push(ctx context.Context) error

	// Pull pulls the current branch from its remote.
	Pull(ctx context.Context) error

	// Checkout switches the working tree to the named ref.
	Checkout(ctx context.Context, ref string) error

	// CheckoutNew creates and switches to a new branch.
	CheckoutNew(ctx context.Context, name string) error

	// Merge merges the named branch into the current one.
	Merge(ctx context.Context, branch string, noFF bool) error

	// DeleteBranch deletes the named local branch.
	DeleteBranch(ctx context.Context, name string) error

	// Init initializes a new repository at Root.
	Init(ctx context.Context) error

	// AddRemote registers a named remote.
	AddRemote(ctx context.Context, name, url string) error

	// PushUpstream pushes branch to remote and sets it as upstream.
	PushUpstream(ctx context.Context, remote, branch string) error

	// SubmoduleUpdate initializes and updates submodules recursively.
	SubmoduleUpdate(ctx context.Context) error

	// LFSInstall installs git-lfs hooks in the repository.
	LFSInstall(ctx context.Context) error

	// LFSTrack marks a glob pattern for LFS tracking.
	LFSTrack(ctx context.Context, pattern string) error

	// RunRaw executes a raw git command in the repository (escape
	// hatch, use sparingly).
	RunRaw(ctx context.Context, args ...string) ([]byte, error)
}

// CommitOptions configures a commit operation.
type CommitOptions struct {
	// AllowEmpty permits a commit with no tree changes.
	AllowEmpty bool
}

// Opener resolves a filesystem path to a Repo. The orchestrator and CLI
// use it so tests can substitute fakes for real repositories.
type Opener func(path string) Repo
