package gitcmd

import (
	"context"
	"strings"
)

// Git implements Repo by shelling out to the git binary with the
// repository as working directory.
type Git struct {
	root string
}

var _ Repo = (*Git)(nil)

// New returns a Git bound to the given working directory. The directory
// does not need to contain a repository yet; Init creates one.
func New(root string) *Git {
	return &Git{root: root}
}

// Root returns the repository's working directory.
func (g *Git) Root() string {
	return g.root
}

// Tags returns all tag names in the repository.
func (g *Git) Tags(ctx context.Context) ([]string, error) {
	output, err := execGit(ctx, g.root, "tag")
	if err != nil {
		return nil, err
	}
	return parseLines(output), nil
}

// CurrentBranch returns the checked-out branch name. Detached HEAD
// yields an empty string, matching git branch --show-current.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	output, err := execGit(ctx, g.root, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// BranchExists reports whether the named local branch exists.
func (g *Git) BranchExists(ctx context.Context, name string) (bool, error) {
	output, err := execGit(ctx, g.root, "branch", "--list", name)
	if err != nil {
		return false, err
	}
	return len(strings.TrimSpace(string(output))) > 0, nil
}

// Branches returns all local branch names.
func (g *Git) Branches(ctx context.Context) ([]string, error) {
	output, err := execGit(ctx, g.root, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	if err != nil {
		return nil, err
	}
	return parseLines(output), nil
}

// Head returns the commit id of HEAD.
func (g *Git) Head(ctx context.Context) (string, error) {
	output, err := execGit(ctx, g.root, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// TreeHas reports whether prefix exists in the current commit tree.
func (g *Git) TreeHas(ctx context.Context, prefix string) (bool, error) {
	output, err := execGit(ctx, g.root, "ls-tree", "HEAD", prefix)
	if err != nil {
		// ls-tree fails outright when HEAD has no commits yet; the
		// prefix cannot exist in that case.
		return false, nil
	}
	return len(strings.TrimSpace(string(output))) > 0, nil
}

// SubtreeAdd imports childPath's branch history under prefix.
func (g *Git) SubtreeAdd(ctx context.Context, prefix, childPath, branch string) error {
	_, err := execGit(ctx, g.root, "subtree", "add", "--prefix", prefix, childPath, branch)
	return err
}

// SubtreePull merges childPath's branch history into the existing prefix.
func (g *Git) SubtreePull(ctx context.Context, prefix, childPath, branch string) error {
	_, err := execGit(ctx, g.root, "subtree", "pull", "--prefix", prefix, childPath, branch)
	return err
}

// Add stages the given paths.
func (g *Git) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	_, err := execGit(ctx, g.root, args...)
	return err
}

// AddAll stages all working-tree changes.
func (g *Git) AddAll(ctx context.Context) error {
	_, err := execGit(ctx, g.root, "add", ".")
	return err
}

// Commit records staged changes with the given message.
func (g *Git) Commit(ctx context.Context, message string, opts CommitOptions) error {
	args := []string{"commit", "-m", message}
	if opts.AllowEmpty {
		args = append(args, "--allow-empty")
	}
	_, err := execGit(ctx, g.root, args...)
	return err
}

// HasChanges reports whether the working tree has uncommitted changes.
func (g *Git) HasChanges(ctx context.Context) (bool, error) {
	output, err := execGit(ctx, g.root, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return len(strings.TrimSpace(string(output))) > 0, nil
}

// Tag creates an annotated tag.
func (g *Git) Tag(ctx context.Context, name, message string) error {
	_, err := execGit(ctx, g.root, "tag", "-a", name, "-m", message)
	return err
}

// PushTags pushes all tags to the default remote.
func (g *Git) PushTags(ctx context.Context) error {
	_, err := execGit(ctx, g.root, "push", "--tags")
	return err
}

// Push pushes the current branch to its remote.
func (g *Git) Push(ctx context.Context) error {
	_, err := execGit(ctx, g.root, "push")
	return err
}

// Pull pulls the current branch from its remote.
func (g *Git) Pull(ctx context.Context) error {
	_, err := execGit(ctx, g.root, "pull")
	return err
}

// Checkout switches the working tree to the named ref.
func (g *Git) Checkout(ctx context.Context, ref string) error {
	_, err := execGit(ctx, g.root, "checkout", ref)
	return err
}

// CheckoutNew creates and switches to a new branch.
func (g *Git) CheckoutNew(ctx context.Context, name string) error {
	_, err := execGit(ctx, g.root, "checkout", "-b", name)
	return err
}

// Merge merges the named branch into the current one.
func (g *Git) Merge(ctx context.Context, branch string, noFF bool) error {
	args := []string{"merge"}
	if noFF {
		args = append(args, "--no-ff")
	}
	args = append(args, branch)
	_, err := execGit(ctx, g.root, args...)
	return err
}

// DeleteBranch deletes the named local branch.
func (g *Git) DeleteBranch(ctx context.Context, name string) error {
	_, err := execGit(ctx, g.root, "branch", "-d", name)
	return err
}

// Init initializes a new repository at Root.
func (g *Git) Init(ctx context.Context) error {
	_, err := execGit(ctx, g.root, "init")
	return err
}

// AddRemote registers a named remote.
func (g *Git) AddRemote(ctx context.Context, name, url string) error {
	_, err := execGit(ctx, g.root, "remote", "add", name, url)
	return err
}

// PushUpstream pushes branch to remote and sets it as upstream.
func (g *Git) PushUpstream(ctx context.Context, remote, branch string) error {
	_, err := execGit(ctx, g.root, "push", "-u", remote, branch)
	return err
}

// SubmoduleUpdate initializes and updates submodules recursively.
func (g *Git) SubmoduleUpdate(ctx context.Context) error {
	_, err := execGit(ctx, g.root, "submodule", "update", "--init", "--recursive")
	return err
}

// LFSInstall installs git-lfs hooks in the repository.
func (g *Git) LFSInstall(ctx context.Context) error {
	_, err := execGit(ctx, g.root, "lfs", "install")
	return err
}

// LFSTrack marks a glob pattern for LFS tracking.
func (g *Git) LFSTrack(ctx context.Context, pattern string) error {
	_, err := execGit(ctx, g.root, "lfs", "track", pattern)
	return err
}

// RunRaw executes a raw git command in the repository.
func (g *Git) RunRaw(ctx context.Context, args ...string) ([]byte, error) {
	return execGit(ctx, g.root, args...)
}

// Open is the production Opener.
func Open(path string) Repo {
	return New(path)
}
