package gitcmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rmlabs/wsm/internal/wmerr"
)

// Fake is an in-memory Repo for tests. It records every call in order
// and serves scripted state, so the release and subtree logic can be
// exercised without a git binary or a real repository.
//
// Construct with NewFake; fields may be mutated between calls to
// script scenarios.
type Fake struct {
	mu sync.Mutex

	// Path is returned by Root.
	Path string

	// TagList is returned by Tags.
	TagList []string

	// Branch is returned by CurrentBranch. Defaults to "main".
	Branch string

	// HeadID is returned by Head. Defaults to a fixed fake commit id.
	HeadID string

	// Tree holds the prefixes present in the current commit tree.
	Tree map[string]bool

	// Dirty is returned by HasChanges. SubtreeAdd and SubtreePull set
	// it, mirroring a real merge leaving tree changes behind.
	Dirty bool

	// BranchList is consulted by BranchExists and Branches.
	BranchList []string

	// FailOn maps an operation name (e.g. "Push", "SubtreePull") to an
	// error returned by that operation.
	FailOn map[string]error

	// Calls is the ordered log of operations, formatted as
	// "Op arg1 arg2".
	Calls []string
}

var _ Repo = (*Fake)(nil)

// NewFake returns a Fake rooted at path with main checked out.
func NewFake(path string) *Fake {
	return &Fake{
		Path:   path,
		Branch: "main",
		HeadID: "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
		Tree:   make(map[string]bool),
	}
}

// FailWith makes the named operation return an execution error.
func (f *Fake) FailWith(op string, msg string) *Fake {
	if f.FailOn == nil {
		f.FailOn = make(map[string]error)
	}
	f.FailOn[op] = wmerr.E(wmerr.KindExec, "%s", msg)
	return f
}

// CalledWith reports whether an operation with the given prefix appears
// in the call log.
func (f *Fake) CalledWith(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if c == prefix || strings.HasPrefix(c, prefix+" ") {
			return true
		}
	}
	return false
}

func (f *Fake) record(op string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry := op
	if len(args) > 0 {
		entry = op + " " + strings.Join(args, " ")
	}
	f.Calls = append(f.Calls, entry)
	if err, ok := f.FailOn[op]; ok {
		return err
	}
	return nil
}

// Root returns the fake's path.
func (f *Fake) Root() string {
	return f.Path
}

// Tags returns the scripted tag list.
func (f *Fake) Tags(ctx context.Context) ([]string, error) {
	if err := f.record("Tags"); err != nil {
		return nil, err
	}
	tags := make([]string, len(f.TagList))
	copy(tags, f.TagList)
	sort.Strings(tags)
	return tags, nil
}

// CurrentBranch returns the scripted branch.
func (f *Fake) CurrentBranch(ctx context.Context) (string, error) {
	if err := f.record("CurrentBranch"); err != nil {
		return "", err
	}
	return f.Branch, nil
}

// BranchExists consults BranchList.
func (f *Fake) BranchExists(ctx context.Context, name string) (bool, error) {
	if err := f.record("BranchExists", name); err != nil {
		return false, err
	}
	for _, b := range f.BranchList {
		if b == name {
			return true, nil
		}
	}
	return false, nil
}

// Branches returns BranchList.
func (f *Fake) Branches(ctx context.Context) ([]string, error) {
	if err := f.record("Branches"); err != nil {
		return nil, err
	}
	return append([]string(nil), f.BranchList...), nil
}

// Head returns the scripted commit id.
func (f *Fake) Head(ctx context.Context) (string, error) {
	if err := f.record("Head"); err != nil {
		return "", err
	}
	return f.HeadID, nil
}

// TreeHas consults Tree.
func (f *Fake) TreeHas(ctx context.Context, prefix string) (bool, error) {
	if err := f.record("TreeHas", prefix); err != nil {
		return false, err
	}
	return f.Tree[prefix], nil
}

// SubtreeAdd records the prefix in Tree and marks the tree dirty.
func (f *Fake) SubtreeAdd(ctx context.Context, prefix, childPath, branch string) error {
	if err := f.record("SubtreeAdd", prefix, childPath, branch); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Tree == nil {
		f.Tree = make(map[string]bool)
	}
	f.Tree[prefix] = true
	f.Dirty = true
	return nil
}

// SubtreePull marks the tree dirty.
func (f *Fake) SubtreePull(ctx context.Context, prefix, childPath, branch string) error {
	if err := f.record("SubtreePull", prefix, childPath, branch); err != nil {
		return err
	}
	f.mu.Lock()
	f.Dirty = true
	f.mu.Unlock()
	return nil
}

// Add records the staged paths.
func (f *Fake) Add(ctx context.Context, paths ...string) error {
	return f.record("Add", paths...)
}

// AddAll records the staging call.
func (f *Fake) AddAll(ctx context.Context) error {
	return f.record("AddAll")
}

// Commit clears the dirty flag.
func (f *Fake) Commit(ctx context.Context, message string, opts CommitOptions) error {
	args := []string{message}
	if opts.AllowEmpty {
		args = append(args, "--allow-empty")
	}
	if err := f.record("Commit", args...); err != nil {
		return err
	}
	f.mu.Lock()
	f.Dirty = false
	f.mu.Unlock()
	return nil
}

// HasChanges returns the dirty flag.
func (f *Fake) HasChanges(ctx context.Context) (bool, error) {
	if err := f.record("HasChanges"); err != nil {
		return false, err
	}
	return f.Dirty, nil
}

// Tag appends to the tag list.
func (f *Fake) Tag(ctx context.Context, name, message string) error {
	if err := f.record("Tag", name, message); err != nil {
		return err
	}
	f.mu.Lock()
	f.TagList = append(f.TagList, name)
	f.mu.Unlock()
	return nil
}

// PushTags records the call.
func (f *Fake) PushTags(ctx context.Context) error {
	return f.record("PushTags")
}

// Push records the call.
func (f *Fake) Push(ctx context.Context) error {
	return f.record("Push")
}

// Pull records the call.
func (f *Fake) Pull(ctx context.Context) error {
	return f.record("Pull")
}

// Checkout switches the scripted branch.
func (f *Fake) Checkout(ctx context.Context, ref string) error {
	if err := f.record("Checkout", ref); err != nil {
		return err
	}
	f.mu.Lock()
	f.Branch = ref
	f.mu.Unlock()
	return nil
}

// CheckoutNew creates and switches to a new scripted branch.
func (f *Fake) CheckoutNew(ctx context.Context, name string) error {
	if err := f.record("CheckoutNew", name); err != nil {
		return err
	}
	f.mu.Lock()
	f.Branch = name
	f.BranchList = append(f.BranchList, name)
	f.mu.Unlock()
	return nil
}

// Merge records the call.
func (f *Fake) Merge(ctx context.Context, branch string, noFF bool) error {
	return f.record("Merge", branch, fmt.Sprintf("noFF=%v", noFF))
}

// DeleteBranch removes the branch from BranchList.
func (f *Fake) DeleteBranch(ctx context.Context, name string) error {
	if err := f.record("DeleteBranch", name); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.BranchList[:0]
	for _, b := range f.BranchList {
		if b != name {
			kept = append(kept, b)
		}
	}
	f.BranchList = kept
	return nil
}

// Init records the call.
func (f *Fake) Init(ctx context.Context) error {
	return f.record("Init")
}

// AddRemote records the call.
func (f *Fake) AddRemote(ctx context.Context, name, url string) error {
	return f.record("AddRemote", name, url)
}

// PushUpstream records the call.
func (f *Fake) PushUpstream(ctx context.Context, remote, branch string) error {
	return f.record("PushUpstream", remote, branch)
}

// SubmoduleUpdate records the call.
func (f *Fake) SubmoduleUpdate(ctx context.Context) error {
	return f.record("SubmoduleUpdate")
}

// LFSInstall records the call.
func (f *Fake) LFSInstall(ctx context.Context) error {
	return f.record("LFSInstall")
}

// LFSTrack records the call.
func (f *Fake) LFSTrack(ctx context.Context, pattern string) error {
	return f.record("LFSTrack", pattern)
}

// RunRaw records the call and returns nothing.
func (f *Fake) RunRaw(ctx context.Context, args ...string) ([]byte, error) {
	if err := f.record("RunRaw", args...); err != nil {
		return nil, err
	}
	return nil, nil
}
