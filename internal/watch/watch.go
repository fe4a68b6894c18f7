// Package watch provides a rebuild-on-change loop for dev builds. It
// watches the selected repositories with fsnotify and triggers a dev
// build for a repository whenever its files change, debouncing bursts
// of events from editors and build tools.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/rmlabs/wsm/internal/workspace"
)

// DefaultDebounce is the quiet period after the last event before a
// rebuild fires.
const DefaultDebounce = 500 * time.Millisecond

// BuildFunc performs a dev build of one repository. Failures are
// logged and the watcher keeps running.
type BuildFunc func(ctx context.Context, repo workspace.Repo) error

// Watcher drives rebuild-on-change for a set of repositories.
type Watcher struct {
	repos    []workspace.Repo
	build    BuildFunc
	debounce time.Duration
	log      *zap.Logger

	fsw *fsnotify.Watcher

	// dirRepo maps each watched directory to the index of its repo.
	dirRepo map[string]int
}

// New creates a Watcher over the given repositories. Directories are
// registered recursively, skipping VCS metadata.
func New(repos []workspace.Repo, build BuildFunc, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		repos:    repos,
		build:    build,
		debounce: DefaultDebounce,
		log:      log,
		fsw:      fsw,
		dirRepo:  make(map[string]int),
	}

	for i, repo := range repos {
		if err := w.addTree(repo.Path, i); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	return w, nil
}

// addTree registers a repository's directory tree with the watcher.
func (w *Watcher) addTree(root string, repoIdx int) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if ignoredDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return err
		}
		w.dirRepo[path] = repoIdx
		return nil
	})
}

// ignoredDir filters directories whose churn must not trigger builds.
func ignoredDir(name string) bool {
	return name == ".git" || name == workspace.DevBuildDirName
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run blocks, rebuilding repositories as their files change, until ctx
// is cancelled. Build failures are logged, not fatal: the next change
// gets another chance.
func (w *Watcher) Run(ctx context.Context) error {
	// One pending timer per repository, so edits in one repo do not
	// rebuild the others.
	timers := make([]*time.Timer, len(w.repos))
	fired := make(chan int, len(w.repos))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case idx := <-fired:
			repo := w.repos[idx]
			w.log.Info("rebuilding", zap.String("repo", repo.Key()))
			if err := w.build(ctx, repo); err != nil {
				w.log.Warn("dev build failed",
					zap.String("repo", repo.Key()),
					zap.Error(err))
			}

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			idx, ok := w.repoFor(event.Name)
			if !ok {
				continue
			}

			// New directories join the watch so nested edits keep
			// triggering.
			if event.Op.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					w.addDirIfNew(event.Name, idx)
				}
			}

			if timers[idx] == nil {
				i := idx
				timers[idx] = time.AfterFunc(w.debounce, func() { fired <- i })
			} else {
				timers[idx].Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

// repoFor maps an event path to the repository owning it.
func (w *Watcher) repoFor(path string) (int, bool) {
	if strings.Contains(path, string(filepath.Separator)+".git"+string(filepath.Separator)) ||
		strings.HasSuffix(path, string(filepath.Separator)+".git") {
		return 0, false
	}

	dir := filepath.Dir(path)
	for dir != "" {
		if idx, ok := w.dirRepo[dir]; ok {
			return idx, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return 0, false
}

// addDirIfNew registers a newly created directory under a repository.
func (w *Watcher) addDirIfNew(path string, repoIdx int) {
	if _, ok := w.dirRepo[path]; ok {
		return
	}
	if ignoredDir(filepath.Base(path)) {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.log.Warn("cannot watch new directory",
			zap.String("dir", path), zap.Error(err))
		return
	}
	w.dirRepo[path] = repoIdx
}
