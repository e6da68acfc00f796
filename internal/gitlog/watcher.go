package gitlog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/gitqueue/internal/errors"
	"github.com/Iron-Ham/gitqueue/internal/logging"
)

// DefaultDebounce is how long the watcher waits for git to finish a burst of
// ref updates before reporting a change.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports when the history of a repository may have changed. git
// rewrites HEAD, logs/HEAD and files under refs/ whenever a commit lands, so
// the watcher observes those paths and coalesces bursts of events into a
// single notification.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *logging.Logger

	changes chan struct{}
	errs    chan error

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Watch starts watching the repository's git directory. A debounce of zero
// uses DefaultDebounce. The logger may be nil.
func (r *Repository) Watch(debounce time.Duration, logger *logging.Logger) (*Watcher, error) {
	gitDir, err := r.GitDir()
	if err != nil {
		return nil, err
	}
	return NewWatcher(gitDir, debounce, logger)
}

// NewWatcher creates a Watcher for the git directory at gitDir.
func NewWatcher(gitDir string, debounce time.Duration, logger *logging.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}

	w := &Watcher{
		watcher:  fw,
		debounce: debounce,
		logger:   logger.With("git_dir", gitDir),
		changes:  make(chan struct{}, 1),
		errs:     make(chan error, 1),
		stopCh:   make(chan struct{}),
	}

	if err := w.addPaths(gitDir); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.watchLoop()
	return w, nil
}

// addPaths registers the git directory, logs/ and every directory under
// refs/. fsnotify does not recurse, so nested ref directories are added
// one by one.
func (w *Watcher) addPaths(gitDir string) error {
	if err := w.watcher.Add(gitDir); err != nil {
		return errors.NewGitError("failed to watch git directory", err).WithRepository(gitDir)
	}

	if logsDir := filepath.Join(gitDir, "logs"); isDir(logsDir) {
		_ = w.watcher.Add(logsDir)
	}

	refsDir := filepath.Join(gitDir, "refs")
	return filepath.Walk(refsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable entries, keep walking
		}
		if info.IsDir() {
			if addErr := w.watcher.Add(path); addErr != nil {
				w.logger.Debug("failed to watch ref directory", "path", path, "error", addErr.Error())
			}
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Changes delivers one value per debounced burst of history updates. The
// channel holds at most one pending notification.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Errors delivers errors reported by the underlying file watcher.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watcher and releases its resources. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

// relevant reports whether an event can indicate a new commit. Lock files
// are written before the real update and are ignored.
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.ToSlash(event.Name)
	if strings.HasSuffix(name, ".lock") {
		return false
	}
	base := filepath.Base(name)
	switch base {
	case "HEAD", "ORIG_HEAD", "packed-refs":
		return true
	}
	return strings.Contains(name, "/refs/")
}

func (w *Watcher) watchLoop() {
	defer w.wg.Done()

	debounceTimer := time.NewTimer(w.debounce)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	defer debounceTimer.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// New branches create new ref directories; keep them watched.
			if event.Op&fsnotify.Create != 0 && isDir(event.Name) {
				_ = w.watcher.Add(event.Name)
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("git directory changed", "path", event.Name, "op", event.Op.String())
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			select {
			case w.changes <- struct{}{}:
			default:
				// A notification is already pending.
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err.Error())
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}
