package logging

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Rotation bounds the size of the log file. The zero value never rotates.
type Rotation struct {
	// MaxSizeMB is the size in megabytes at which gitqueue.log is rotated.
	MaxSizeMB int
	// MaxBackups is how many rotated files are kept as gitqueue.log.1 ... .N
	MaxBackups int
	// Compress gzips rotated files.
	Compress bool
}

// Enabled reports whether r rotates at all.
func (r Rotation) Enabled() bool {
	return r.MaxSizeMB > 0
}

// rotatingFile is an append-only log file that moves itself aside once it
// grows past a size limit. It is safe for concurrent use.
type rotatingFile struct {
	mu sync.Mutex

	path     string
	limit    int64
	backups  int
	compress bool

	f    *os.File
	size int64
}

func openRotatingFile(path string, r Rotation) (*rotatingFile, error) {
	rf := &rotatingFile{
		path:     path,
		limit:    int64(r.MaxSizeMB) << 20,
		backups:  r.MaxBackups,
		compress: r.Compress,
	}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

// open (re)opens the live file. The caller must hold mu or own rf exclusively.
func (rf *rotatingFile) open() error {
	if err := os.MkdirAll(filepath.Dir(rf.path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	rf.f = f
	rf.size = info.Size()
	return nil
}

func (rf *rotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.f == nil {
		return 0, fmt.Errorf("log file %s is closed", rf.path)
	}

	// A single entry larger than the limit still goes into a fresh file.
	if rf.limit > 0 && rf.size > 0 && rf.size+int64(len(p)) > rf.limit {
		if err := rf.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: log rotation failed: %v\n", err)
			if rf.f == nil {
				return 0, err
			}
		}
	}

	n, err := rf.f.Write(p)
	rf.size += int64(n)
	return n, err
}

// rotate closes the live file, shifts the backups and starts a new file.
// The caller must hold mu.
func (rf *rotatingFile) rotate() error {
	if err := rf.f.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	rf.f = nil

	if rf.backups <= 0 {
		if err := os.Remove(rf.path); err != nil && !os.IsNotExist(err) {
			return rf.reopenAfter(err)
		}
		return rf.open()
	}

	rf.shiftBackups()
	first := rf.backupName(1)
	if err := os.Rename(rf.path, first); err != nil {
		return rf.reopenAfter(err)
	}
	if rf.compress {
		if err := gzipFile(first); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to compress %s: %v\n", first, err)
		}
	}
	return rf.open()
}

func (rf *rotatingFile) reopenAfter(err error) error {
	if openErr := rf.open(); openErr != nil {
		return fmt.Errorf("failed to rotate log file (%v) and reopen it: %w", err, openErr)
	}
	return fmt.Errorf("failed to rotate log file: %w", err)
}

// shiftBackups renames .N-1 to .N down to .1 to .2, dropping the oldest.
func (rf *rotatingFile) shiftBackups() {
	oldest := rf.backupName(rf.backups)
	_ = os.Remove(oldest)
	_ = os.Remove(oldest + ".gz")

	for i := rf.backups - 1; i >= 1; i-- {
		from, to := rf.backupName(i), rf.backupName(i+1)
		if _, err := os.Stat(from + ".gz"); err == nil {
			_ = os.Rename(from+".gz", to+".gz")
		} else if _, err := os.Stat(from); err == nil {
			_ = os.Rename(from, to)
		}
	}
}

func (rf *rotatingFile) backupName(n int) string {
	return fmt.Sprintf("%s.%d", rf.path, n)
}

func (rf *rotatingFile) Sync() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.f == nil {
		return nil
	}
	return rf.f.Sync()
}

// Close syncs and closes the live file. Closing twice is a no-op.
func (rf *rotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.f == nil {
		return nil
	}
	if err := rf.f.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	if err := rf.f.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	rf.f = nil
	return nil
}

// gzipFile replaces path with path.gz. The original is removed only once the
// compressed copy is complete.
func gzipFile(path string) (err error) {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	gzPath := path + ".gz"
	dst, err := os.Create(gzPath)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(gzPath)
		}
	}()

	zw := gzip.NewWriter(dst)
	if _, err = io.Copy(zw, src); err != nil {
		_ = dst.Close()
		return err
	}
	if err = zw.Close(); err != nil {
		_ = dst.Close()
		return err
	}
	if err = dst.Close(); err != nil {
		return err
	}
	_ = src.Close()
	return os.Remove(path)
}
