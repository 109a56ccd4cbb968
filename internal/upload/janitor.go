package upload

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultTTL = 10 * time.Minute

// Janitor removes upload artifacts that outlive their request, e.g. after a
// crash between save and cleanup. It watches the scratch directory and
// schedules a deletion check TTL after each file appears, plus an initial
// sweep of anything already present.
type Janitor struct {
	dir    string
	ttl    time.Duration
	logger *zap.Logger

	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	timers   map[string]*time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// NewJanitor returns a janitor for dir. ttl is how long an artifact may
// exist before it is considered orphaned; zero selects the default.
func NewJanitor(dir string, ttl time.Duration, logger *zap.Logger) *Janitor {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Janitor{
		dir:    dir,
		ttl:    ttl,
		logger: logger,
		timers: make(map[string]*time.Timer),
		done:   make(chan struct{}),
	}
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.started {
		j.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		j.mu.Unlock()
		return err
	}
	if err := watcher.Add(j.dir); err != nil {
		_ = watcher.Close()
		j.mu.Unlock()
		return err
	}
	j.watcher = watcher
	j.started = true
	j.mu.Unlock()

	j.SweepExisting()
	go j.run(ctx)
	return nil
}

func (j *Janitor) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			j.Stop()
			return
		case <-j.done:
			return
		case ev, ok := <-j.watcher.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Create) {
				j.schedule(ev.Name)
			}
		case err, ok := <-j.watcher.Errors:
			if !ok {
				return
			}
			if err != nil && j.logger != nil {
				j.logger.Debug("janitor watch error", zap.Error(err))
			}
		}
	}
}

// schedule arms a deletion check for path after the TTL.
func (j *Janitor) schedule(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if t, ok := j.timers[path]; ok {
		t.Stop()
	}
	j.timers[path] = time.AfterFunc(j.ttl, func() {
		j.mu.Lock()
		delete(j.timers, path)
		j.mu.Unlock()
		j.collect(path)
	})
}

// collect removes path if it still exists past its TTL.
func (j *Janitor) collect(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.Remove(path); err != nil {
		if j.logger != nil {
			j.logger.Warn("janitor remove failed", zap.String("path", path), zap.Error(err))
		}
		return
	}
	if j.logger != nil {
		j.logger.Info("removed orphaned upload", zap.String("path", path))
	}
}

// SweepExisting removes files already older than the TTL and schedules the
// rest. Called on startup so artifacts from a previous process do not leak.
func (j *Janitor) SweepExisting() {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if j.logger != nil {
			j.logger.Warn("janitor sweep failed", zap.Error(err))
		}
		return
	}
	cutoff := time.Now().Add(-j.ttl)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(j.dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			j.collect(path)
		} else {
			j.schedule(path)
		}
	}
}

// Stop stops the janitor and cancels pending checks.
func (j *Janitor) Stop() {
	j.stopOnce.Do(func() {
		close(j.done)
		j.mu.Lock()
		for path, t := range j.timers {
			t.Stop()
			delete(j.timers, path)
		}
		watcher := j.watcher
		j.watcher = nil
		j.mu.Unlock()
		if watcher != nil {
			_ = watcher.Close()
		}
	})
}
