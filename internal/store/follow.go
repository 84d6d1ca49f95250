package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Follower reloads a Store when another process rewrites its persisted file.
type Follower struct {
	store   *Store
	watcher *fsnotify.Watcher
	target  string
}

// Follow starts watching fp's directory. The watch is live when Follow
// returns; Run consumes events and releases the watcher.
func (s *Store) Follow(fp *FilePersister) (*Follower, error) {
	if err := os.MkdirAll(fp.Dir, 0o755); err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(fp.Dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return &Follower{store: s, watcher: watcher, target: filepath.Clean(fp.Path(Key))}, nil
}

// Run blocks until ctx is cancelled or the watcher shuts down.
func (f *Follower) Run(ctx context.Context) error {
	defer f.watcher.Close()
	logger := f.store.logger

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-f.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.target {
				continue
			}
			// atomic saves arrive as Create (rename onto target); plain writers as Write
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			logger.Debug("persisted result changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			f.store.reload()
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch persisted result", zap.Error(err))
		}
	}
}
