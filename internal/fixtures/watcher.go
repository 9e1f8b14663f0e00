package fixtures

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the override file whenever it changes on disk, until
// ctx is cancelled. Editors that replace-on-save emit Create rather
// than Write, so both ops trigger a reload. Reload failures keep the
// previous dataset and are logged only.
func (s *Set) Watch(ctx context.Context, path string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: the file itself disappears during atomic
	// replace-on-save.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	target := filepath.Clean(path)
	logger.Info("fixtures: watching override file", slog.String("path", target))

	for {
		select {
		case <-ctx.Done():
			logger.Info("fixtures: watcher stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := s.LoadFile(target); err != nil {
				logger.Warn("fixtures: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Info("fixtures: reloaded", slog.String("path", target))

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("fixtures: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
