package prompts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// Watch reloads the registry whenever a template in the override directory
// changes. It blocks until ctx is done. A failed reload keeps the previous
// templates and is logged.
func (r *Registry) Watch(ctx context.Context, logger *slog.Logger) error {
	if r.overrideDir == "" {
		return errors.New("prompts: no override directory to watch")
	}
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("prompts: create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(r.overrideDir); err != nil {
		return fmt.Errorf("prompts: watch %s: %w", r.overrideDir, err)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		if err := r.Reload(); err != nil {
			logger.Error("prompt reload failed", slog.String("dir", r.overrideDir), slog.Any("error", err))
			return
		}
		logger.Info("prompts reloaded", slog.String("dir", r.overrideDir))
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, reload)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("prompt watcher error", slog.Any("error", err))
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !strings.HasSuffix(filepath.Base(ev.Name), ".tmpl") {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
