package config

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	appLog "github.com/aster-void/home-pa-sub000/internal/log"
)

const debounceDelay = 250 * time.Millisecond

// Watch reloads the config whenever the file changes and hands each
// accepted version to onChange. The parent directory is watched, not
// the file, because editors replace files by rename. Events are
// debounced to ride out partial writes, reloads with unchanged content
// are skipped, and a config that fails validation is rejected so the
// previous one stays in effect. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	file := filepath.Base(path)
	if err := w.Add(dir); err != nil {
		return err
	}
	appLog.Debug("config watcher started", "dir", dir, "file", file)

	var (
		timerMu  sync.Mutex
		timer    *time.Timer
		lastHash uint64
	)
	reload := func() {
		data, err := os.ReadFile(path)
		if err != nil {
			appLog.Error("config reload read failed", err, "path", path)
			return
		}
		cfg, err := parse(data)
		if err != nil {
			appLog.Error("config reload rejected", err, "path", path)
			return
		}

		h := hashConfig(cfg)
		timerMu.Lock()
		unchanged := h != 0 && h == lastHash
		if !unchanged {
			lastHash = h
		}
		timerMu.Unlock()
		if unchanged {
			appLog.Debug("config unchanged, skipping reload", "path", path)
			return
		}

		appLog.Info("config reloaded", "path", path)
		onChange(cfg)
	}
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceDelay, reload)
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Base(ev.Name), file) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove|fsnotify.Chmod) != 0 {
				debounce()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				appLog.Error("config watch error", err, "dir", dir)
			}
		}
	}
}

// hashConfig fingerprints the parsed config so editor writes that do
// not change content are not republished.
func hashConfig(cfg *Config) uint64 {
	data, err := yaml.Marshal(cfg)
	if err != nil || len(data) == 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(data)
	return h.Sum64()
}
