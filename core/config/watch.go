package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Watch observes the config file and invokes onChange with the re-parsed
// logging section whenever the file is rewritten. Only the logging section is
// re-applied at runtime; transport and database settings require a restart.
// The watcher stops when ctx is done.
func Watch(ctx context.Context, path string, onChange func(LoggingConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory: editors replace the file on save, which drops
	// a watch registered on the file itself.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if section, ok := reloadLogging(path); ok {
					onChange(section)
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

func reloadLogging(path string) (LoggingConfig, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LoggingConfig{}, false
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return LoggingConfig{}, false
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		return LoggingConfig{}, false
	}
	return cfg.Logging, true
}
