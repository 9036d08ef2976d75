package voxelizer

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher reloads a config file whenever it is written and delivers
// the validated result on Updates. Invalid edits are logged and dropped so
// the running config stays in effect.
type ConfigWatcher struct {
	path    string
	logger  Logger
	watcher *fsnotify.Watcher
	updates chan Config
	done    chan struct{}
	once    sync.Once
}

func WatchConfig(path string, logger Logger) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	// Editors replace files by rename, so the directory is watched.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	cw := &ConfigWatcher{
		path:    abs,
		logger:  LoggerOrNop(logger),
		watcher: w,
		updates: make(chan Config, 1),
		done:    make(chan struct{}),
	}
	go cw.run()
	return cw, nil
}

// Updates yields the latest valid config. Only the newest pending value is
// kept.
func (cw *ConfigWatcher) Updates() <-chan Config {
	return cw.updates
}

func (cw *ConfigWatcher) Close() error {
	var err error
	cw.once.Do(func() {
		close(cw.done)
		err = cw.watcher.Close()
	})
	return err
}

func (cw *ConfigWatcher) run() {
	for {
		select {
		case <-cw.done:
			return
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != cw.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cfg, err := LoadConfig(cw.path)
			if err != nil {
				cw.logger.Warnf("config reload ignored: %v", err)
				continue
			}
			cw.logger.Debugf("config reloaded from %s", cw.path)
			cw.publish(cfg)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warnf("config watcher: %v", err)
		}
	}
}

func (cw *ConfigWatcher) publish(cfg Config) {
	select {
	case <-cw.updates:
	default:
	}
	select {
	case cw.updates <- cfg:
	case <-cw.done:
	}
}
