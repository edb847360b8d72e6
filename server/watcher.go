package server

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MushroomFleet/wingman-support/game"
)

// WatchConfig reloads the ability tuning whenever the config file
// changes on disk. The new config is validated on load and applied at
// the next tick where the wingman is idle, so in-flight activations keep
// a consistent view. Blocks until the server shuts down.
func (s *Server) WatchConfig(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory; editors often replace the file on save, which
	// drops a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	var lastReload time.Time
	for {
		select {
		case <-s.done:
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce editor save bursts.
			if time.Since(lastReload) < 200*time.Millisecond {
				continue
			}
			lastReload = time.Now()

			cfg, err := game.LoadConfig(path)
			if err != nil {
				s.log.Warn().Err(err).Msg("config reload failed, keeping current tuning")
				continue
			}

			s.mu.Lock()
			s.pendingCfg = cfg
			s.mu.Unlock()
			s.log.Info().Str("path", path).Msg("config reloaded, will apply when idle")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn().Err(err).Msg("config watcher error")
		}
	}
}
