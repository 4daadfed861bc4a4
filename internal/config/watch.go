/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// WatchCatalog reloads the catalog at path on every write and hands it to
// onChange. A broken file is logged and the previous catalog stays active.
// It blocks until ctx is cancelled.
func WatchCatalog(ctx context.Context, path string, def Catalog, log zerolog.Logger, onChange func(Catalog)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("catalog: watching for changes")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// atomic saves show up as create
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			cat, err := LoadCatalog(path, def)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("catalog: reload failed; keeping previous")
				continue
			}
			log.Info().Strs("projects", cat.Projects).Msg("catalog: reloaded")
			onChange(cat)
			_ = watcher.Add(path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("catalog: watcher error")
		}
	}
}
