package deck

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the deck when its backing file changes on disk.
type Watcher struct {
	deck     *Deck
	log      *slog.Logger
	onReload func(size int)
}

// NewWatcher constructs a Watcher for the provided deck. onReload, when not
// nil, is invoked after every successful reload with the new deck size.
func NewWatcher(deck *Deck, log *slog.Logger, onReload func(size int)) *Watcher {
	if log == nil {
		log = slog.Default()
	}

	return &Watcher{
		deck:     deck,
		log:      log,
		onReload: onReload,
	}
}

// Run watches the deck file directory until ctx is cancelled. Watching the
// directory rather than the file survives editors that replace the file on
// save.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(w.deck.Path())
	if err := watcher.Add(dir); err != nil {
		return err
	}

	target := filepath.Clean(w.deck.Path())

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("deck watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) reload() {
	if err := w.deck.Reload(); err != nil {
		w.log.Error("deck reload rejected, keeping previous cards",
			slog.String("path", w.deck.Path()),
			slog.Any("error", err),
		)
		return
	}

	size := w.deck.Size()
	w.log.Info("deck reloaded", slog.String("path", w.deck.Path()), slog.Int("cards", size))

	if w.onReload != nil {
		w.onReload(size)
	}
}
