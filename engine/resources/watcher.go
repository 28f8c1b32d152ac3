package resources

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/vista/engine/core"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
)

// AssetChange notifies that an asset was written, created or removed.
type AssetChange struct {
	AssetID string
	Type    metadata.ResourceType
	Removed bool
	Time    time.Time
}

/**
 * @brief Watches the asset directory recursively and publishes changed asset ids.
 * Deciding what to reload is up to the consumer.
 */
type Watcher struct {
	locator  *FileLocator
	fsnotify *fsnotify.Watcher

	changes chan AssetChange
	errors  chan error
	done    chan struct{}

	mutex    sync.Mutex
	isClosed bool
	wg       sync.WaitGroup
}

func NewWatcher(locator *FileLocator, buffer int) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if buffer < 1 {
		buffer = 1
	}
	return &Watcher{
		locator:  locator,
		fsnotify: fsWatch,
		changes:  make(chan AssetChange, buffer),
		errors:   make(chan error, 1),
		done:     make(chan struct{}),
	}, nil
}

// Start watches every directory under the base path.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.isClosed {
		return errors.New("asset watcher already closed")
	}
	if err := w.watchRecursive(w.locator.BasePath()); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.start()
	return nil
}

// Changes delivers notifications. It is closed by Close.
func (w *Watcher) Changes() <-chan AssetChange {
	return w.changes
}

func (w *Watcher) Errors() <-chan error {
	return w.errors
}

func (w *Watcher) Close() error {
	w.mutex.Lock()
	if w.isClosed {
		w.mutex.Unlock()
		return nil
	}
	w.isClosed = true
	w.mutex.Unlock()

	close(w.done)
	err := w.fsnotify.Close()
	w.wg.Wait()
	close(w.changes)
	close(w.errors)
	return err
}

func (w *Watcher) start() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			w.handle(e)

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)
			select {
			case w.errors <- err:
			default:
			}

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(e fsnotify.Event) {
	if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
		if e.Has(fsnotify.Create) {
			w.mutex.Lock()
			if err := w.watchRecursive(e.Name); err != nil {
				core.LogWarn("asset watcher cannot follow %s: %s", e.Name, err)
			}
			w.mutex.Unlock()
		}
		return
	}

	removed := e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename)
	if !removed && !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	id, ok := w.locator.AssetID(e.Name)
	if !ok {
		return
	}
	change := AssetChange{
		AssetID: id,
		Type:    DetermineResourceType(id),
		Removed: removed,
		Time:    time.Now(),
	}
	select {
	case w.changes <- change:
	case <-w.done:
	}
}

// watchRecursive adds all directories under the given one to the watch list.
func (w *Watcher) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return w.fsnotify.Add(walkPath)
		}
		return nil
	})
}
