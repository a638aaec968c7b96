package broadcast

import (
	"context"
	"os"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"

	"github.com/tailsrv/tailsrv/internal/logging"
)

// Watcher converts filesystem events on the broadcast file into
// length-cell updates and client wake-ups.
type Watcher struct {
	file     *BroadcastFile
	registry *Registry
	fsw      *fsnotify.Watcher
	linger   bool
}

// NewWatcher subscribes to modify/rename/attribute-change events on
// file's path. linger controls what happens when the file disappears.
func NewWatcher(file *BroadcastFile, registry *Registry, linger bool) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(file.Path()); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return &Watcher{file: file, registry: registry, fsw: fsw, linger: linger}, nil
}

// Close stops watching. The caller is responsible for not using the
// Watcher afterward.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run processes filesystem events until ctx is done, the file
// disappears without linger, or the subscription itself dies. It does
// not return on disappearance-with-linger; callers that want the
// process to keep running simply let Run keep looping.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warnf("watcher: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	switch {
	case event.Op.Has(fsnotify.Write):
		w.onGrow()
	case event.Op.Has(fsnotify.Rename):
		w.onDisappear("file moved")
	case event.Op.Has(fsnotify.Chmod):
		if w.nlink() == 0 {
			w.onDisappear("file unlinked")
		}
	default:
		logging.Warnf("watcher: ignoring event %s", event)
	}
}

// onGrow fstats the retained handle, stores the new length, and wakes
// every attached session. Ordering: the store happens before WakeAll,
// so any session that wakes and loads the cell sees a length at least
// as large as the one that caused its wake-up.
func (w *Watcher) onGrow() {
	var st unix.Stat_t
	if err := unix.Fstat(int(w.file.Handle().Fd()), &st); err != nil {
		logging.Warnf("watcher: fstat %s: %v", w.file.Path(), err)
		return
	}
	w.file.Length().Store(uint64(st.Size))
	w.registry.WakeAll()
}

func (w *Watcher) nlink() uint64 {
	var st unix.Stat_t
	if err := unix.Fstat(int(w.file.Handle().Fd()), &st); err != nil {
		// Treat a failed fstat as "still there" — deletion is confirmed
		// positively via nlink, not inferred from an unrelated error.
		return 1
	}
	return uint64(st.Nlink)
}

func (w *Watcher) onDisappear(reason string) {
	logging.Infof("watcher: %s: %s", w.file.Path(), reason)
	if w.linger {
		logging.Infof("watcher: --linger-after-file-is-gone set, continuing to run")
		return
	}
	os.Exit(0)
}
