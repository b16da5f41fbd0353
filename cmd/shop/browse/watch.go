package browse

import (
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// cartWatcher observes the cart file so concurrent shop invocations show up
// in the running session. It watches the parent directory because the file
// is replaced by rename on every save and may not exist yet.
type cartWatcher struct {
	w    *fsnotify.Watcher
	file string
}

func newCartWatcher(path string) (*cartWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	return &cartWatcher{w: w, file: filepath.Base(path)}, nil
}

// next blocks until the cart file changes. The returned command is re-issued
// from Update after every cartChangedMsg.
func (c *cartWatcher) next() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-c.w.Events:
				if !ok {
					return watchClosedMsg{}
				}
				if filepath.Base(ev.Name) != c.file {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					return cartChangedMsg{}
				}
			case _, ok := <-c.w.Errors:
				if !ok {
					return watchClosedMsg{}
				}
			}
		}
	}
}

func (c *cartWatcher) Close() error {
	return c.w.Close()
}
