package settings

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"v2t/log"
)

// Watch starts following the settings file for external edits. Writes
// made through the store reload to identical content and are therefore
// never signalled on Changed.
func (s *Store) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warnf("fsnotify unavailable, falling back to polling: %v", err)
		go s.pollLoop()
		return nil
	}

	// Watch the directory, not the file: atomic saves replace the inode
	// and a watch on the old one would go quiet.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		log.Warnf("cannot watch settings dir, falling back to polling: %v", err)
		go s.pollLoop()
		return nil
	}

	go s.watchLoop(watcher)
	return nil
}

func (s *Store) watchLoop(watcher *fsnotify.Watcher) {
	defer watcher.Close()

	// Debounce: editors fire several events per save.
	var pending <-chan time.Time

	for {
		select {
		case <-s.stop:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(s.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(100 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("settings watcher: %v", err)
		case <-pending:
			pending = nil
			s.reload()
		}
	}
}

// pollLoop is the fallback when inotify watches are unavailable.
func (s *Store) pollLoop() {
	var lastMod time.Time
	if info, err := os.Stat(s.path); err == nil {
		lastMod = info.ModTime()
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			info, err := os.Stat(s.path)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastMod) {
				lastMod = info.ModTime()
				s.reload()
			}
		}
	}
}
