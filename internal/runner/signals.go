package runner

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SignalWatcher observes the .triad/signals directory so an operator can
// interrupt a running session by dropping a stop file.
type SignalWatcher struct {
	signalsDir string

	mu         sync.RWMutex
	stopSignal bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalWatcher creates a watcher rooted at the given project directory.
// If the fsnotify watcher cannot start, the watcher degrades to checking
// the signal file on demand.
func NewSignalWatcher(projectRoot string) (*SignalWatcher, error) {
	signalsDir := filepath.Join(projectRoot, ".triad", "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	sw := &SignalWatcher{
		signalsDir: signalsDir,
		done:       make(chan struct{}),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return sw, nil
	}
	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		return sw, nil
	}
	sw.watcher = watcher

	go sw.watch()

	return sw, nil
}

func (sw *SignalWatcher) watch() {
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != "stop" {
				continue
			}
			if event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0 {
				sw.mu.Lock()
				sw.stopSignal = true
				sw.mu.Unlock()
			}
		case <-sw.watcher.Errors:
			// Ignore errors, keep watching
		}
	}
}

// ShouldStop returns true when a stop signal has been received.
func (sw *SignalWatcher) ShouldStop() bool {
	// Also check the file directly in case the watcher missed it
	stopPath := filepath.Join(sw.signalsDir, "stop")
	if _, err := os.Stat(stopPath); err == nil {
		sw.mu.Lock()
		sw.stopSignal = true
		sw.mu.Unlock()
	}

	sw.mu.RLock()
	defer sw.mu.RUnlock()
	return sw.stopSignal
}

// SendStop creates the stop signal file.
func (sw *SignalWatcher) SendStop() error {
	path := filepath.Join(sw.signalsDir, "stop")
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// Clear removes the stop signal file and resets the watcher state.
func (sw *SignalWatcher) Clear() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.stopSignal = false
	os.Remove(filepath.Join(sw.signalsDir, "stop"))
}

// Close shuts down the watcher.
func (sw *SignalWatcher) Close() {
	close(sw.done)
	if sw.watcher != nil {
		sw.watcher.Close()
	}
}
