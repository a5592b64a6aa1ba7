package policy

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/vinayprograms/agentkit/logging"
)

// Watcher serves the current rule set and reloads it when the backing policy
// file changes. Swaps are atomic: callers always see a complete snapshot.
type Watcher struct {
	path    string
	logger  *logging.Logger
	fw      *fsnotify.Watcher
	done    chan struct{}
	mu      sync.RWMutex
	current *Rules
}

// NewWatcher loads the rules file and starts watching it for changes.
func NewWatcher(path string) (*Watcher, error) {
	rules, err := LoadRules(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		logger:  logging.New().WithComponent("policy"),
		fw:      fw,
		done:    make(chan struct{}),
		current: rules,
	}
	go w.loop()
	return w, nil
}

// Rules returns the current rule snapshot.
func (w *Watcher) Rules() *Rules {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Close stops watching. The last loaded snapshot remains available.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("policy watch error", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (w *Watcher) reload() {
	rules, err := LoadRules(w.path)
	if err != nil {
		// Keep serving the previous snapshot rather than dropping to no rules.
		w.logger.Error("policy reload failed", map[string]interface{}{
			"path":  w.path,
			"error": err.Error(),
		})
		return
	}
	w.mu.Lock()
	w.current = rules
	w.mu.Unlock()
	w.logger.Info("policy reloaded", map[string]interface{}{
		"path":      w.path,
		"blocklist": len(rules.blocklist),
	})
}
