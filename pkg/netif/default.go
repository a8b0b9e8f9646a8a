package netif

import "sync"

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// NewSystemEngine returns an engine on the platform inventory and watcher.
func NewSystemEngine(opts ...Option) *Engine {
	opts = append([]Option{WithWatcher(NewSystemWatcher())}, opts...)
	return NewEngine(NewSystemInventory(), opts...)
}

// Default returns the process-wide engine, creating it on first use. It
// monitors the system while at least one observer is registered. Prefer
// passing an explicit *Engine where possible.
func Default() *Engine {
	defaultOnce.Do(func() {
		defaultEngine = NewSystemEngine(WithAutoMonitor())
	})
	return defaultEngine
}
