package theme

import (
	"sync"

	"go.uber.org/zap"
)

// Controller holds the interactive theme state.
//
// It starts from the bootstrap rule, follows the color-scheme signal while
// active and flips on Toggle. Only Toggle writes the store.
type Controller struct {
	mu     sync.Mutex
	store  Store
	signal Signal
	doc    Document
	logger *zap.Logger

	current Theme
	active  bool
	gen     uint64
	cancel  func()
}

// New creates a Controller whose state is initialised with Resolve.
// A nil doc discards attribute writes.
func New(store Store, signal Signal, doc Document, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if doc == nil {
		doc = DocumentFunc(func(Theme) {})
	}
	return &Controller{
		store:   store,
		signal:  signal,
		doc:     doc,
		logger:  logger,
		current: Resolve(store, signal),
	}
}

// Theme returns the current theme.
func (c *Controller) Theme() Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Active reports whether the controller holds a signal subscription.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Activate subscribes to the color-scheme signal and writes the current
// theme to the document. Calling it on an active controller is a no-op.
func (c *Controller) Activate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return
	}
	c.active = true
	c.gen++
	gen := c.gen
	c.cancel = c.signal.Subscribe(func(prefersDark bool) {
		c.onSignal(gen, prefersDark)
	})
	c.doc.SetTheme(c.current)
	c.logger.Debug("theme controller activated", zap.Stringer("theme", c.current))
}

// Deactivate releases the signal subscription. Once it returns, signal
// changes no longer reach the controller.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.active = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.logger.Debug("theme controller deactivated")
}

// Toggle flips the theme, persists it under StorageKey and writes the
// document attribute. It returns the new theme.
func (c *Controller) Toggle() Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Opposite()
	c.store.Set(StorageKey, c.current.String())
	c.doc.SetTheme(c.current)
	c.logger.Debug("theme toggled", zap.Stringer("theme", c.current))
	return c.current
}

// onSignal mirrors an OS color-scheme change into the live state. A
// persisted preference does not block it; the next bootstrap still prefers
// the stored value.
func (c *Controller) onSignal(gen uint64, prefersDark bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || gen != c.gen {
		return
	}
	next := FromSignal(prefersDark)
	if next == c.current {
		return
	}
	c.current = next
	c.doc.SetTheme(next)
	c.logger.Debug("theme follows color-scheme change", zap.Stringer("theme", next))
}
