package theme

import "sync"

// FixedSignal is a color-scheme signal that never changes.
type FixedSignal bool

// PrefersDark returns the fixed value.
func (s FixedSignal) PrefersDark() bool { return bool(s) }

// Subscribe never calls fn.
func (s FixedSignal) Subscribe(fn func(bool)) func() { return func() {} }

// Broadcast is a settable color-scheme signal that fans changes out to its
// subscribers. The zero value reports a light preference.
type Broadcast struct {
	mu          sync.Mutex
	prefersDark bool
	next        int
	subs        map[int]func(bool)
}

// NewBroadcast returns a Broadcast starting at the given value.
func NewBroadcast(prefersDark bool) *Broadcast {
	return &Broadcast{prefersDark: prefersDark}
}

// PrefersDark returns the current value.
func (b *Broadcast) PrefersDark() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.prefersDark
}

// Subscribe registers fn for change notifications.
func (b *Broadcast) Subscribe(fn func(bool)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]func(bool))
	}
	id := b.next
	b.next++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Set updates the value and notifies subscribers if it changed.
// Subscribers run on the caller's goroutine, outside the lock.
func (b *Broadcast) Set(prefersDark bool) {
	b.mu.Lock()
	if b.prefersDark == prefersDark {
		b.mu.Unlock()
		return
	}
	b.prefersDark = prefersDark
	fns := make([]func(bool), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(prefersDark)
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcast) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
