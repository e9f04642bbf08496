// Package theme resolves and persists the site's dark/light display theme.
//
// The active theme is derived from two signals: a persisted preference kept
// in a key-value store under StorageKey, and the operating environment's
// color-scheme preference. A persisted preference always wins when present.
package theme

import "fmt"

// Theme is the display theme applied to the document.
type Theme string

const (
	Dark  Theme = "dark"
	Light Theme = "light"
)

// StorageKey is the key the persisted preference is stored under.
const StorageKey = "hpj-theme"

// Attribute is the document attribute the theme is written to.
const Attribute = "data-theme"

// Parse converts a stored or submitted value to a Theme.
func Parse(s string) (Theme, error) {
	switch Theme(s) {
	case Dark, Light:
		return Theme(s), nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// FromSignal maps an OS color-scheme signal to a Theme.
func FromSignal(prefersDark bool) Theme {
	if prefersDark {
		return Dark
	}
	return Light
}

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// IsDark reports whether t is the dark theme.
func (t Theme) IsDark() bool { return t == Dark }

func (t Theme) String() string { return string(t) }

// Store is a durable key-value store holding the persisted preference.
// Implementations absorb their own backend failures: a failed read is
// reported as a missing value.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Signal reports the environment's color-scheme preference and notifies
// subscribers when it changes. The returned cancel function releases the
// subscription; after it returns the callback is not invoked again.
type Signal interface {
	PrefersDark() bool
	Subscribe(fn func(prefersDark bool)) (cancel func())
}

// Document receives the theme attribute.
type Document interface {
	SetTheme(Theme)
}

// DocumentFunc adapts a function to the Document interface.
type DocumentFunc func(Theme)

// SetTheme calls f(t).
func (f DocumentFunc) SetTheme(t Theme) { f(t) }

// Stored returns the persisted preference, if any. Values that are not a
// known theme are treated as absent.
func Stored(store Store) (Theme, bool) {
	v, ok := store.Get(StorageKey)
	if !ok || v == "" {
		return "", false
	}
	t, err := Parse(v)
	if err != nil {
		return "", false
	}
	return t, true
}

// Resolve performs bootstrap resolution: the persisted preference verbatim
// if present, otherwise dark iff the signal reports a dark preference.
func Resolve(store Store, signal Signal) Theme {
	if t, ok := Stored(store); ok {
		return t
	}
	return FromSignal(signal.PrefersDark())
}
