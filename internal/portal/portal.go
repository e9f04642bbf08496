// Package portal reads the desktop color-scheme preference from the
// XDG desktop portal over the D-Bus session bus.
package portal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"github.com/harrisjose/homepage/internal/theme"
)

const (
	Destination       = "org.freedesktop.portal.Desktop"
	ObjectPath        = dbus.ObjectPath("/org/freedesktop/portal/desktop")
	SettingsInterface = "org.freedesktop.portal.Settings"
	Namespace         = "org.freedesktop.appearance"
	Key               = "color-scheme"

	settingChanged = SettingsInterface + ".SettingChanged"
)

// Portal color-scheme values.
const (
	NoPreference uint32 = iota
	PreferDark
	PreferLight
)

// ErrUnexpectedValue is returned when the portal answers with something other
// than a uint32 color scheme.
var ErrUnexpectedValue = errors.New("unexpected color-scheme value")

// ParseColorScheme reports whether v asks for a dark scheme. Nested variants
// are unwrapped; older portals wrap the value twice via Read.
func ParseColorScheme(v dbus.Variant) (bool, error) {
	for {
		inner, ok := v.Value().(dbus.Variant)
		if !ok {
			break
		}
		v = inner
	}
	scheme, ok := v.Value().(uint32)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnexpectedValue, v.Signature())
	}
	return scheme == PreferDark, nil
}

// Signal is a theme.Signal backed by the desktop portal. Changes arrive via
// the SettingChanged D-Bus signal and fan out to subscribers.
type Signal struct {
	conn   *dbus.Conn
	owned  bool
	bc     *theme.Broadcast
	logger *zap.Logger

	ch        chan *dbus.Signal
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// Connect opens a private session bus connection and starts watching the
// color scheme. Close releases the connection.
func Connect(logger *zap.Logger) (*Signal, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to session bus: %w", err)
	}
	s, err := NewSignal(conn, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.owned = true
	return s, nil
}

// NewSignal reads the current color scheme over conn and subscribes to
// changes. The caller keeps ownership of conn.
func NewSignal(conn *dbus.Conn, logger *zap.Logger) (*Signal, error) {
	v, err := readSetting(conn)
	if err != nil {
		return nil, err
	}
	dark, err := ParseColorScheme(v)
	if err != nil {
		return nil, err
	}

	if err := conn.AddMatchSignal(matchOptions()...); err != nil {
		return nil, fmt.Errorf("adding SettingChanged match: %w", err)
	}

	s := newSignal(dark, logger)
	s.conn = conn
	conn.Signal(s.ch)
	go s.run()

	s.logger.Debug("watching desktop color scheme", zap.Bool("dark", dark))
	return s, nil
}

func newSignal(dark bool, logger *zap.Logger) *Signal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Signal{
		bc:      theme.NewBroadcast(dark),
		logger:  logger,
		ch:      make(chan *dbus.Signal, 16),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func matchOptions() []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchObjectPath(ObjectPath),
		dbus.WithMatchInterface(SettingsInterface),
		dbus.WithMatchMember("SettingChanged"),
		dbus.WithMatchArg(0, Namespace),
	}
}

// readSetting prefers ReadOne and falls back to the deprecated Read.
func readSetting(conn *dbus.Conn) (dbus.Variant, error) {
	obj := conn.Object(Destination, ObjectPath)

	var v dbus.Variant
	err := obj.Call(SettingsInterface+".ReadOne", 0, Namespace, Key).Store(&v)
	if err == nil {
		return v, nil
	}
	if err := obj.Call(SettingsInterface+".Read", 0, Namespace, Key).Store(&v); err != nil {
		return dbus.Variant{}, fmt.Errorf("reading %s %s: %w", Namespace, Key, err)
	}
	return v, nil
}

// PrefersDark reports the last known desktop preference.
func (s *Signal) PrefersDark() bool {
	return s.bc.PrefersDark()
}

// Subscribe registers fn for preference changes.
func (s *Signal) Subscribe(fn func(bool)) (cancel func()) {
	return s.bc.Subscribe(fn)
}

// Close stops watching and releases the match rule. It is safe to call more
// than once.
func (s *Signal) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.conn != nil {
			s.conn.RemoveSignal(s.ch)
			err = s.conn.RemoveMatchSignal(matchOptions()...)
		}
		close(s.done)
		<-s.stopped
		if s.owned {
			if cerr := s.conn.Close(); err == nil {
				err = cerr
			}
		}
	})
	return err
}

func (s *Signal) run() {
	defer close(s.stopped)
	for {
		select {
		case sig, ok := <-s.ch:
			if !ok {
				return
			}
			s.handle(sig)
		case <-s.done:
			return
		}
	}
}

func (s *Signal) handle(sig *dbus.Signal) {
	if sig == nil || sig.Name != settingChanged || len(sig.Body) != 3 {
		return
	}
	ns, _ := sig.Body[0].(string)
	key, _ := sig.Body[1].(string)
	if ns != Namespace || key != Key {
		return
	}
	v, ok := sig.Body[2].(dbus.Variant)
	if !ok {
		s.logger.Warn("SettingChanged without variant value")
		return
	}
	dark, err := ParseColorScheme(v)
	if err != nil {
		s.logger.Warn("ignoring color-scheme change", zap.Error(err))
		return
	}
	s.logger.Debug("desktop color scheme changed", zap.Bool("dark", dark))
	s.bc.Set(dark)
}

var _ theme.Signal = (*Signal)(nil)
