package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, s := range []string{"dark", "light"} {
		got, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, Theme(s), got)
	}

	_, err := Parse("sepia")
	assert.Error(t, err)
	_, err = Parse("")
	assert.Error(t, err)
}

func TestOpposite(t *testing.T) {
	assert.Equal(t, Light, Dark.Opposite())
	assert.Equal(t, Dark, Light.Opposite())
}

func TestIsDarkMatchesSignal(t *testing.T) {
	for _, prefersDark := range []bool{true, false} {
		assert.Equal(t, prefersDark, FromSignal(prefersDark).IsDark())
	}
}

func TestResolvePersistedWins(t *testing.T) {
	for _, v := range []Theme{Dark, Light} {
		for _, prefersDark := range []bool{true, false} {
			store := NewMemoryStore()
			store.Set(StorageKey, v.String())
			got := Resolve(store, FixedSignal(prefersDark))
			assert.Equal(t, v, got, "persisted %s, prefersDark=%v", v, prefersDark)
		}
	}
}

func TestResolveFallsBackToSignal(t *testing.T) {
	store := NewMemoryStore()
	assert.Equal(t, Dark, Resolve(store, FixedSignal(true)))
	assert.Equal(t, Light, Resolve(store, FixedSignal(false)))
}

func TestResolveIgnoresUnknownValue(t *testing.T) {
	store := NewMemoryStore()
	store.Set(StorageKey, "solarized")
	assert.Equal(t, Dark, Resolve(store, FixedSignal(true)))

	store.Set(StorageKey, "")
	assert.Equal(t, Light, Resolve(store, FixedSignal(false)))
}

func TestBroadcast(t *testing.T) {
	b := NewBroadcast(false)
	var got []bool
	cancel := b.Subscribe(func(v bool) { got = append(got, v) })
	assert.Equal(t, 1, b.Subscribers())

	b.Set(true)
	b.Set(true) // unchanged, no notification
	b.Set(false)
	assert.Equal(t, []bool{true, false}, got)

	cancel()
	assert.Equal(t, 0, b.Subscribers())
	b.Set(true)
	assert.Len(t, got, 2)
	assert.True(t, b.PrefersDark())
}

func TestMemoryStoreZeroValue(t *testing.T) {
	var s MemoryStore
	_, ok := s.Get(StorageKey)
	assert.False(t, ok)

	s.Set(StorageKey, "dark")
	v, ok := s.Get(StorageKey)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	s.Clear()
	_, ok = s.Get(StorageKey)
	assert.False(t, ok)
}
