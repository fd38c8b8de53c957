package host

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingContainer wraps MemoryContainer and counts scaffold builds, with an
// optional per-id failure.
type countingContainer struct {
	inner  *MemoryContainer
	failID string

	mu     sync.Mutex
	mounts int
}

func newCountingContainer() *countingContainer {
	return &countingContainer{inner: NewMemoryContainer()}
}

func (c *countingContainer) Mount(id string, cfg FrameConfig) (Mount, error) {
	if id == c.failID {
		return nil, errors.New("scaffold exploded")
	}
	c.mu.Lock()
	c.mounts++
	c.mu.Unlock()
	return c.inner.Mount(id, cfg)
}

func (c *countingContainer) mountCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounts
}

func newRegistryForTest(container Container) *Registry {
	return NewRegistry(container, nil, NewDiagnostics(), nil, nil)
}

func TestCreateRegistersFrame(t *testing.T) {
	r := newRegistryForTest(newCountingContainer())

	adapter := r.Create(FrameConfig{ID: "dino-run", Src: "https://games.example/dino", Title: "Dino Run"})
	require.NotNil(t, adapter)
	assert.Equal(t, "dino-run", adapter.ID())

	frame, ok := r.GetByID("dino-run")
	require.True(t, ok)
	assert.Equal(t, "Dino Run", frame.Config.Title)
	assert.Len(t, r.List(), 1)
	assert.Equal(t, 0, r.Diagnostics().Len())
}

func TestCreateRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		cfg  FrameConfig
	}{
		{name: "missing id", cfg: FrameConfig{Src: "https://games.example/x"}},
		{name: "missing src", cfg: FrameConfig{ID: "x"}},
		{name: "missing both", cfg: FrameConfig{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRegistryForTest(newCountingContainer())
			assert.Nil(t, r.Create(tt.cfg))
			assert.Empty(t, r.List())
			require.Equal(t, 1, r.Diagnostics().Len())
			assert.Contains(t, r.Diagnostics().Entries()[0], "id and src are required")
		})
	}
}

func TestCreateWithoutContainer(t *testing.T) {
	r := newRegistryForTest(nil)
	assert.Nil(t, r.Create(FrameConfig{ID: "a", Src: "https://games.example/a"}))
	require.Equal(t, 1, r.Diagnostics().Len())
	assert.Contains(t, r.Diagnostics().Entries()[0], "no container")
}

func TestCreateScaffoldFailureIsDiagnosedNotFatal(t *testing.T) {
	container := newCountingContainer()
	container.failID = "broken"
	r := newRegistryForTest(container)

	assert.Nil(t, r.Create(FrameConfig{ID: "broken", Src: "https://games.example/broken"}))
	_, ok := r.GetByID("broken")
	assert.False(t, ok)
	require.Equal(t, 1, r.Diagnostics().Len())
	assert.Contains(t, r.Diagnostics().Entries()[0], "scaffold failed")
}

func TestDuplicateIDReturnsExistingInstance(t *testing.T) {
	container := newCountingContainer()
	r := newRegistryForTest(container)
	cfg := FrameConfig{ID: "dup", Src: "https://games.example/dup"}

	first := r.Create(cfg)
	second := r.Create(cfg)

	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.Equal(t, 1, container.mountCount(), "no second scaffold for a duplicate id")
	assert.Len(t, r.List(), 1)
}

func TestCreateAllContinuesPastFailures(t *testing.T) {
	container := newCountingContainer()
	container.failID = "bad"
	r := newRegistryForTest(container)

	adapters := r.CreateAll([]FrameConfig{
		{ID: "first", Src: "https://games.example/1"},
		{ID: "bad", Src: "https://games.example/2"},
		{ID: "", Src: "https://games.example/3"},
		{ID: "last", Src: "https://games.example/4"},
	})

	require.Len(t, adapters, 2)
	assert.Equal(t, "first", adapters[0].ID())
	assert.Equal(t, "last", adapters[1].ID())
	assert.Equal(t, 2, r.Diagnostics().Len())
}

func TestRemoveReleasesScaffold(t *testing.T) {
	container := newCountingContainer()
	r := newRegistryForTest(container)
	r.Create(FrameConfig{ID: "gone", Src: "https://games.example/gone"})

	frame, ok := r.GetByID("gone")
	require.True(t, ok)
	mount := frame.Mount.(*MemoryMount)

	assert.True(t, r.Remove("gone"))
	assert.True(t, mount.Released())
	_, ok = r.GetByID("gone")
	assert.False(t, ok)

	assert.False(t, r.Remove("gone"), "second remove finds nothing")
}

func TestDiagnosticsAppendOnly(t *testing.T) {
	d := NewDiagnostics()
	d.Append("frame %s failed", "one")
	d.Append("frame %s failed", "two")

	entries := d.Entries()
	require.Len(t, entries, 2)
	assert.True(t, strings.HasSuffix(entries[0], "frame one failed"))
	assert.True(t, strings.HasSuffix(entries[1], "frame two failed"))

	// Mutating the returned slice leaves the log untouched.
	entries[0] = "tampered"
	assert.True(t, strings.HasSuffix(d.Entries()[0], "frame one failed"))
	assert.Equal(t, 2, d.Len())
}
