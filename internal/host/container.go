package host

import "sync"

// FrameConfig describes one guest frame. ID must be caller-unique and Src
// points at the guest content.
type FrameConfig struct {
	ID    string `yaml:"id" json:"id"`
	Src   string `yaml:"src" json:"src"`
	Title string `yaml:"title" json:"title"`
	Theme string `yaml:"theme" json:"theme"`
}

// Container is the UI layer collaborator that provides frame scaffolding.
// It must exist before frames are created.
type Container interface {
	// Mount builds the scaffold for one frame. An error aborts only that
	// frame's creation.
	Mount(id string, cfg FrameConfig) (Mount, error)
}

// Mount is one frame's scaffold handle: embedding element, toolbar, info
// panel mount point, and overlay.
type Mount interface {
	// Title updates the frame's toolbar title.
	Title(title string)
	// ShowOverlay toggles the frame's loading overlay.
	ShowOverlay(visible bool)
	// Release tears the scaffold down.
	Release()
}

// NopMount is a Mount for headless operation and tests.
type NopMount struct{}

func (NopMount) Title(string)     {}
func (NopMount) ShowOverlay(bool) {}
func (NopMount) Release()         {}

// MemoryContainer tracks scaffold state in memory. The backend runs with it
// when no real UI layer is attached; the REST surface still reflects titles
// and overlay state.
type MemoryContainer struct {
	mu     sync.Mutex
	mounts map[string]*MemoryMount
}

// NewMemoryContainer creates an empty in-memory container.
func NewMemoryContainer() *MemoryContainer {
	return &MemoryContainer{mounts: make(map[string]*MemoryMount)}
}

// Mount builds an in-memory scaffold. The overlay starts visible, matching
// a freshly built frame still loading its guest.
func (c *MemoryContainer) Mount(id string, cfg FrameConfig) (Mount, error) {
	m := &MemoryMount{title: cfg.Title, overlay: true}
	c.mu.Lock()
	c.mounts[id] = m
	c.mu.Unlock()
	return m, nil
}

// MemoryMount is the in-memory scaffold handle.
type MemoryMount struct {
	mu       sync.Mutex
	title    string
	overlay  bool
	released bool
}

func (m *MemoryMount) Title(title string) {
	m.mu.Lock()
	m.title = title
	m.mu.Unlock()
}

func (m *MemoryMount) ShowOverlay(visible bool) {
	m.mu.Lock()
	m.overlay = visible
	m.mu.Unlock()
}

func (m *MemoryMount) Release() {
	m.mu.Lock()
	m.released = true
	m.mu.Unlock()
}

// CurrentTitle returns the scaffold's title.
func (m *MemoryMount) CurrentTitle() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title
}

// OverlayVisible reports the overlay state.
func (m *MemoryMount) OverlayVisible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlay
}

// Released reports whether the scaffold has been torn down.
func (m *MemoryMount) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}
