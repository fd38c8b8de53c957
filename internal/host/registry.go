package host

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pixeljam/devwatch/internal/infrastructure/monitoring"
)

// Consecutive missed heartbeats before a frame is reported lost.
const heartbeatMissThreshold = 3

// Frame is one registered guest frame instance: its scaffold, its
// configuration, and the adapter routing its protocol traffic.
type Frame struct {
	ID      string
	Config  FrameConfig
	Mount   Mount
	Adapter *Adapter
	Health  *Liveness
}

// Registry owns the dashboard's guest frames. Creation and removal are
// synchronous per call; individual frames fail independently.
type Registry struct {
	container Container
	auth      *AuthService
	diags     *Diagnostics
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	mu     sync.RWMutex
	frames map[string]*Frame
}

// NewRegistry builds an empty registry. The container collaborator must be
// in place before any frame is created.
func NewRegistry(container Container, auth *AuthService, diags *Diagnostics, metrics *monitoring.Metrics, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if diags == nil {
		diags = NewDiagnostics()
	}
	return &Registry{
		container: container,
		auth:      auth,
		diags:     diags,
		logger:    logger,
		frames:    make(map[string]*Frame),
	}
}

// Diagnostics returns the registry's failure log.
func (r *Registry) Diagnostics() *Diagnostics {
	return r.diags
}

// Create builds the scaffold and adapter for one guest frame and returns
// the adapter. On any failure it appends a diagnostic and returns nil so a
// bootstrap batch can continue past it. A duplicate id returns the existing
// adapter with a warning; a second scaffold is never built.
func (r *Registry) Create(cfg FrameConfig) *Adapter {
	if cfg.ID == "" || cfg.Src == "" {
		r.diags.Append("frame rejected: id and src are required (id=%q src=%q)", cfg.ID, cfg.Src)
		r.countFailure()
		r.logger.Error("frame rejected", zap.String("id", cfg.ID), zap.String("src", cfg.Src))
		return nil
	}

	r.mu.Lock()
	if existing, ok := r.frames[cfg.ID]; ok {
		r.mu.Unlock()
		r.logger.Warn("duplicate frame id, returning existing instance", zap.String("id", cfg.ID))
		return existing.Adapter
	}
	r.mu.Unlock()

	if r.container == nil {
		r.diags.Append("frame %s: no container available", cfg.ID)
		r.countFailure()
		r.logger.Error("frame creation failed: no container", zap.String("id", cfg.ID))
		return nil
	}

	mount, err := r.container.Mount(cfg.ID, cfg)
	if err != nil {
		r.diags.Append("frame %s: scaffold failed: %v", cfg.ID, err)
		r.countFailure()
		r.logger.Error("frame scaffold failed", zap.String("id", cfg.ID), zap.Error(err))
		return nil
	}

	adapter := newAdapter(cfg, mount, r.auth, r.metrics, r.logger)
	health := NewLiveness(heartbeatMissThreshold, func(from, to HealthState) {
		r.logger.Warn("frame health changed",
			zap.String("id", cfg.ID),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	})
	frame := &Frame{ID: cfg.ID, Config: cfg, Mount: mount, Adapter: adapter, Health: health}

	r.mu.Lock()
	// A racing Create for the same id may have landed while the scaffold
	// was being built; the first registration wins.
	if existing, ok := r.frames[cfg.ID]; ok {
		r.mu.Unlock()
		mount.Release()
		r.logger.Warn("duplicate frame id, returning existing instance", zap.String("id", cfg.ID))
		return existing.Adapter
	}
	r.frames[cfg.ID] = frame
	count := len(r.frames)
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.FramesCreated.Inc()
		r.metrics.FramesActive.Set(float64(count))
	}
	r.logger.Info("frame created", zap.String("id", cfg.ID), zap.String("src", cfg.Src))
	return adapter
}

func (r *Registry) countFailure() {
	if r.metrics != nil {
		r.metrics.FramesFailed.Inc()
	}
}

// CreateAll creates a batch of frames, continuing past individual failures.
// It returns the adapters that were created (or already existed).
func (r *Registry) CreateAll(cfgs []FrameConfig) []*Adapter {
	adapters := make([]*Adapter, 0, len(cfgs))
	for _, cfg := range cfgs {
		if adapter := r.Create(cfg); adapter != nil {
			adapters = append(adapters, adapter)
		}
	}
	return adapters
}

// GetByID looks a frame up. The boolean is false when absent.
func (r *Registry) GetByID(id string) (*Frame, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	frame, ok := r.frames[id]
	return frame, ok
}

// AdapterByID looks an adapter up directly.
func (r *Registry) AdapterByID(id string) (*Adapter, bool) {
	frame, ok := r.GetByID(id)
	if !ok {
		return nil, false
	}
	return frame.Adapter, true
}

// List returns all frames in no particular order.
func (r *Registry) List() []*Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	frames := make([]*Frame, 0, len(r.frames))
	for _, frame := range r.frames {
		frames = append(frames, frame)
	}
	return frames
}

// Remove tears one frame down: transport unbound, scaffold released.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	frame, ok := r.frames[id]
	if ok {
		delete(r.frames, id)
	}
	count := len(r.frames)
	r.mu.Unlock()

	if !ok {
		return false
	}

	frame.Adapter.Unbind()
	frame.Mount.Release()
	if r.metrics != nil {
		r.metrics.FramesActive.Set(float64(count))
	}
	r.logger.Info("frame removed", zap.String("id", id))
	return true
}

// StartHeartbeat pings every connected frame at the given interval until
// ctx is cancelled. Frames that miss a reply are logged; routing state is
// left to the websocket layer, which observes the disconnect itself.
func (r *Registry) StartHeartbeat(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweep(ctx, interval/2)
			}
		}
	}()
}

func (r *Registry) sweep(ctx context.Context, timeout time.Duration) {
	for _, frame := range r.List() {
		if !frame.Adapter.Connected() {
			continue
		}
		frame := frame
		go func() {
			_, ok := frame.Adapter.Ping(ctx, timeout)
			if !ok {
				r.logger.Warn("heartbeat missed", zap.String("id", frame.ID))
			}
			frame.Health.Observe(ok)
		}()
	}
}
