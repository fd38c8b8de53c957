package guest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pixeljam/devwatch/internal/correlate"
	"github.com/pixeljam/devwatch/internal/dispatch"
	"github.com/pixeljam/devwatch/internal/protocol"
	"github.com/pixeljam/devwatch/internal/security"
	"github.com/pixeljam/devwatch/internal/transport"
)

// State is the lifecycle position of a protocol core.
type State int

const (
	StateUninitialized State = iota
	StateValidating
	StateReady
	StateBlocked
)

func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateReady:
		return "ready"
	case StateBlocked:
		return "blocked"
	default:
		return "uninitialized"
	}
}

// Core composes the guest-side protocol: embedder validation, readiness
// gate, event dispatch, request correlation, and heartbeat reply.
//
// One Core per guest process. Construction is explicit; a duplicate core is
// the caller's bug to check for, there is no ambient install flag.
type Core struct {
	opts       Options
	tr         transport.Transport
	logger     *zap.Logger
	dispatcher *dispatch.Dispatcher
	correlator *correlate.Correlator
	validator  *security.Validator
	gate       *gate

	mu             sync.Mutex
	state          State
	ready          bool
	validated      bool
	contentLoaded  bool
	closed         bool
	theme          string
	standaloneTick *time.Timer
}

// New builds a core over a transport. A nil transport means the guest is
// running standalone (not embedded); validation is skipped and outbound
// traffic stays local.
func New(opts Options, tr transport.Transport, logger *zap.Logger) *Core {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()

	c := &Core{
		opts:       opts,
		tr:         tr,
		logger:     logger,
		dispatcher: dispatch.New(logger),
		validator:  security.New(opts.AllowedDomains),
		gate:       &gate{},
		state:      StateUninitialized,
		theme:      opts.Theme,
	}
	c.correlator = correlate.New(c.sendForCorrelation, c.dispatcher)
	return c
}

// Embedded reports whether the guest is attached to a host.
func (c *Core) Embedded() bool {
	return c.tr != nil
}

// State returns the current lifecycle state.
func (c *Core) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsReady reports whether the readiness gate has opened.
func (c *Core) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Theme returns the currently applied theme.
func (c *Core) Theme() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.theme
}

// QueuedMessages returns the number of messages held by the readiness gate.
func (c *Core) QueuedMessages() int {
	return c.gate.size()
}

// Start runs the lifecycle transition out of Uninitialized. Embedded guests
// validate their embedder; standalone guests schedule the synthetic ready
// shortcut. Single call expected per process.
func (c *Core) Start() {
	if !c.Embedded() {
		c.startStandalone()
		return
	}

	c.mu.Lock()
	c.state = StateValidating
	c.mu.Unlock()

	if err := c.validator.Validate(c.opts.EmbedderURL, c.opts.Hostname); err != nil {
		c.block()
		return
	}

	c.mu.Lock()
	c.validated = true
	c.mu.Unlock()

	c.tr.SetReceiver(c.handleInbound)
	c.logger.Info("embedder validated",
		zap.String("embedder", c.opts.EmbedderURL),
	)

	if !c.opts.WaitForContent {
		c.NotifyContentLoaded()
	}
}

// startStandalone takes the synthetic shortcut straight to Ready, after the
// configured delay. The timer is owned by the core and cancelled on Close.
func (c *Core) startStandalone() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.standaloneTick = time.AfterFunc(c.opts.StandaloneReadyDelay, func() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.state = StateReady
		c.ready = true
		theme := c.theme
		c.mu.Unlock()

		c.applyTheme(theme)
		c.callHook(func(h Hooks) {
			if h.OnReady != nil {
				h.OnReady()
			}
		})
	})
	c.mu.Unlock()
}

// block is the terminal validation-failure transition.
func (c *Core) block() {
	c.mu.Lock()
	c.state = StateBlocked
	c.gate.drain()
	c.mu.Unlock()

	c.logger.Warn("embedder validation failed, guest locked out",
		zap.String("embedder", c.opts.EmbedderURL),
		zap.String("hostname", c.opts.Hostname),
	)
	c.callHook(func(h Hooks) {
		if h.OnBlocked != nil {
			h.OnBlocked(security.LockoutNotice())
		}
	})
}

// NotifyContentLoaded marks the guest's structural content as loaded.
// Readiness requires both a passed validation and loaded content.
func (c *Core) NotifyContentLoaded() {
	c.mu.Lock()
	c.contentLoaded = true
	fire := c.validated && !c.ready && c.state != StateBlocked && !c.closed
	var pending []queued
	if fire {
		c.state = StateReady
		c.ready = true
		pending = c.gate.drain()
	}
	c.mu.Unlock()

	if !fire {
		return
	}

	// Handshake first, then the gated backlog in original order. The
	// handshake never rides the gate.
	c.transmit(protocol.TypeIframeReady, map[string]any{"theme": c.Theme()})
	for _, msg := range pending {
		c.transmit(msg.msgType, msg.data)
	}
	c.logger.Info("guest ready", zap.Int("flushed", len(pending)))

	c.callHook(func(h Hooks) {
		if h.OnReady != nil {
			h.OnReady()
		}
	})
}

// SendMessage sends an application message toward the host. Standalone
// guests drop it, guests that are not yet ready queue it, ready guests
// transmit immediately.
func (c *Core) SendMessage(msgType string, data map[string]any) {
	if !c.Embedded() {
		return
	}

	c.mu.Lock()
	if c.closed || c.state == StateBlocked {
		c.mu.Unlock()
		return
	}
	if !c.ready {
		c.gate.enqueue(msgType, data)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.transmit(msgType, data)
}

// transmit serializes and sends immediately, bypassing the gate.
func (c *Core) transmit(msgType string, data map[string]any) {
	if err := c.tr.Send(protocol.New(protocol.TagGuest, msgType, data)); err != nil {
		c.logger.Warn("send failed", zap.String("type", msgType), zap.Error(err))
	}
}

// sendForCorrelation is the correlator's send path; correlated requests are
// ordinary outbound messages and respect the gate.
func (c *Core) sendForCorrelation(msgType string, data map[string]any) error {
	c.SendMessage(msgType, data)
	return nil
}

// RequestTheme asks the host for the current theme.
func (c *Core) RequestTheme() {
	c.SendMessage(protocol.TypeGetTheme, nil)
}

// SetTheme applies a theme locally: records it, emits the game-namespace
// theme-changed event, and invokes the OnTheme hook.
func (c *Core) SetTheme(theme string) {
	c.mu.Lock()
	c.theme = theme
	c.mu.Unlock()
	c.applyTheme(theme)
}

func (c *Core) applyTheme(theme string) {
	c.dispatcher.Emit(dispatch.NamespaceGame, "theme-changed", map[string]any{"theme": theme})
	c.callHook(func(h Hooks) {
		if h.OnTheme != nil {
			h.OnTheme(theme)
		}
	})
}

// SetTitle reports the guest's display title to the host toolbar.
func (c *Core) SetTitle(title string) {
	c.SendMessage(protocol.TypeTitleUpdate, map[string]any{"title": title})
}

// SendAssetInfo reports asset metadata to the host.
func (c *Core) SendAssetInfo(data map[string]any) {
	c.SendMessage(protocol.TypeAssetInfo, data)
}

// CheckAuth asks the host whether a user is signed in. It resolves to the
// user object from the first matching response, or nil on timeout or when
// the guest is not embedded. It never fails.
func (c *Core) CheckAuth(ctx context.Context) map[string]any {
	if !c.Embedded() {
		return nil
	}
	c.mu.Lock()
	blocked := c.state == StateBlocked || c.closed
	c.mu.Unlock()
	if blocked {
		return nil
	}

	payload, ok := c.correlator.Issue(ctx, protocol.TypeAuthCheck, nil, protocol.TypeAuthResponse, c.opts.AuthTimeout)
	if !ok {
		return nil
	}
	if user, ok := payload["user"].(map[string]any); ok {
		return user
	}
	return nil
}

// Log writes a structured diagnostic locally and relays it to the host.
// Level is one of debug, info, warn, error; anything else logs as info.
func (c *Core) Log(message, level string, data map[string]any) {
	fields := []zap.Field{zap.Any("data", data)}
	switch level {
	case "debug":
		c.logger.Debug(message, fields...)
	case "warn":
		c.logger.Warn(message, fields...)
	case "error":
		c.logger.Error(message, fields...)
	default:
		level = "info"
		c.logger.Info(message, fields...)
	}

	c.SendMessage(protocol.TypeGameLog, map[string]any{
		"message": message,
		"level":   level,
		"data":    data,
	})
}

// On subscribes to events and returns the unsubscribe closure. The iframe
// namespace sees every inbound envelope verbatim; the game namespace sees
// open application messages and local events such as theme-changed.
func (c *Core) On(ns dispatch.Namespace, eventType string, fn dispatch.Handler) func() {
	return c.dispatcher.Subscribe(ns, eventType, fn)
}

// handleInbound routes a host-originated envelope.
func (c *Core) handleInbound(env protocol.Envelope) {
	c.mu.Lock()
	if c.closed || c.state == StateBlocked {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// Only the counterparty's envelopes are acted on. Self-authored or
	// foreign-tagged traffic produces no dispatch and no state change.
	if env.Source != protocol.TagHost {
		c.logger.Debug("dropping envelope with unexpected source",
			zap.String("source", string(env.Source)),
			zap.String("type", env.Type),
		)
		return
	}

	// Raw pass-through happens for every accepted envelope, reserved or not.
	c.dispatcher.Emit(dispatch.NamespaceIframe, env.Type, env.Data)

	reserved, ok := protocol.ReservedFromType(env.Type)
	if !ok {
		// Open application message: game namespace plus the legacy hook.
		c.dispatcher.Emit(dispatch.NamespaceGame, env.Type, env.Data)
		c.callHook(func(h Hooks) {
			if h.OnMessage != nil {
				h.OnMessage(env.Type, env.Data)
			}
		})
		return
	}

	switch reserved {
	case protocol.ReservedSetTheme:
		if theme, ok := env.Data["theme"].(string); ok && theme != "" {
			c.SetTheme(theme)
		}
	case protocol.ReservedPing:
		// Liveness reply is unconditional and never waits on the gate.
		if err := c.tr.Send(protocol.Pong(protocol.TagGuest, env)); err != nil {
			c.logger.Warn("pong failed", zap.Error(err))
		}
	case protocol.ReservedShowInfoPanel:
		c.callHook(func(h Hooks) {
			if h.OnInfoPanel != nil {
				h.OnInfoPanel(true)
			}
		})
	case protocol.ReservedHideInfoPanel:
		c.callHook(func(h Hooks) {
			if h.OnInfoPanel != nil {
				h.OnInfoPanel(false)
			}
		})
	case protocol.ReservedSetCredits:
		c.callHook(func(h Hooks) {
			if h.OnCredits != nil {
				h.OnCredits(env.Data)
			}
		})
	case protocol.ReservedAuthResponse, protocol.ReservedPong:
		// Consumed by correlators through the iframe pass-through above.
	}
}

// Close sends the best-effort unload notice, fires OnUnload, cancels owned
// timers, and releases the transport. Safe to call once per process exit.
func (c *Core) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.standaloneTick != nil {
		c.standaloneTick.Stop()
		c.standaloneTick = nil
	}
	blocked := c.state == StateBlocked
	c.mu.Unlock()

	if c.Embedded() && !blocked {
		if err := c.tr.Send(protocol.New(protocol.TagGuest, protocol.TypeGameUnload, nil)); err != nil {
			c.logger.Debug("unload notice not delivered", zap.Error(err))
		}
	}

	c.callHook(func(h Hooks) {
		if h.OnUnload != nil {
			h.OnUnload()
		}
	})

	if c.Embedded() {
		c.tr.Close()
	}
}

// callHook runs an application hook with panic isolation, mirroring the
// dispatcher's per-handler containment.
func (c *Core) callHook(fn func(Hooks)) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("lifecycle hook panicked", zap.Any("panic", r))
		}
	}()
	fn(c.opts.Hooks)
}
