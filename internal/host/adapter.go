package host

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pixeljam/devwatch/internal/correlate"
	"github.com/pixeljam/devwatch/internal/dispatch"
	"github.com/pixeljam/devwatch/internal/infrastructure/logging"
	"github.com/pixeljam/devwatch/internal/infrastructure/monitoring"
	"github.com/pixeljam/devwatch/internal/protocol"
	"github.com/pixeljam/devwatch/internal/transport"
)

// Adapter is the host-side protocol endpoint for one guest frame. It is
// created with the frame and bound to a transport when the guest connects;
// envelopes received while unbound are simply never produced, because the
// guest has no channel to send them on.
type Adapter struct {
	id      string
	cfg     FrameConfig
	mount   Mount
	logger  *zap.Logger
	metrics *monitoring.Metrics
	auth    *AuthService

	dispatcher *dispatch.Dispatcher
	correlator *correlate.Correlator

	mu        sync.Mutex
	tr        transport.Transport
	ready     bool
	theme     string
	title     string
	assetInfo map[string]any
	lastPong  time.Time
	onMessage func(msgType string, data map[string]any)
}

func newAdapter(cfg FrameConfig, mount Mount, auth *AuthService, metrics *monitoring.Metrics, logger *zap.Logger) *Adapter {
	theme := cfg.Theme
	if theme == "" {
		theme = "default"
	}
	a := &Adapter{
		id:         cfg.ID,
		cfg:        cfg,
		mount:      mount,
		logger:     logger.With(zap.String("frame", cfg.ID)),
		metrics:    metrics,
		auth:       auth,
		dispatcher: dispatch.New(logger),
		theme:      theme,
		title:      cfg.Title,
	}
	a.correlator = correlate.New(func(msgType string, data map[string]any) error {
		return a.Send(msgType, data)
	}, a.dispatcher)
	return a
}

// ID returns the frame id this adapter serves.
func (a *Adapter) ID() string {
	return a.id
}

// Config returns the frame configuration.
func (a *Adapter) Config() FrameConfig {
	return a.cfg
}

// Ready reports whether the guest has completed its readiness handshake.
func (a *Adapter) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

// Connected reports whether a guest transport is currently bound.
func (a *Adapter) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tr != nil
}

// Title returns the frame's current display title.
func (a *Adapter) Title() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.title
}

// AssetInfo returns the latest asset metadata the guest reported.
func (a *Adapter) AssetInfo() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.assetInfo
}

// LastPong returns the time of the last heartbeat reply.
func (a *Adapter) LastPong() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastPong
}

// Bind attaches the guest's transport and starts routing its envelopes.
// Rebinding replaces the previous transport (guest page reload).
func (a *Adapter) Bind(tr transport.Transport) {
	a.mu.Lock()
	old := a.tr
	a.tr = tr
	a.ready = false
	a.mu.Unlock()

	if old != nil {
		old.Close()
	}
	tr.SetReceiver(a.handleInbound)
	a.logger.Info("guest transport bound")
}

// Unbind detaches the current transport unconditionally (frame teardown).
func (a *Adapter) Unbind() {
	a.mu.Lock()
	tr := a.tr
	a.tr = nil
	a.ready = false
	a.mu.Unlock()

	if tr != nil {
		tr.Close()
	}
	a.logger.Info("guest transport unbound")
}

// UnbindTransport detaches tr only while it is still the bound transport.
// A disconnect notice for a transport that a rebind already replaced must
// not touch the replacement, so each connection's watcher passes its own
// transport here instead of calling Unbind.
func (a *Adapter) UnbindTransport(tr transport.Transport) {
	a.mu.Lock()
	if a.tr != tr {
		a.mu.Unlock()
		return
	}
	a.tr = nil
	a.ready = false
	a.mu.Unlock()

	tr.Close()
	a.logger.Info("guest transport unbound")
}

// Send transmits a host-tagged envelope to the guest. Returns ErrClosed
// when no guest is connected.
func (a *Adapter) Send(msgType string, data map[string]any) error {
	a.mu.Lock()
	tr := a.tr
	a.mu.Unlock()
	if tr == nil {
		return transport.ErrClosed
	}
	kind := "open"
	if _, ok := protocol.ReservedFromType(msgType); ok {
		kind = "reserved"
	}
	a.metrics.RecordEnvelope("outbound", kind)
	return tr.Send(protocol.New(protocol.TagHost, msgType, data))
}

// SetTheme pushes a theme to the guest and remembers it for reconnects.
func (a *Adapter) SetTheme(theme string) {
	a.mu.Lock()
	a.theme = theme
	a.mu.Unlock()
	if err := a.Send(protocol.TypeSetTheme, map[string]any{"theme": theme}); err != nil {
		a.logger.Debug("theme push skipped, guest not connected")
	}
}

// ShowInfoPanel asks the guest to show or hide its info panel.
func (a *Adapter) ShowInfoPanel(visible bool) error {
	if visible {
		return a.Send(protocol.TypeShowInfoPanel, nil)
	}
	return a.Send(protocol.TypeHideInfoPanel, nil)
}

// SetCredits pushes info panel credits to the guest.
func (a *Adapter) SetCredits(data map[string]any) error {
	return a.Send(protocol.TypeSetCredits, data)
}

// Ping sends a heartbeat and waits for the matching pong. Returns the round
// trip time, or false when the guest did not answer in time.
func (a *Adapter) Ping(ctx context.Context, timeout time.Duration) (time.Duration, bool) {
	start := time.Now()
	_, ok := a.correlator.Issue(ctx, protocol.TypePing, nil, protocol.TypePong, timeout)
	if !ok {
		return 0, false
	}
	rtt := time.Since(start)
	a.metrics.RecordHeartbeat(rtt)
	return rtt, true
}

// On subscribes host-side application code to this frame's events and
// returns the unsubscribe closure.
func (a *Adapter) On(ns dispatch.Namespace, eventType string, fn dispatch.Handler) func() {
	return a.dispatcher.Subscribe(ns, eventType, fn)
}

// SetOnMessage installs the catch-all callback for open guest messages,
// invoked alongside game-namespace dispatch. Nil uninstalls it.
func (a *Adapter) SetOnMessage(fn func(msgType string, data map[string]any)) {
	a.mu.Lock()
	a.onMessage = fn
	a.mu.Unlock()
}

// handleInbound routes one guest-originated envelope.
func (a *Adapter) handleInbound(env protocol.Envelope) {
	// Only guest-authored envelopes are acted on.
	if env.Source != protocol.TagGuest {
		a.logger.Debug("dropping envelope with unexpected source", logging.EnvelopeFields(env)...)
		return
	}

	// Raw pass-through for correlators and protocol-level observers.
	a.dispatcher.Emit(dispatch.NamespaceIframe, env.Type, env.Data)

	control, ok := protocol.GuestControlFromType(env.Type)
	if !ok {
		if env.Type == protocol.TypePong {
			// Heartbeat replies are consumed by the correlator above.
			a.mu.Lock()
			a.lastPong = time.Now()
			a.mu.Unlock()
			a.metrics.RecordEnvelope("inbound", "reserved")
			return
		}
		a.metrics.RecordEnvelope("inbound", "open")
		a.dispatcher.Emit(dispatch.NamespaceGame, env.Type, env.Data)
		a.mu.Lock()
		fn := a.onMessage
		a.mu.Unlock()
		if fn != nil {
			a.callMessageHook(fn, env)
		}
		return
	}
	a.metrics.RecordEnvelope("inbound", "reserved")

	switch control {
	case protocol.ControlIframeReady:
		a.mu.Lock()
		a.ready = true
		theme := a.theme
		a.mu.Unlock()
		a.logger.Info("guest ready handshake received")
		if a.mount != nil {
			a.mount.ShowOverlay(false)
		}
		// Push the frame's theme so the guest renders consistently.
		if err := a.Send(protocol.TypeSetTheme, map[string]any{"theme": theme}); err != nil {
			a.logger.Warn("theme push failed", zap.Error(err))
		}
		a.dispatcher.Emit(dispatch.NamespaceGame, "frame-ready", env.Data)

	case protocol.ControlTitleUpdate:
		if title, ok := env.Data["title"].(string); ok && title != "" {
			a.mu.Lock()
			a.title = title
			a.mu.Unlock()
			if a.mount != nil {
				a.mount.Title(title)
			}
		}

	case protocol.ControlGetTheme:
		a.mu.Lock()
		theme := a.theme
		a.mu.Unlock()
		if err := a.Send(protocol.TypeSetTheme, map[string]any{"theme": theme}); err != nil {
			a.logger.Warn("theme reply failed", zap.Error(err))
		}

	case protocol.ControlAuthCheck:
		data := map[string]any{}
		if id, ok := env.Data[protocol.RequestIDKey]; ok {
			data[protocol.RequestIDKey] = id
		}
		if user := a.auth.CurrentUser(); user != nil {
			data["user"] = user
		}
		if err := a.Send(protocol.TypeAuthResponse, data); err != nil {
			a.logger.Warn("auth reply failed", zap.Error(err))
		}

	case protocol.ControlGameLog:
		a.relayGuestLog(env.Data)

	case protocol.ControlGameUnload:
		a.mu.Lock()
		a.ready = false
		a.mu.Unlock()
		a.logger.Info("guest unloading")
		a.dispatcher.Emit(dispatch.NamespaceGame, "frame-unload", env.Data)

	case protocol.ControlAssetInfo:
		a.mu.Lock()
		a.assetInfo = env.Data
		a.mu.Unlock()

	case protocol.ControlPing:
		a.mu.Lock()
		tr := a.tr
		a.mu.Unlock()
		if tr != nil {
			if err := tr.Send(protocol.Pong(protocol.TagHost, env)); err != nil {
				a.logger.Warn("pong failed", zap.Error(err))
			}
		}
	}
}

// callMessageHook runs the catch-all callback with panic isolation, the
// same containment the dispatcher gives its handlers.
func (a *Adapter) callMessageHook(fn func(string, map[string]any), env protocol.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("message hook panicked", zap.Any("panic", r))
		}
	}()
	fn(env.Type, env.Data)
}

// relayGuestLog writes a guest diagnostic into the host log at the carried
// level.
func (a *Adapter) relayGuestLog(data map[string]any) {
	message, _ := data["message"].(string)
	level, _ := data["level"].(string)
	fields := []zap.Field{zap.String("origin", "guest"), zap.Any("data", data["data"])}
	switch level {
	case "debug":
		a.logger.Debug(message, fields...)
	case "warn":
		a.logger.Warn(message, fields...)
	case "error":
		a.logger.Error(message, fields...)
	default:
		a.logger.Info(message, fields...)
	}
}
