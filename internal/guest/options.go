package guest

import "time"

// Defaults applied by Options.withDefaults.
const (
	DefaultTheme                = "default"
	DefaultStandaloneReadyDelay = 100 * time.Millisecond
	DefaultAuthTimeout          = 5000 * time.Millisecond
)

// Hooks are the lifecycle callbacks a guest application may install. All
// hooks are optional and invoked with panic isolation.
type Hooks struct {
	// OnReady fires once, when the core enters the Ready state.
	OnReady func()
	// OnTheme fires whenever a theme is applied.
	OnTheme func(theme string)
	// OnMessage is the legacy catch-all for open application messages.
	// New code should subscribe on the game namespace instead.
	OnMessage func(msgType string, data map[string]any)
	// OnUnload fires during Close, after the unload notice is sent.
	OnUnload func()
	// OnBlocked fires when embedder validation fails. The application is
	// expected to replace its content with the notice.
	OnBlocked func(notice string)
	// OnInfoPanel fires on host show/hide info panel control.
	OnInfoPanel func(visible bool)
	// OnCredits fires when the host pushes info panel credits.
	OnCredits func(data map[string]any)
}

// Options configures a protocol core.
type Options struct {
	// EmbedderURL is the URL of the page embedding this guest, empty when
	// launched directly.
	EmbedderURL string
	// Hostname is the guest's own hostname, consulted when EmbedderURL is
	// empty: only localhost passes validation without an embedder.
	Hostname string
	// AllowedDomains is the embedder allow-list. Empty uses the built-in
	// default.
	AllowedDomains []string
	// Theme applied in standalone mode and before the host pushes one.
	Theme string
	// StandaloneReadyDelay postpones the standalone OnReady hook, giving
	// the application a beat to install subscriptions. Zero uses the
	// 100 ms default.
	StandaloneReadyDelay time.Duration
	// WaitForContent, when true, defers readiness until the application
	// calls NotifyContentLoaded.
	WaitForContent bool
	// AuthTimeout bounds CheckAuth. Zero uses the 5000 ms default.
	AuthTimeout time.Duration

	Hooks Hooks
}

func (o Options) withDefaults() Options {
	if o.Theme == "" {
		o.Theme = DefaultTheme
	}
	if o.StandaloneReadyDelay <= 0 {
		o.StandaloneReadyDelay = DefaultStandaloneReadyDelay
	}
	if o.AuthTimeout <= 0 {
		o.AuthTimeout = DefaultAuthTimeout
	}
	return o
}
