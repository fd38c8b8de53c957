// Command guestdemo is a minimal guest application exercising the protocol
// core end to end: connect, queue before ready, theme events, auth check,
// clean unload.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pixeljam/devwatch/internal/dispatch"
	"github.com/pixeljam/devwatch/internal/guest"
	"github.com/pixeljam/devwatch/internal/infrastructure/logging"
	"github.com/pixeljam/devwatch/internal/transport"
)

func main() {
	hostURL := flag.String("host", "ws://localhost:8600/ws/guests/demo", "Host websocket endpoint (empty for standalone)")
	embedder := flag.String("embedder", "https://dev.pixeljamarcade.com/dashboard", "Embedding page URL")
	hostname := flag.String("hostname", "localhost", "Guest hostname")
	flag.Parse()

	logger := logging.NewDevelopment()
	defer logger.Sync()

	var tr transport.Transport
	if *hostURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		wsTransport, err := transport.Dial(ctx, *hostURL)
		cancel()
		if err != nil {
			log.Fatalf("Failed to reach host: %v", err)
		}
		tr = wsTransport
	}

	core := guest.New(guest.Options{
		EmbedderURL: *embedder,
		Hostname:    *hostname,
		Hooks: guest.Hooks{
			OnReady: func() {
				logger.Info("guest ready")
			},
			OnTheme: func(theme string) {
				logger.Info("theme applied: " + theme)
			},
			OnBlocked: func(notice string) {
				log.Fatalf("Blocked: %s", notice)
			},
		},
	}, tr, logger.Logger)

	// Sent before Start: both ride the readiness gate and flush in order.
	core.SendMessage("demo-hello", map[string]any{"n": 1})
	core.SendMessage("demo-hello", map[string]any{"n": 2})

	off := core.On(dispatch.NamespaceGame, "theme-changed", func(data map[string]any) {
		logger.Info("theme-changed event received")
	})
	defer off()

	core.Start()
	core.SetTitle("Guest Demo")

	ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
	user := core.CheckAuth(ctx)
	cancel()
	if user == nil {
		logger.Info("no dashboard user signed in")
	} else {
		logger.Info("signed in as " + user["username"].(string))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	core.Close()
}
