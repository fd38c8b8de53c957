package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixeljam/devwatch/internal/protocol"
)

func TestPipeDeliversInOrder(t *testing.T) {
	a, b := Pipe()

	var got []string
	b.SetReceiver(func(env protocol.Envelope) {
		got = append(got, env.Type)
	})

	for _, msgType := range []string{"one", "two", "three"} {
		require.NoError(t, a.Send(protocol.New(protocol.TagGuest, msgType, nil)))
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestPipeBuffersUntilReceiverInstalled(t *testing.T) {
	a, b := Pipe()

	require.NoError(t, a.Send(protocol.New(protocol.TagGuest, "early", nil)))
	require.NoError(t, a.Send(protocol.New(protocol.TagGuest, "later", nil)))

	var got []string
	b.SetReceiver(func(env protocol.Envelope) {
		got = append(got, env.Type)
	})
	assert.Equal(t, []string{"early", "later"}, got)
}

func TestPipeCopiesPayloadAcross(t *testing.T) {
	a, b := Pipe()

	var received map[string]any
	b.SetReceiver(func(env protocol.Envelope) {
		received = env.Data
	})

	data := map[string]any{"k": "v"}
	require.NoError(t, a.Send(protocol.New(protocol.TagGuest, "state", data)))

	data["k"] = "mutated"
	assert.Equal(t, "v", received["k"])
}

func TestPipeSendAfterClose(t *testing.T) {
	a, _ := Pipe()
	require.NoError(t, a.Close())
	assert.ErrorIs(t, a.Send(protocol.New(protocol.TagGuest, "x", nil)), ErrClosed)
}
