package guest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateDrainPreservesOrderAndEmpties(t *testing.T) {
	g := &gate{}
	for i := 0; i < 5; i++ {
		g.enqueue(fmt.Sprintf("msg-%d", i), map[string]any{"i": i})
	}
	require.Equal(t, 5, g.size())

	pending := g.drain()
	require.Len(t, pending, 5)
	for i, msg := range pending {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), msg.msgType)
		assert.Equal(t, i, msg.data["i"])
	}

	assert.Equal(t, 0, g.size())
	assert.Empty(t, g.drain(), "second drain hands out nothing")
}

func TestGateConcurrentEnqueueLosesNothing(t *testing.T) {
	g := &gate{}
	const writers, perWriter = 8, 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				g.enqueue("evt", nil)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, writers*perWriter, g.size())
}
