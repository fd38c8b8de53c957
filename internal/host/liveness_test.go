package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLivenessToleratesIsolatedMisses(t *testing.T) {
	l := NewLiveness(3, nil)
	assert.Equal(t, HealthUnknown, l.State())

	assert.Equal(t, HealthAlive, l.Observe(true))
	assert.Equal(t, HealthAlive, l.Observe(false))
	assert.Equal(t, HealthAlive, l.Observe(false))
	assert.Equal(t, 2, l.Misses())

	// An answered ping resets the streak.
	assert.Equal(t, HealthAlive, l.Observe(true))
	assert.Equal(t, 0, l.Misses())
}

func TestLivenessTripsAtThresholdAndRecovers(t *testing.T) {
	var transitions [][2]HealthState
	l := NewLiveness(2, func(from, to HealthState) {
		transitions = append(transitions, [2]HealthState{from, to})
	})

	l.Observe(true)
	l.Observe(false)
	assert.Equal(t, HealthLost, l.Observe(false))
	assert.Equal(t, HealthAlive, l.Observe(true))

	assert.Equal(t, [][2]HealthState{
		{HealthUnknown, HealthAlive},
		{HealthAlive, HealthLost},
		{HealthLost, HealthAlive},
	}, transitions)
}

func TestLivenessDefaultThreshold(t *testing.T) {
	l := NewLiveness(0, nil)
	l.Observe(false)
	l.Observe(false)
	assert.Equal(t, HealthUnknown, l.State(), "two misses stay under the default threshold")
	assert.Equal(t, HealthLost, l.Observe(false))
}
