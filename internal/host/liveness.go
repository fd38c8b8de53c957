package host

import "sync"

// HealthState is a frame's heartbeat-derived health.
type HealthState int

const (
	// HealthUnknown means no heartbeat verdict has been recorded yet.
	HealthUnknown HealthState = iota
	// HealthAlive means the last heartbeat was answered.
	HealthAlive
	// HealthLost means the miss threshold was crossed.
	HealthLost
)

func (s HealthState) String() string {
	switch s {
	case HealthAlive:
		return "alive"
	case HealthLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Liveness tracks consecutive heartbeat outcomes for one frame. A single
// missed ping is tolerated; crossing the threshold marks the frame lost
// until a ping is answered again. Purely observational: routing state stays
// with the websocket layer.
type Liveness struct {
	mu        sync.Mutex
	state     HealthState
	misses    int
	threshold int
	onChange  func(from, to HealthState)
}

// NewLiveness creates a tracker that reports lost after threshold
// consecutive misses. A non-positive threshold defaults to 3. onChange, when
// non-nil, fires on every state transition.
func NewLiveness(threshold int, onChange func(from, to HealthState)) *Liveness {
	if threshold <= 0 {
		threshold = 3
	}
	return &Liveness{threshold: threshold, onChange: onChange}
}

// Observe records one heartbeat verdict and returns the resulting state.
func (l *Liveness) Observe(answered bool) HealthState {
	l.mu.Lock()
	prev := l.state
	if answered {
		l.misses = 0
		l.state = HealthAlive
	} else {
		l.misses++
		if l.misses >= l.threshold {
			l.state = HealthLost
		}
	}
	state := l.state
	onChange := l.onChange
	l.mu.Unlock()

	if state != prev && onChange != nil {
		onChange(prev, state)
	}
	return state
}

// State returns the current health verdict.
func (l *Liveness) State() HealthState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Misses returns the current consecutive miss count.
func (l *Liveness) Misses() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.misses
}
