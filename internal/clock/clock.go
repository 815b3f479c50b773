// Package clock turns wall-clock time into block numbers.
package clock

import (
	"sync"
	"time"
)

// DefaultBlockDuration is the quantization unit of game time.
const DefaultBlockDuration = 10 * time.Second

type Clock interface {
	Now() time.Time
}

// System reads the process wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// BlockAt returns floor(unixMillis / blockDurationMillis).
func BlockAt(t time.Time, blockDuration time.Duration) int64 {
	ms := blockDuration.Milliseconds()
	if ms <= 0 {
		ms = DefaultBlockDuration.Milliseconds()
	}
	unix := t.UnixMilli()
	block := unix / ms
	if unix%ms != 0 && unix < 0 {
		block--
	}
	return block
}

// Manual is a Clock that only moves when told to.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
