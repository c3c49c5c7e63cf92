package cooldown

import (
	"context"
	"sync"
	"time"
)

// Memory keeps cooldowns in process. Expired entries are ignored on read
// and dropped by Sweep.
type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

var _ Tracker = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]time.Time), now: time.Now}
}

func (m *Memory) Remaining(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.entries[key]
	if !ok {
		return 0, nil
	}
	left := until.Sub(m.now())
	if left <= 0 {
		return 0, nil
	}
	return left, nil
}

func (m *Memory) Start(_ context.Context, key string, window time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	until := m.now().Add(window)
	if cur, ok := m.entries[key]; ok && cur.After(until) {
		return nil
	}
	m.entries[key] = until
	return nil
}

// Sweep removes expired entries and returns how many were removed.
func (m *Memory) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, until := range m.entries {
		if !now.Before(until) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }
