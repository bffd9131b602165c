// Package netmon reports whether the remote system is reachable and tells
// listeners when that changes.
package netmon

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/daybook/internal/logging"
)

// Monitor is the connectivity view consumed by the sync workers.
type Monitor interface {
	Online() bool
	// AddListener registers fn to be called with the new state on every
	// transition and returns a handle for RemoveListener.
	AddListener(fn func(online bool)) int
	RemoveListener(id int)
}

// state holds the current status and the listeners. Listeners are invoked
// outside the lock, in registration order.
type state struct {
	mu        sync.Mutex
	online    bool
	nextID    int
	listeners map[int]func(bool)
	order     []int
}

func (s *state) Online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *state) AddListener(fn func(online bool)) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = map[int]func(bool){}
	}
	s.nextID++
	s.listeners[s.nextID] = fn
	s.order = append(s.order, s.nextID)
	return s.nextID
}

func (s *state) RemoveListener(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// set stores online and reports whether it changed.
func (s *state) set(online bool) bool {
	s.mu.Lock()
	if s.online == online {
		s.mu.Unlock()
		return false
	}
	s.online = online
	fns := make([]func(bool), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
	return true
}

// Manual is a Monitor driven by SetOnline. The CLI uses it for forced
// offline mode and tests use it to script connectivity.
type Manual struct {
	state
}

func NewManual(online bool) *Manual {
	m := &Manual{}
	m.online = online
	return m
}

func (m *Manual) SetOnline(online bool) { m.set(online) }

// Pinger is the reachability probe, typically the remote client's Ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingMonitor probes the server on an interval. It starts offline.
type PingMonitor struct {
	state
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	log      logging.Logger
}

func NewPingMonitor(p Pinger, interval time.Duration, log logging.Logger) *PingMonitor {
	return &PingMonitor{
		pinger:   p,
		interval: interval,
		timeout:  3 * time.Second,
		log:      log.With("module", "netmon"),
	}
}

// Check probes once and updates the state.
func (m *PingMonitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.pinger.Ping(ctx)
	cancel()

	online := err == nil
	if m.set(online) {
		if online {
			m.log.Info(ctx, "switched to online mode")
		} else {
			m.log.Info(ctx, "switched to offline mode", "error", err)
		}
	}
	return online
}

// Run probes immediately and then every interval until ctx is done.
func (m *PingMonitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
