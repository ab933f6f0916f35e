// Package monitor implements the publisher-side liveness monitor
// (§4.6): registration, PING/PONG ingress, and the periodic sweep that
// prunes silent subscribers. Grounded on server/src/udp/monitor.rs
// (original_source/) for the exact upsert-on-PING / sweep-every-5s
// shape, and on the teacher's CronService startup-job idiom
// (internal/service/cron_service.go) for how a supervised periodic
// goroutine is started and logged.
package monitor

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/nsvirk/moneyquotes/internal/bus"
	"github.com/nsvirk/moneyquotes/internal/quotes"
	"github.com/nsvirk/moneyquotes/pkg/utils/zaplogger"
)

// KeepaliveInterval is the maximum tolerated silence from a subscriber
// (§4.6, glossary) and also the sweep cadence.
const KeepaliveInterval = 5 * time.Second

// Monitor tracks last-seen timestamps per subscriber address behind
// one mutex (§4.6 invariant: never held across I/O) and publishes
// Stop(addr) on the bus for any subscriber gone silent for more than
// KeepaliveInterval.
type Monitor struct {
	conn *net.UDPConn
	bus  *bus.Bus

	mu       sync.Mutex
	lastSeen map[string]time.Time
	addrs    map[string]*net.UDPAddr

	register chan *net.UDPAddr

	// OnStop, if set, is called for every address the sweeper prunes,
	// after the registry mutex has been released — used to append a
	// "stopped" row to the control-plane audit log (SPEC_FULL.md DOMAIN
	// STACK) without ever holding the mutex across that I/O.
	OnStop func(*net.UDPAddr)
}

// New builds a Monitor that reads PING and replies PONG on conn.
func New(conn *net.UDPConn, b *bus.Bus) *Monitor {
	return &Monitor{
		conn:     conn,
		bus:      b,
		lastSeen: make(map[string]time.Time),
		addrs:    make(map[string]*net.UDPAddr),
		register: make(chan *net.UDPAddr, 64),
	}
}

// Register enqueues addr for insertion into the last-seen map with the
// current time, matching §4.6's "Registration" task. Called by
// publisherapp's subscription dispatcher once a worker has been spawned.
func (m *Monitor) Register(addr *net.UDPAddr) {
	m.register <- addr
}

// IsRegistered reports whether addr already has a live registry entry,
// used to reject re-subscription (§9 Open Question, resolved: a
// second SUB from an address already registered is rejected with ERR
// rather than silently replacing the worker).
func (m *Monitor) IsRegistered(addr *net.UDPAddr) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.lastSeen[addr.String()]
	return ok
}

// Count returns the number of tracked subscribers, used by the
// periodic self-report (internal/sweep).
func (m *Monitor) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lastSeen)
}

// Unregister removes addr's registry entry if present. It is idempotent
// and safe to call even when the sweeper already pruned the entry.
// Called when a worker terminates for a reason other than a Stop it
// was handed (e.g. an encode/send failure), so a dead worker never
// leaves a registry entry with nothing backing it (§3 invariant ii).
func (m *Monitor) Unregister(addr *net.UDPAddr) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lastSeen, addr.String())
	delete(m.addrs, addr.String())
}

// Run starts the registration, ingress, and sweeper loops and blocks
// until ctx is cancelled. A fatal bus closure (there is none in this
// implementation; Publish never blocks or errors) is the only
// documented reason the sweeper would terminate the process, per
// §4.6 invariant (iii) / §7 ChannelClosed semantics.
func (m *Monitor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); m.runRegistration(ctx) }()
	go func() { defer wg.Done(); m.runIngress(ctx) }()
	go func() { defer wg.Done(); m.runSweeper(ctx) }()
	wg.Wait()
}

func (m *Monitor) runRegistration(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case addr := <-m.register:
			m.mu.Lock()
			m.lastSeen[addr.String()] = time.Now()
			m.addrs[addr.String()] = addr
			m.mu.Unlock()
			zaplogger.Info("subscriber registered", zaplogger.Fields{"addr": addr.String()})
		}
	}
}

func (m *Monitor) runIngress(ctx context.Context) {
	go func() {
		<-ctx.Done()
		_ = m.conn.SetReadDeadline(time.Now())
	}()

	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, addr, err := m.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			zaplogger.Debug("monitor ingress read error", zaplogger.Fields{"error": err.Error()})
			continue
		}

		if !quotes.IsPing(buf[:n]) {
			continue
		}

		// §9 Open Question: only addresses already present via the
		// control protocol get their last-seen refreshed; an
		// unregistered PING is ignored to avoid unbounded registry
		// growth from spoofed pings.
		m.mu.Lock()
		_, known := m.lastSeen[addr.String()]
		if known {
			m.lastSeen[addr.String()] = time.Now()
		}
		m.mu.Unlock()

		if known {
			if _, err := m.conn.WriteToUDP([]byte(quotes.Pong), addr); err != nil {
				zaplogger.Error("monitor failed to send PONG", zaplogger.Fields{"error": err.Error()})
			}
		}
	}
}

func (m *Monitor) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(KeepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Monitor) sweep() {
	m.mu.Lock()
	now := time.Now()
	var pruned []*net.UDPAddr
	for key, seen := range m.lastSeen {
		if seen.Add(KeepaliveInterval).Before(now) {
			pruned = append(pruned, m.addrs[key])
			delete(m.lastSeen, key)
			delete(m.addrs, key)
		}
	}
	m.mu.Unlock()

	// Publish/OnStop run after the mutex is released: Publish only
	// appends to in-memory queues, but OnStop's audit hook does a
	// Postgres round trip, and the mutex must never be held across I/O
	// (§4.6 invariant).
	for _, addr := range pruned {
		zaplogger.Info("pruning silent subscriber", zaplogger.Fields{"addr": addr.String()})
		m.bus.Publish(bus.Stop(addr))
		if m.OnStop != nil {
			m.OnStop(addr)
		}
	}
}
