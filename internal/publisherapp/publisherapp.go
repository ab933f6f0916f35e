// Package publisherapp wires the publisher process's components —
// control listener, generator, bus, monitor, per-subscriber workers,
// and the optional Redis relay / Postgres audit log — into one
// supervised goroutine group. Grounded on the teacher's use of
// context.WithCancel to supervise TickerService's goroutines
// (internal/service/ticker_service.go) and on golang.org/x/sync/errgroup
// for the "one failure cancels the rest" shutdown path described in
// SPEC_FULL.md's ambient-stack section.
package publisherapp

import (
	"context"
	"fmt"
	"net"

	"github.com/nsvirk/moneyquotes/internal/audit"
	"github.com/nsvirk/moneyquotes/internal/bus"
	"github.com/nsvirk/moneyquotes/internal/config"
	"github.com/nsvirk/moneyquotes/internal/control"
	"github.com/nsvirk/moneyquotes/internal/errs"
	"github.com/nsvirk/moneyquotes/internal/generator"
	"github.com/nsvirk/moneyquotes/internal/monitor"
	"github.com/nsvirk/moneyquotes/internal/relay"
	"github.com/nsvirk/moneyquotes/internal/sweep"
	"github.com/nsvirk/moneyquotes/internal/tickerfile"
	"github.com/nsvirk/moneyquotes/internal/worker"
	"github.com/nsvirk/moneyquotes/pkg/utils/zaplogger"
	"golang.org/x/sync/errgroup"
)

// App is the running publisher: its control listener, data socket,
// bus, monitor, and the generator emitting onto the bus.
type App struct {
	cfg config.PublisherConfig

	ctrl  *control.Listener
	data  *net.UDPConn
	bus   *bus.Bus
	mon   *monitor.Monitor
	gen   *generator.Generator
	relay *relay.Relay
	audit *audit.Log
}

// New binds the TCP control port and UDP data port, loads the ticker
// universe, and wires the generator/bus/monitor, but does not yet
// start serving (§6 CLI contract: a bind failure here is reported to
// the caller, which exits non-zero per §7).
func New(cfg config.PublisherConfig) (*App, error) {
	tickers, err := tickerfile.Load(cfg.TickersPath)
	if err != nil {
		return nil, fmt.Errorf("%w: load ticker universe: %v", errs.Transport, err)
	}

	ctrl, err := control.Listen(fmt.Sprintf(":%d", cfg.TCPPort))
	if err != nil {
		return nil, fmt.Errorf("%w: bind control listener: %v", errs.Transport, err)
	}

	data, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(cfg.UDPPort)})
	if err != nil {
		ctrl.Close()
		return nil, fmt.Errorf("%w: bind data socket: %v", errs.Transport, err)
	}

	b := bus.New()
	mon := monitor.New(data, b)
	gen := generator.New(b, tickers)

	ctrl.Validate = func(req control.SubRequest) error {
		if mon.IsRegistered(req.Addr) {
			return fmt.Errorf("already subscribed")
		}
		return nil
	}

	var r *relay.Relay
	if cfg.RedisAddr != "" {
		r, err = relay.Connect(cfg.RedisAddr)
		if err != nil {
			zaplogger.Warn("redis relay disabled: connect failed", zaplogger.Fields{"error": err.Error()})
			r = nil
		}
	}

	var a *audit.Log
	if cfg.AuditDSN != "" {
		a, err = audit.Connect(cfg.AuditDSN)
		if err != nil {
			zaplogger.Warn("audit log disabled: connect failed", zaplogger.Fields{"error": err.Error()})
			a = nil
		}
	}

	mon.OnStop = func(addr *net.UDPAddr) {
		a.RecordStopped(addr.String())
	}

	return &App{
		cfg:   cfg,
		ctrl:  ctrl,
		data:  data,
		bus:   b,
		mon:   mon,
		gen:   gen,
		relay: r,
		audit: a,
	}, nil
}

// TCPAddr returns the bound control address.
func (a *App) TCPAddr() net.Addr { return a.ctrl.Addr() }

// UDPAddr returns the bound data address.
func (a *App) UDPAddr() net.Addr { return a.data.LocalAddr() }

// Run blocks until ctx is cancelled or a component fails fatally.
// §4.6/§7: a fatal ChannelClosed error on the Stop bus would be the
// sole reason the monitor terminates the process; this implementation
// relies on errgroup propagating any such component failure instead of
// an explicit os.Exit inside the monitor.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	cronJob := sweep.Start(a.mon)
	defer cronJob.Stop()

	g.Go(func() error {
		a.ctrl.Serve(gctx)
		return nil
	})
	g.Go(func() error {
		a.mon.Run(gctx)
		return nil
	})
	g.Go(func() error {
		a.gen.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return a.dispatchSubscriptions(gctx)
	})
	if a.relay != nil {
		g.Go(func() error {
			return a.relayQuotes(gctx)
		})
	}

	return g.Wait()
}

// dispatchSubscriptions accepts SubRequests posted by the control
// listener, spawns a worker per subscriber, and registers it with the
// monitor. This is the "registry-insertion task" of §3's ownership
// model: the control listener owns producing requests, this loop owns
// turning an accepted request into a live worker + registry entry.
func (a *App) dispatchSubscriptions(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-a.ctrl.Requests:
			consumer := a.bus.Subscribe()
			w := worker.New(req.Addr, req.Tickers, a.data, consumer)
			go w.Run()
			go func(addr *net.UDPAddr, done <-chan struct{}) {
				// A worker can also terminate on its own (an
				// encode/send failure, e.g. §8's oversize-ticker
				// scenario) without ever having been handed a
				// Stop. Unregister is idempotent, so this is a
				// no-op when the sweeper already pruned addr.
				<-done
				a.mon.Unregister(addr)
			}(req.Addr, w.Done)

			a.mon.Register(req.Addr)
			if a.audit != nil {
				a.audit.RecordSubscribed(req.Addr.String(), req.Tickers)
			}

			zaplogger.Info("subscriber worker spawned", zaplogger.Fields{
				"addr":    req.Addr.String(),
				"tickers": req.Tickers,
			})
		}
	}
}

// relayQuotes mirrors every Send command the generator publishes onto
// the Redis relay (SPEC_FULL.md DOMAIN STACK), via its own bus
// consumer so the relay's pace never affects any subscriber worker's
// delivery.
func (a *App) relayQuotes(ctx context.Context) error {
	consumer := a.bus.Subscribe()
	defer consumer.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-consumer.Recv():
			if cmd.IsSend() {
				a.relay.Publish(cmd.Quote)
			}
		}
	}
}

// Close releases the bound sockets and the optional relay/audit
// connections.
func (a *App) Close() {
	a.ctrl.Close()
	a.data.Close()
	a.relay.Close()
	a.audit.Close()
}
