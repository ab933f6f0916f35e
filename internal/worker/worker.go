// Package worker implements the per-subscriber forwarder (§4.5): one
// goroutine per registered subscriber that filters bus events by
// interest and writes datagrams, exiting on its own Stop or on any
// encode/send failure. Grounded on server/src/udp/client.rs
// (original_source/) for the filter-then-send loop shape.
package worker

import (
	"net"

	"github.com/nsvirk/moneyquotes/internal/bus"
	"github.com/nsvirk/moneyquotes/internal/quotes"
	"github.com/nsvirk/moneyquotes/pkg/utils/zaplogger"
)

// Worker forwards quotes matching its interest set to one subscriber
// address over a shared UDP socket.
type Worker struct {
	addr     *net.UDPAddr
	interest map[string]struct{}
	consumer *bus.Consumer
	conn     *net.UDPConn

	// Done is closed when the worker exits, regardless of cause, so the
	// owner can release the registry entry exactly once.
	Done chan struct{}
}

// New builds a Worker for addr with the given interest set, a shared
// UDP socket (duplicated per §5's handle-duplication model — in Go
// this is simply the same *net.UDPConn used concurrently, which is
// safe for concurrent use), and a fresh bus consumer.
func New(addr *net.UDPAddr, tickers []string, conn *net.UDPConn, consumer *bus.Consumer) *Worker {
	interest := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		interest[t] = struct{}{}
	}
	return &Worker{
		addr:     addr,
		interest: interest,
		consumer: consumer,
		conn:     conn,
		Done:     make(chan struct{}),
	}
}

// Run blocks, filtering and forwarding Send commands and watching for
// its own Stop, until one of those terminates it. The worker never
// mutates any shared registry; it only forwards and then signals Done.
func (w *Worker) Run() {
	defer close(w.Done)
	defer w.consumer.Close()

	for cmd := range w.consumer.Recv() {
		if cmd.IsStop() {
			if sameAddr(cmd.Addr, w.addr) {
				return
			}
			continue
		}

		q := cmd.Quote
		if _, ok := w.interest[q.Ticker]; !ok {
			continue
		}
		if err := w.send(q); err != nil {
			zaplogger.Info("worker terminating on send failure", zaplogger.Fields{
				"addr":  w.addr.String(),
				"error": err.Error(),
			})
			return
		}
	}
}

func (w *Worker) send(q quotes.StockQuote) error {
	buf, err := quotes.Encode(q)
	if err != nil {
		return err
	}
	_, err = w.conn.WriteToUDP(buf, w.addr)
	return err
}

func sameAddr(a, b *net.UDPAddr) bool {
	if a == nil || b == nil {
		return false
	}
	return a.IP.Equal(b.IP) && a.Port == b.Port
}
