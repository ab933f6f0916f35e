// Package subscriber implements the subscriber-side datagram receiver,
// keepalive pinger, and silence detector (§4.7, §4.8). Grounded on
// client/src/monitor.rs (original_source/) for the "first datagram
// seeds the monitor" handshake and the restart-on-success pong
// deadline.
package subscriber

import (
	"fmt"
	"net"
	"time"

	"github.com/nsvirk/moneyquotes/internal/errs"
	"github.com/nsvirk/moneyquotes/internal/quotes"
	"github.com/nsvirk/moneyquotes/pkg/utils/zaplogger"
)

// PingInterval is the cadence of subscriber-to-publisher heartbeats.
const PingInterval = 2 * time.Second

// PongTimeout is the maximum tolerated silence from the publisher.
const PongTimeout = 5 * time.Second

// ErrServerSilent is the exact message the subscriber reports when no
// PONG is observed for PongTimeout, per §4.7/testable property 6.
var ErrServerSilent = fmt.Errorf("%w: Server not responding in 5 seconds", errs.Timeout)

// QuoteHandler is invoked for every decoded quote datagram. It is the
// "print consumer" of §2; cmd/subscriber wires it to stdout.
type QuoteHandler func(quotes.StockQuote)

// Client owns the bound UDP endpoint and drives the receiver, pinger,
// and pong-waiter goroutines described in §4.7.
type Client struct {
	conn *net.UDPConn

	publisherAddr chan *net.UDPAddr
	pong          chan struct{}

	// Err receives exactly one value when the client terminates: either
	// ErrServerSilent (timeout) or a wrapped errs.Transport error.
	Err chan error
}

// New binds localAddr and returns a Client ready to Run.
func New(localAddr *net.UDPAddr) (*Client, error) {
	conn, err := net.ListenUDP("udp", localAddr)
	if err != nil {
		return nil, fmt.Errorf("%w: bind local UDP endpoint: %v", errs.Transport, err)
	}
	return &Client{
		conn:          conn,
		publisherAddr: make(chan *net.UDPAddr, 1),
		pong:          make(chan struct{}, 1),
		Err:           make(chan error, 1),
	}, nil
}

// LocalAddr returns the bound local UDP address.
func (c *Client) LocalAddr() *net.UDPAddr {
	return c.conn.LocalAddr().(*net.UDPAddr)
}

// Close releases the local UDP socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Run starts the receiver, pinger, and pong-waiter goroutines. It does
// not block; the caller should select on Client.Err for termination.
func (c *Client) Run(onQuote QuoteHandler) {
	go c.runReceiver(onQuote)
	go c.runPinger()
	go c.runPongWaiter()
}

// runReceiver classifies each datagram as PONG or a quote. The first
// datagram received from any sender seeds the publisher address used
// by the pinger — this is the documented initial-contact handshake
// (§4.6): the publisher begins sending quotes immediately on
// subscription, so the subscriber's first datagram also seeds its
// monitor.
func (c *Client) runReceiver(onQuote QuoteHandler) {
	buf := make([]byte, 2048)
	addrKnown := false

	for {
		n, addr, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			c.fail(fmt.Errorf("%w: receive datagram: %v", errs.Transport, err))
			return
		}

		if !addrKnown {
			c.publisherAddr <- addr
			addrKnown = true
		}

		switch {
		case quotes.IsPong(buf[:n]):
			select {
			case c.pong <- struct{}{}:
			default:
			}
		default:
			q, err := quotes.Decode(buf[:n])
			if err != nil {
				zaplogger.Debug("dropping malformed datagram", zaplogger.Fields{"error": err.Error()})
				continue
			}
			onQuote(q)
		}
	}
}

// runPinger awaits the publisher address learned by the receiver, then
// sends PING every PingInterval. A send failure is fatal to the
// subscriber process (§4.7).
func (c *Client) runPinger() {
	addr, ok := <-c.publisherAddr
	if !ok {
		return
	}

	ticker := time.NewTicker(PingInterval)
	defer ticker.Stop()

	for range ticker.C {
		if _, err := c.conn.WriteToUDP([]byte(quotes.Ping), addr); err != nil {
			c.fail(fmt.Errorf("%w: send PING: %v", errs.Transport, err))
			return
		}
	}
}

// runPongWaiter fires a 5s receive deadline, restarted after every
// successful PONG signal. If the deadline elapses with no PONG, the
// client reports ErrServerSilent and stops (§4.7, testable property 6).
func (c *Client) runPongWaiter() {
	timer := time.NewTimer(PongTimeout)
	defer timer.Stop()

	for {
		select {
		case <-c.pong:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(PongTimeout)
		case <-timer.C:
			c.fail(ErrServerSilent)
			return
		}
	}
}

func (c *Client) fail(err error) {
	select {
	case c.Err <- err:
	default:
	}
}
