// Package subscriberapp wires the subscriber process's components —
// control-channel dial, the UDP monitor/receiver client, and the
// stdout print consumer — into one run. Grounded on the teacher's
// cmd/server bootstrap shape (load config, connect collaborators, run)
// adapted to a short-lived client process instead of a long-running
// HTTP server.
package subscriberapp

import (
	"context"
	"fmt"
	"net"

	"github.com/nsvirk/moneyquotes/internal/config"
	"github.com/nsvirk/moneyquotes/internal/control"
	"github.com/nsvirk/moneyquotes/internal/errs"
	"github.com/nsvirk/moneyquotes/internal/quotes"
	"github.com/nsvirk/moneyquotes/internal/subscriber"
	"github.com/nsvirk/moneyquotes/internal/tickerfile"
	"github.com/nsvirk/moneyquotes/pkg/utils/zaplogger"
)

// Printer renders a decoded quote; cmd/subscriber wires this to
// stdout through StdoutPrinter.
type Printer func(quotes.StockQuote)

// StdoutPrinter formats a quote the way §2's CLI contract describes:
// "[<ticker>] price: <p> volume: <v> timestamp: <t>".
func StdoutPrinter(q quotes.StockQuote) {
	fmt.Printf("[%s] price: %d volume: %d timestamp: %d\n", q.Ticker, q.Price, q.Volume, q.Timestamp)
}

// Run loads the ticker-interest file, binds the local UDP endpoint,
// dials the publisher's control channel, and then blocks printing
// decoded quotes until ctx is cancelled or the client reports a fatal
// error (§4.7: transport failure or ErrServerSilent).
func Run(ctx context.Context, cfg config.SubscriberConfig, print Printer) error {
	tickers, err := tickerfile.Load(cfg.TickersPath)
	if err != nil {
		return fmt.Errorf("%w: load ticker interest file: %v", errs.Transport, err)
	}

	localAddr, err := net.ResolveUDPAddr("udp", cfg.LocalAddr)
	if err != nil {
		return fmt.Errorf("%w: resolve local address: %v", errs.InvalidInput, err)
	}

	client, err := subscriber.New(localAddr)
	if err != nil {
		return err
	}
	defer client.Close()

	zaplogger.Info("subscribing", zaplogger.Fields{
		"remote":  cfg.RemoteAddr,
		"local":   client.LocalAddr().String(),
		"tickers": tickers,
	})

	if err := control.Dial(cfg.RemoteAddr, client.LocalAddr(), tickers); err != nil {
		return fmt.Errorf("%w: %v", errs.Transport, err)
	}
	zaplogger.Info("subscription accepted")

	client.Run(print)

	select {
	case <-ctx.Done():
		return nil
	case err := <-client.Err:
		return err
	}
}
