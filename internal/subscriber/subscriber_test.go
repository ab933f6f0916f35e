package subscriber

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/nsvirk/moneyquotes/internal/quotes"
)

func listenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	return conn
}

func TestReceiverForwardsQuotesAndSeedsPinger(t *testing.T) {
	server := listenUDP(t)
	defer server.Close()

	c, err := New(&net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	received := make(chan quotes.StockQuote, 4)
	c.Run(func(q quotes.StockQuote) { received <- q })

	q := quotes.StockQuote{Ticker: "AAPL", Price: 100, Volume: 1, Timestamp: 1}
	buf, err := quotes.Encode(q)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := server.WriteToUDP(buf, c.LocalAddr()); err != nil {
		t.Fatalf("WriteToUDP: %v", err)
	}

	select {
	case got := <-received:
		if got != q {
			t.Fatalf("got %+v want %+v", got, q)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for quote")
	}

	// The server should now receive PINGs on its own address.
	buf2 := make([]byte, 8)
	_ = server.SetReadDeadline(time.Now().Add(PingInterval + 2*time.Second))
	n, _, err := server.ReadFromUDP(buf2)
	if err != nil {
		t.Fatalf("expected PING from subscriber: %v", err)
	}
	if !quotes.IsPing(buf2[:n]) {
		t.Fatalf("expected PING, got %q", buf2[:n])
	}
}

func TestSilenceDetectionTimesOut(t *testing.T) {
	server := listenUDP(t)
	defer server.Close()

	c, err := New(&net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	c.Run(func(quotes.StockQuote) {})

	// Seed the pinger/monitor with one datagram, then go silent.
	if _, err := server.WriteToUDP([]byte(quotes.Pong), c.LocalAddr()); err != nil {
		t.Fatalf("WriteToUDP: %v", err)
	}

	select {
	case err := <-c.Err:
		if !errors.Is(err, ErrServerSilent) && err.Error() != ErrServerSilent.Error() {
			t.Fatalf("expected ErrServerSilent, got %v", err)
		}
	case <-time.After(PongTimeout + 3*time.Second):
		t.Fatal("expected silence detection to fire")
	}
}
