package worker

import (
	"net"
	"testing"
	"time"

	"github.com/nsvirk/moneyquotes/internal/bus"
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

func TestWorkerForwardsInterestOnly(t *testing.T) {
	server := listenUDP(t)
	defer server.Close()

	client := listenUDP(t)
	defer client.Close()
	clientAddr := client.LocalAddr().(*net.UDPAddr)

	b := bus.New()
	consumer := b.Subscribe()
	w := New(clientAddr, []string{"AAPL"}, server, consumer)
	go w.Run()

	b.Publish(bus.Send(quotes.StockQuote{Ticker: "NFLX", Price: 1, Volume: 1, Timestamp: 1}))
	b.Publish(bus.Send(quotes.StockQuote{Ticker: "AAPL", Price: 42, Volume: 7, Timestamp: 9}))

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1024)
	n, _, err := client.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}

	got, err := quotes.Decode(buf[:n])
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Ticker != "AAPL" {
		t.Fatalf("expected to receive only AAPL, got %s", got.Ticker)
	}

	// No second datagram should arrive for NFLX.
	_ = client.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := client.ReadFromUDP(buf); err == nil {
		t.Fatal("expected no further datagrams")
	}

	b.Publish(bus.Stop(clientAddr))
	select {
	case <-w.Done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after matching Stop")
	}
}

func TestWorkerIgnoresOtherStops(t *testing.T) {
	server := listenUDP(t)
	defer server.Close()
	client := listenUDP(t)
	defer client.Close()
	clientAddr := client.LocalAddr().(*net.UDPAddr)

	b := bus.New()
	consumer := b.Subscribe()
	w := New(clientAddr, []string{"AAPL"}, server, consumer)
	go w.Run()

	other := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: clientAddr.Port + 1}
	b.Publish(bus.Stop(other))

	select {
	case <-w.Done:
		t.Fatal("worker exited on a Stop for a different address")
	case <-time.After(200 * time.Millisecond):
	}

	b.Publish(bus.Stop(clientAddr))
	select {
	case <-w.Done:
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after its own Stop")
	}
}
