package bus

import (
	"net"
	"testing"
	"time"

	"github.com/nsvirk/moneyquotes/internal/quotes"
)

func TestFanOutFilter(t *testing.T) {
	b := New()
	c := b.Subscribe()
	defer c.Close()

	b.Publish(Send(quotes.StockQuote{Ticker: "AAPL", Price: 1, Volume: 1}))
	b.Publish(Send(quotes.StockQuote{Ticker: "NFLX", Price: 1, Volume: 1}))

	interest := map[string]struct{}{"AAPL": {}}
	var received []quotes.StockQuote

	timeout := time.After(time.Second)
	for i := 0; i < 2; i++ {
		select {
		case cmd := <-c.Recv():
			if cmd.IsSend() {
				if _, ok := interest[cmd.Quote.Ticker]; ok {
					received = append(received, cmd.Quote)
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for bus events")
		}
	}

	if len(received) != 1 || received[0].Ticker != "AAPL" {
		t.Fatalf("expected exactly one AAPL quote, got %+v", received)
	}
}

func TestEveryConsumerSeesEveryEvent(t *testing.T) {
	b := New()
	c1 := b.Subscribe()
	c2 := b.Subscribe()
	defer c1.Close()
	defer c2.Close()

	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9090}
	b.Publish(Stop(addr))

	for _, c := range []*Consumer{c1, c2} {
		select {
		case cmd := <-c.Recv():
			if !cmd.IsStop() || cmd.Addr.String() != addr.String() {
				t.Fatalf("unexpected command: %+v", cmd)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for stop command")
		}
	}
}

func TestCloseDoesNotAffectOtherConsumers(t *testing.T) {
	b := New()
	c1 := b.Subscribe()
	c2 := b.Subscribe()
	c1.Close()

	if b.Len() != 1 {
		t.Fatalf("expected 1 remaining consumer, got %d", b.Len())
	}

	b.Publish(Send(quotes.StockQuote{Ticker: "AAPL", Price: 1, Volume: 1}))
	select {
	case cmd := <-c2.Recv():
		if !cmd.IsSend() {
			t.Fatalf("expected a Send command, got %+v", cmd)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event on surviving consumer")
	}
	c2.Close()
}

func TestSlowConsumerDoesNotBlockPublish(t *testing.T) {
	b := New()
	slow := b.Subscribe()
	defer slow.Close()

	// Never drain `slow`; Publish must still return promptly for many events.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			b.Publish(Send(quotes.StockQuote{Ticker: "AAPL", Price: 1, Volume: 1}))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked on a slow consumer")
	}
}
