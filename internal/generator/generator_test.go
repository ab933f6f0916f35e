package generator

import (
	"context"
	"testing"
	"time"

	"github.com/nsvirk/moneyquotes/internal/bus"
)

func TestBoundedWalk(t *testing.T) {
	b := bus.New()
	c := b.Subscribe()
	defer c.Close()

	g := New(b, []string{"AAPL"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Run(ctx)

	last := map[string]uint64{}
	count := 0
	timeout := time.After(5 * time.Second)
	for count < 200 {
		select {
		case cmd := <-c.Recv():
			if !cmd.IsSend() {
				continue
			}
			q := cmd.Quote
			if q.Price < 1 {
				t.Fatalf("price must stay >= 1, got %d", q.Price)
			}
			if prev, ok := last[q.Ticker]; ok {
				var delta uint64
				if q.Price > prev {
					delta = q.Price - prev
				} else {
					delta = prev - q.Price
				}
				bound := (2*prev + 99) / 100
				if bound == 0 {
					bound = 1
				}
				if delta > bound {
					t.Fatalf("price step too large: prev=%d next=%d bound=%d", prev, q.Price, bound)
				}
			}
			last[q.Ticker] = q.Price
			count++
		case <-timeout:
			t.Fatal("timed out waiting for generator emissions")
		}
	}
}

func TestEmptyTickerListNeverEmits(t *testing.T) {
	b := bus.New()
	c := b.Subscribe()
	defer c.Close()

	g := New(b, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Run(ctx)

	select {
	case cmd := <-c.Recv():
		t.Fatalf("expected no emission for an empty ticker list, got %+v", cmd)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTriangularBias(t *testing.T) {
	b := bus.New()
	c := b.Subscribe()
	defer c.Close()

	g := New(b, []string{"A", "B", "C", "D"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go g.Run(ctx)

	counts := map[string]int{}
	const n = 800
	timeout := time.After(15 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case cmd := <-c.Recv():
			if cmd.IsSend() {
				counts[cmd.Quote.Ticker]++
			}
		case <-timeout:
			t.Fatalf("timed out after %d emissions, counts=%v", i, counts)
		}
	}

	if !(counts["A"] > counts["B"] && counts["B"] > counts["C"] && counts["C"] > counts["D"]) {
		t.Fatalf("expected strictly decreasing counts A>B>C>D, got %v", counts)
	}
}
