package quotes

import (
	"errors"
	"testing"

	"github.com/nsvirk/moneyquotes/internal/errs"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []StockQuote{
		{Ticker: "A", Price: 1, Volume: 1, Timestamp: 0},
		{Ticker: "AAPL", Price: 18446744073709551615, Volume: 42, Timestamp: 1_700_000_000_000},
		{Ticker: "NFLX", Price: 123456, Volume: 789, Timestamp: 1},
	}

	for _, q := range cases {
		buf, err := Encode(q)
		if err != nil {
			t.Fatalf("Encode(%+v): %v", q, err)
		}
		got, err := Decode(buf)
		if err != nil {
			t.Fatalf("Decode(Encode(%+v)): %v", q, err)
		}
		if got != q {
			t.Fatalf("round-trip mismatch: got %+v want %+v", got, q)
		}
	}
}

func TestEncodeOversizeTickerIsInvalidInput(t *testing.T) {
	_, err := Encode(StockQuote{Ticker: "APPLE", Price: 1, Volume: 1})
	if !errors.Is(err, errs.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestEncodeEmptyTickerIsInvalidInput(t *testing.T) {
	_, err := Encode(StockQuote{Ticker: "", Price: 1, Volume: 1})
	if !errors.Is(err, errs.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestDecodeTruncatedIsInvalidInput(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		{0, 0, 0},
		make([]byte, 27),
	}
	for _, buf := range cases {
		_, err := Decode(buf)
		if !errors.Is(err, errs.InvalidInput) {
			t.Fatalf("Decode(%v): expected InvalidInput, got %v", buf, err)
		}
	}
}

func TestDecodeOversizeTickerLenIsInvalidInput(t *testing.T) {
	buf, err := Encode(StockQuote{Ticker: "AAPL", Price: 1, Volume: 1})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Claim a 5-byte ticker body without supplying the bytes.
	buf[3] = buf[3] + 1
	_, err = Decode(buf)
	if !errors.Is(err, errs.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestIsPingPong(t *testing.T) {
	if !IsPing([]byte(Ping)) {
		t.Fatal("expected IsPing(PING) to be true")
	}
	if !IsPong([]byte(Pong)) {
		t.Fatal("expected IsPong(PONG) to be true")
	}
	if IsPing([]byte(Pong)) || IsPong([]byte(Ping)) {
		t.Fatal("PING/PONG must not cross-match")
	}
}
