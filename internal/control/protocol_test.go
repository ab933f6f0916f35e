package control

import (
	"errors"
	"net"
	"testing"

	"github.com/nsvirk/moneyquotes/internal/errs"
)

func TestParseFormatRoundTrip(t *testing.T) {
	addr, err := net.ResolveUDPAddr("udp", "127.0.0.1:9090")
	if err != nil {
		t.Fatalf("ResolveUDPAddr: %v", err)
	}
	req := SubRequest{Addr: addr, Tickers: []string{"AAPL", "NFLX"}}

	line := FormatRequest(req)
	got, err := ParseRequest(line)
	if err != nil {
		t.Fatalf("ParseRequest(%q): %v", line, err)
	}
	if got.Addr.String() != req.Addr.String() {
		t.Fatalf("addr mismatch: got %s want %s", got.Addr, req.Addr)
	}
	if len(got.Tickers) != 2 || got.Tickers[0] != "AAPL" || got.Tickers[1] != "NFLX" {
		t.Fatalf("tickers mismatch: got %v", got.Tickers)
	}
}

func TestParseBadVerb(t *testing.T) {
	_, err := ParseRequest("FOO\r\n")
	if !errors.Is(err, errs.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
	if Reason(err) != "Bad request: FOO" {
		t.Fatalf("unexpected reason: %q", Reason(err))
	}
}

func TestParseBadAddress(t *testing.T) {
	_, err := ParseRequest("SUB not-an-address AAPL")
	if !errors.Is(err, errs.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestParseUnknownVerbWithValidAddress(t *testing.T) {
	_, err := ParseRequest("FOO 1.2.3.4:5 AAPL")
	if !errors.Is(err, errs.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestParseMissingFields(t *testing.T) {
	cases := []string{"SUB", "SUB 127.0.0.1:9090"}
	for _, c := range cases {
		if _, err := ParseRequest(c); !errors.Is(err, errs.InvalidInput) {
			t.Fatalf("ParseRequest(%q): expected InvalidInput, got %v", c, err)
		}
	}
}
