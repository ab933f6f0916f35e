// Package control implements the text-framed control protocol (§4.1,
// §6): a single-shot "SUB host:port TICKER,..." request over TCP,
// answered with "OK" or "ERR <reason>". Grounded on server/src/tcp.rs
// and client/src/server.rs (original_source/) for the exact grammar
// and failure-message text.
package control

import (
	"fmt"
	"net"
	"strings"

	"github.com/nsvirk/moneyquotes/internal/errs"
)

// SubRequest is the one control-protocol command: a subscriber
// announcing its UDP endpoint and its ticker interest set.
type SubRequest struct {
	Addr    *net.UDPAddr
	Tickers []string
}

// ParseRequest parses one CRLF-stripped request line. Unknown verbs,
// missing fields, or an unparseable address all yield the same
// "Bad request: <line>" InvalidInput error (§4.1).
func ParseRequest(line string) (SubRequest, error) {
	trimmed := strings.TrimRight(line, "\r\n")
	fields := strings.Fields(trimmed)

	badRequest := func() error {
		return fmt.Errorf("%w: Bad request: %s", errs.InvalidInput, trimmed)
	}

	if len(fields) == 0 || fields[0] != "SUB" {
		return SubRequest{}, badRequest()
	}
	if len(fields) < 3 {
		return SubRequest{}, badRequest()
	}

	addr, err := net.ResolveUDPAddr("udp", fields[1])
	if err != nil {
		return SubRequest{}, badRequest()
	}

	tickers := strings.Split(fields[2], ",")
	for _, t := range tickers {
		if t == "" {
			return SubRequest{}, badRequest()
		}
	}

	return SubRequest{Addr: addr, Tickers: tickers}, nil
}

// FormatRequest renders a SubRequest back into the wire grammar,
// without the trailing CRLF (the caller appends it on write).
func FormatRequest(r SubRequest) string {
	return fmt.Sprintf("SUB %s %s", r.Addr.String(), strings.Join(r.Tickers, ","))
}

// FormatOK renders the acceptance response line, CRLF-terminated.
func FormatOK() string {
	return "OK\r\n"
}

// FormatErr renders the rejection response line, CRLF-terminated. The
// reason is used verbatim; ParseRequest already embeds "Bad request:
// <line>" into InvalidInput errors, so callers typically pass
// err.Error() with the classification prefix stripped.
func FormatErr(reason string) string {
	return fmt.Sprintf("ERR %s\r\n", reason)
}

// Reason strips the "invalid input: " classification prefix that
// fmt.Errorf("%w: ...", errs.InvalidInput) adds, leaving the bare
// message the wire protocol expects after "ERR ".
func Reason(err error) string {
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 && strings.HasPrefix(msg, errs.InvalidInput.Error()) {
		return msg[idx+2:]
	}
	return msg
}
