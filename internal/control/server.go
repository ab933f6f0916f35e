package control

import (
	"bufio"
	"context"
	"errors"
	"net"

	"github.com/nsvirk/moneyquotes/pkg/utils/zaplogger"
)

// Listener accepts control connections and posts one SubRequest per
// successful exchange onto Requests. Failure to accept is logged and
// the listener continues (§4.1); per-connection errors close only that
// connection, and the listener retains no memory proportional to past
// connections.
type Listener struct {
	ln       net.Listener
	Requests chan SubRequest

	// Validate, if set, is consulted after a request parses
	// successfully and before it is accepted. Returning an error
	// rejects the request with "ERR <error>" instead of "OK" — used to
	// reject re-subscription from an address already registered (§9
	// Open Question).
	Validate func(SubRequest) error
}

// Listen binds addr and returns a Listener whose Serve method must be
// run in its own goroutine.
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln, Requests: make(chan SubRequest, 64)}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close closes the underlying socket, unblocking Serve.
func (l *Listener) Close() error { return l.ln.Close() }

// Serve accepts connections until ctx is cancelled or the listener is
// closed. Each connection is handled in its own goroutine and is
// strictly one-shot: subsequent bytes on the same connection are
// ignored.
func (l *Listener) Serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		_ = l.ln.Close()
	}()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			zaplogger.Error("control accept failed", zaplogger.Fields{"error": err.Error()})
			continue
		}
		go l.handle(conn)
	}
}

func (l *Listener) handle(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		zaplogger.Debug("control read failed", zaplogger.Fields{"error": err.Error()})
		return
	}

	req, perr := ParseRequest(line)
	if perr != nil {
		zaplogger.Info("control request rejected", zaplogger.Fields{"reason": perr.Error()})
		_, _ = conn.Write([]byte(FormatErr(Reason(perr))))
		return
	}

	if l.Validate != nil {
		if verr := l.Validate(req); verr != nil {
			zaplogger.Info("control request rejected", zaplogger.Fields{"reason": verr.Error()})
			_, _ = conn.Write([]byte(FormatErr(verr.Error())))
			return
		}
	}

	l.Requests <- req
	_, _ = conn.Write([]byte(FormatOK()))
}
