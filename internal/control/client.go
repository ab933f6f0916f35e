package control

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"
)

// Dial opens one TCP connection to remoteAddr, sends a single SUB
// request naming localAddr and tickers, reads one response line, and
// closes (§2, subscriber control client). It returns an error if the
// server replied with ERR, or on any transport failure.
func Dial(remoteAddr string, localAddr *net.UDPAddr, tickers []string) error {
	conn, err := net.DialTimeout("tcp", remoteAddr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("dial control channel: %w", err)
	}
	defer conn.Close()

	req := SubRequest{Addr: localAddr, Tickers: tickers}
	if _, err := conn.Write([]byte(FormatRequest(req) + "\r\n")); err != nil {
		return fmt.Errorf("write SUB request: %w", err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return fmt.Errorf("read control response: %w", err)
	}
	reply = strings.TrimRight(reply, "\r\n")

	if reply == "OK" {
		return nil
	}
	return fmt.Errorf("control channel rejected subscription: %s", reply)
}
