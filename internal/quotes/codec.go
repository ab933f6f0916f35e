package quotes

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/nsvirk/moneyquotes/internal/errs"
)

// fixedFieldsLen is the combined byte width of price+volume+timestamp.
const fixedFieldsLen = 8 + 8 + 8

// Ping and Pong are the two literal 4-byte liveness packets (§4.2).
const (
	Ping = "PING"
	Pong = "PONG"
)

// Encode serializes a quote into the self-describing binary frame of
// §4.2: a u32 body length followed by price, volume, timestamp (all
// big-endian u64) and the raw ticker bytes. A ticker over MaxTickerLen
// bytes is a serialization error surfaced to the caller, never a panic.
func Encode(q StockQuote) ([]byte, error) {
	ticker := []byte(q.Ticker)
	if len(ticker) == 0 || len(ticker) > MaxTickerLen {
		return nil, fmt.Errorf("%w: ticker length must be in [1,%d], got %d", errs.InvalidInput, MaxTickerLen, len(ticker))
	}

	bodyLen := fixedFieldsLen + len(ticker)
	buf := make([]byte, 4+bodyLen)
	binary.BigEndian.PutUint32(buf[0:4], uint32(bodyLen))
	binary.BigEndian.PutUint64(buf[4:12], q.Price)
	binary.BigEndian.PutUint64(buf[12:20], q.Volume)
	binary.BigEndian.PutUint64(buf[20:28], q.Timestamp)
	copy(buf[28:], ticker)
	return buf, nil
}

// Decode parses a quote frame per §4.2. Any short read, an out-of-range
// ticker length, or a non-UTF8 ticker is an InvalidInput error; the
// caller is expected to log and drop the datagram rather than panic.
func Decode(buf []byte) (StockQuote, error) {
	if len(buf) < 4+fixedFieldsLen {
		return StockQuote{}, fmt.Errorf("%w: short frame, got %d bytes", errs.InvalidInput, len(buf))
	}

	bodyLen := binary.BigEndian.Uint32(buf[0:4])
	tickerLen := int(bodyLen) - fixedFieldsLen
	if tickerLen < 1 || tickerLen > MaxTickerLen {
		return StockQuote{}, fmt.Errorf("%w: ticker length out of range, got %d", errs.InvalidInput, tickerLen)
	}
	if len(buf) != 4+int(bodyLen) {
		return StockQuote{}, fmt.Errorf("%w: frame length mismatch, declared %d got %d", errs.InvalidInput, bodyLen, len(buf)-4)
	}

	price := binary.BigEndian.Uint64(buf[4:12])
	volume := binary.BigEndian.Uint64(buf[12:20])
	timestamp := binary.BigEndian.Uint64(buf[20:28])
	tickerBytes := buf[28 : 28+tickerLen]
	if !utf8.Valid(tickerBytes) {
		return StockQuote{}, fmt.Errorf("%w: ticker is not valid UTF-8", errs.InvalidInput)
	}

	return StockQuote{
		Ticker:    string(tickerBytes),
		Price:     price,
		Volume:    volume,
		Timestamp: timestamp,
	}, nil
}

// IsPing reports whether buf is the literal 4-byte "PING" packet.
func IsPing(buf []byte) bool {
	return len(buf) == 4 && string(buf) == Ping
}

// IsPong reports whether buf is the literal 4-byte "PONG" packet.
func IsPong(buf []byte) bool {
	return len(buf) == 4 && string(buf) == Pong
}
