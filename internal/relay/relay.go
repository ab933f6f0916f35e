// Package relay publishes every generated quote to a Redis channel in
// addition to the UDP fan-out (SPEC_FULL.md DOMAIN STACK). Grounded on
// the teacher's PublishService (internal/service/publish_service.go),
// which bridges a Postgres LISTEN/NOTIFY channel to Redis PUBLISH:
// here the generator plays the role the Postgres listener played
// there, and the relay is purely additive — it never sits on the
// critical path of §4.4's bus fan-out.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nsvirk/moneyquotes/internal/quotes"
	"github.com/nsvirk/moneyquotes/pkg/utils/zaplogger"
	"github.com/redis/go-redis/v9"
)

// ChannelPrefix namespaces the per-ticker Redis channel, mirroring the
// teacher's "CH:API:TICKER:DATA" channel-naming convention.
const ChannelPrefix = "CH:QUOTES:"

// quoteMessage is the JSON payload published to Redis; the wire codec
// of §4.2 stays binary-only for the UDP path, so this is an
// independent, human-inspectable representation.
type quoteMessage struct {
	Ticker    string `json:"ticker"`
	Price     uint64 `json:"price"`
	Volume    uint64 `json:"volume"`
	Timestamp uint64 `json:"timestamp"`
}

// Relay publishes quotes to Redis, best-effort.
type Relay struct {
	client *redis.Client
}

// Connect dials addr and verifies connectivity with a PING, matching
// the teacher's ConnectRedis (internal/repository/db_redis.go).
func Connect(addr string) (*Relay, error) {
	zaplogger.Info(" * connecting to Redis relay", zaplogger.Fields{"addr": addr})

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("connect to redis relay: %w", err)
	}

	zaplogger.Info(" * connected")
	return &Relay{client: client}, nil
}

// Publish relays q to Redis under ChannelPrefix+ticker. Failures are
// logged, never fatal: the relay is an optional side-channel, not part
// of the delivery guarantees in §4.4/§4.5.
func (r *Relay) Publish(q quotes.StockQuote) {
	if r == nil {
		return
	}
	payload, err := json.Marshal(quoteMessage{
		Ticker:    q.Ticker,
		Price:     q.Price,
		Volume:    q.Volume,
		Timestamp: q.Timestamp,
	})
	if err != nil {
		zaplogger.Error("relay: failed to marshal quote", zaplogger.Fields{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.client.Publish(ctx, ChannelPrefix+q.Ticker, payload).Err(); err != nil {
		zaplogger.Error("relay: publish failed", zaplogger.Fields{"error": err.Error()})
	}
}

// Close releases the Redis client.
func (r *Relay) Close() error {
	if r == nil {
		return nil
	}
	return r.client.Close()
}
