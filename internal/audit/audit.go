// Package audit records control-plane events (accepted SUB, monitor
// Stop) to Postgres when enabled, adapting the teacher's repository +
// schema-bootstrap shape (internal/repository/db_postgres.go,
// internal/repository/ticker_repo.go). It is never on the critical
// path of the control/data protocols: a nil *Log is a documented
// no-op, so the fan-out engine has no hard Postgres dependency, and
// the log is never read back to restore state (spec.md's Non-goals
// exclude persistence of subscriptions across restart).
package audit

import (
	"fmt"
	"time"

	"github.com/nsvirk/moneyquotes/pkg/utils/zaplogger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// EventKind tags a SubscriptionEvent.
type EventKind string

const (
	EventSubscribed EventKind = "subscribed"
	EventStopped    EventKind = "stopped"
)

// SubscriptionEventTableName is the audit table name.
const SubscriptionEventTableName = "quote_subscription_events"

// SubscriptionEvent is one row of the control-plane audit trail.
type SubscriptionEvent struct {
	ID      uint `gorm:"primaryKey"`
	Addr    string
	Tickers string
	Kind    string
	At      time.Time
}

// TableName pins the GORM table name, matching the teacher's
// TableName() override convention (pkg/utils/zaplogger.LogModel).
func (SubscriptionEvent) TableName() string { return SubscriptionEventTableName }

// Log appends subscription lifecycle events to Postgres.
type Log struct {
	db *gorm.DB
}

// Connect opens dsn, migrates the audit table, and returns a Log. The
// caller owns the decision of whether to call Connect at all — when
// AuditDSN is empty the publisher simply never calls this and every
// Log method becomes a no-op through a nil receiver.
func Connect(dsn string) (*Log, error) {
	zaplogger.Info(" * connecting audit log to Postgres")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect audit postgres: %w", err)
	}

	if err := db.AutoMigrate(&SubscriptionEvent{}); err != nil {
		return nil, fmt.Errorf("migrate audit schema: %w", err)
	}

	zaplogger.Info(" * audit log ready")
	return &Log{db: db}, nil
}

// RecordSubscribed appends a "subscribed" event.
func (l *Log) RecordSubscribed(addr string, tickers []string) {
	l.record(addr, tickers, EventSubscribed)
}

// RecordStopped appends a "stopped" event.
func (l *Log) RecordStopped(addr string) {
	l.record(addr, nil, EventStopped)
}

// Close releases the underlying database connection.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (l *Log) record(addr string, tickers []string, kind EventKind) {
	if l == nil {
		return
	}
	event := SubscriptionEvent{
		Addr:    addr,
		Tickers: joinTickers(tickers),
		Kind:    string(kind),
		At:      time.Now(),
	}
	if err := l.db.Create(&event).Error; err != nil {
		zaplogger.Error("audit: failed to record event", zaplogger.Fields{
			"addr":  addr,
			"kind":  string(kind),
			"error": err.Error(),
		})
	}
}

func joinTickers(tickers []string) string {
	out := ""
	for i, t := range tickers {
		if i > 0 {
			out += ","
		}
		out += t
	}
	return out
}
