// Package config binds the publisher and subscriber CLI surfaces
// (§6) to flags and environment variables, in the teacher's style
// (internal/config/config.go): a struct of settings, a masked String()
// for startup logging, and a SingleLine startup-banner divider. Flag
// parsing itself is out of spec.md's scope (§1), so this package is
// grounded on the dependency stack of the nabbar-golib reference repo
// (spf13/cobra + spf13/pflag + spf13/viper) rather than the teacher's
// own env-only reflection loader, which has no CLI surface to bind to.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// SingleLine is the startup-banner divider, matching the teacher's
// config.SingleLine convention.
const SingleLine = "--------------------------------------------------"

// envPrefix namespaces environment-variable overrides, mirroring the
// teacher's MB_API_* convention.
const envPrefix = "MB_QUOTES"

// PublisherConfig is the publisher process's configuration (§6).
type PublisherConfig struct {
	TCPPort     uint16
	UDPPort     uint16
	TickersPath string
	LogLevel    string

	// RedisAddr, when non-empty, enables the secondary Redis fan-out
	// relay (SPEC_FULL.md DOMAIN STACK). Empty disables it.
	RedisAddr string
	// AuditDSN, when non-empty, enables the Postgres control-plane
	// audit log (SPEC_FULL.md DOMAIN STACK). Empty disables it.
	AuditDSN string
}

// SubscriberConfig is the subscriber process's configuration (§6).
type SubscriberConfig struct {
	RemoteAddr  string
	LocalAddr   string
	TickersPath string
	LogLevel    string
}

// BindPublisherFlags registers the publisher's flags on cmd and
// returns a func that resolves the final configuration once flags
// have been parsed, applying any MB_QUOTES_* environment override
// over the flag default; a flag set explicitly on the command line
// takes precedence over the environment.
func BindPublisherFlags(cmd *cobra.Command) func() PublisherConfig {
	v := newViper()
	flags := cmd.Flags()

	flags.Uint16("tcp-port", 8080, "TCP control port")
	flags.Uint16("udp-port", 7867, "UDP data port")
	flags.String("tickers-path", "resources/tickers.txt", "path to the ticker universe file")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("redis-addr", "", "optional Redis address for the quote relay (disabled if empty)")
	flags.String("audit-dsn", "", "optional Postgres DSN for the subscription audit log (disabled if empty)")

	_ = v.BindPFlags(flags)

	return func() PublisherConfig {
		return PublisherConfig{
			TCPPort:     uint16(v.GetInt("tcp-port")),
			UDPPort:     uint16(v.GetInt("udp-port")),
			TickersPath: v.GetString("tickers-path"),
			LogLevel:    v.GetString("log-level"),
			RedisAddr:   v.GetString("redis-addr"),
			AuditDSN:    v.GetString("audit-dsn"),
		}
	}
}

// BindSubscriberFlags registers the subscriber's flags on cmd and
// returns a func that resolves the final configuration.
func BindSubscriberFlags(cmd *cobra.Command) func() SubscriberConfig {
	v := newViper()
	flags := cmd.Flags()

	flags.String("remote-addr", "127.0.0.1:8080", "publisher control address")
	flags.String("local-addr", "127.0.0.1:9090", "local UDP endpoint to bind and declare")
	flags.String("tickers", "resources/sub.txt", "path to the subscriber's ticker-interest file")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	_ = v.BindPFlags(flags)

	return func() SubscriberConfig {
		return SubscriberConfig{
			RemoteAddr:  v.GetString("remote-addr"),
			LocalAddr:   v.GetString("local-addr"),
			TickersPath: v.GetString("tickers"),
			LogLevel:    v.GetString("log-level"),
		}
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// String renders a PublisherConfig for the startup banner, masking the
// audit DSN the way the teacher masks sensitive fields.
func (c PublisherConfig) String() string {
	var sb strings.Builder
	sb.WriteString("\n" + SingleLine + "\n")
	sb.WriteString("Publisher Configuration:\n")
	sb.WriteString(SingleLine + "\n")
	sb.WriteString(fmt.Sprintf("  TCPPort:     %d\n", c.TCPPort))
	sb.WriteString(fmt.Sprintf("  UDPPort:     %d\n", c.UDPPort))
	sb.WriteString(fmt.Sprintf("  TickersPath: %s\n", c.TickersPath))
	sb.WriteString(fmt.Sprintf("  LogLevel:    %s\n", c.LogLevel))
	sb.WriteString(fmt.Sprintf("  RedisAddr:   %s\n", emptyOrMasked(c.RedisAddr)))
	sb.WriteString(fmt.Sprintf("  AuditDSN:    %s\n", maskDSN(c.AuditDSN)))
	sb.WriteString(SingleLine + "\n")
	return sb.String()
}

// String renders a SubscriberConfig for the startup banner.
func (c SubscriberConfig) String() string {
	var sb strings.Builder
	sb.WriteString("\n" + SingleLine + "\n")
	sb.WriteString("Subscriber Configuration:\n")
	sb.WriteString(SingleLine + "\n")
	sb.WriteString(fmt.Sprintf("  RemoteAddr:  %s\n", c.RemoteAddr))
	sb.WriteString(fmt.Sprintf("  LocalAddr:   %s\n", c.LocalAddr))
	sb.WriteString(fmt.Sprintf("  TickersPath: %s\n", c.TickersPath))
	sb.WriteString(fmt.Sprintf("  LogLevel:    %s\n", c.LogLevel))
	sb.WriteString(SingleLine + "\n")
	return sb.String()
}

func emptyOrMasked(v string) string {
	if v == "" {
		return "(disabled)"
	}
	return v
}

func maskDSN(dsn string) string {
	if dsn == "" {
		return "(disabled)"
	}
	if len(dsn) <= 3 {
		return strings.Repeat("*", 7)
	}
	return dsn[:3] + strings.Repeat("*", 7)
}
