// Command subscriber subscribes to a running publisher over its
// control channel and prints every quote it receives to stdout (§1,
// §2).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsvirk/moneyquotes/internal/config"
	"github.com/nsvirk/moneyquotes/internal/subscriberapp"
	"github.com/nsvirk/moneyquotes/pkg/utils/zaplogger"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "subscriber",
		Short: "Subscribe to a quote publisher",
	}
	resolve := config.BindSubscriberFlags(root)

	root.RunE = func(cmd *cobra.Command, args []string) error {
		cfg := resolve()
		zaplogger.SetLogLevel(cfg.LogLevel)
		defer zaplogger.Sync()

		fmt.Print(cfg.String())

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return subscriberapp.Run(ctx, cfg, subscriberapp.StdoutPrinter)
	}

	if err := root.Execute(); err != nil {
		// zaplogger's ErrorOutputPaths is stderr only for its own
		// internal errors; Error-level entries go to stdout like every
		// other level, matching the teacher's single-stream logger.
		zaplogger.Error("subscriber exited with error", zaplogger.Fields{"error": err.Error()})
		os.Exit(1)
	}
}
