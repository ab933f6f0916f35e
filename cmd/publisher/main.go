// Command publisher runs the market-data fan-out service: it accepts
// control-channel subscriptions over TCP and streams generated quotes
// to each subscriber over UDP (§1, §2).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsvirk/moneyquotes/internal/config"
	"github.com/nsvirk/moneyquotes/internal/publisherapp"
	"github.com/nsvirk/moneyquotes/pkg/utils/zaplogger"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "publisher",
		Short: "Run the quote publisher",
	}
	resolve := config.BindPublisherFlags(root)

	root.RunE = func(cmd *cobra.Command, args []string) error {
		cfg := resolve()
		zaplogger.SetLogLevel(cfg.LogLevel)
		defer zaplogger.Sync()

		fmt.Print(cfg.String())

		app, err := publisherapp.New(cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		zaplogger.Info("publisher ready", zaplogger.Fields{
			"tcp": app.TCPAddr().String(),
			"udp": app.UDPAddr().String(),
		})

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return app.Run(ctx)
	}

	if err := root.Execute(); err != nil {
		zaplogger.Error("publisher exited with error", zaplogger.Fields{"error": err.Error()})
		os.Exit(1)
	}
}
