package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/linechat/internal/client"
)

const dialTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "receiver <host> <port> <username> <room>",
		Short:         "Print every message delivered to a room",
		Args:          cobra.ExactArgs(4),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.Atoi(args[1])
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "invalid port %q\n", args[1])
				return err
			}
			cmd.SilenceUsage = true

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
			c, err := client.Dial(dialCtx, args[0], port)
			cancel()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "connect: %v\n", err)
				return err
			}
			defer c.Close()

			return client.RunReceiver(ctx, c, args[2], args[3], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}
