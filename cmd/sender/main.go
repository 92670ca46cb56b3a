package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
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
		Use:           "sender <host> <port> <username>",
		Short:         "Interactive chat sender",
		Long:          "Send messages to a room. Commands: /join <room>, /leave, /quit.",
		Args:          cobra.ExactArgs(3),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.Atoi(args[1])
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "invalid port %q\n", args[1])
				return err
			}
			cmd.SilenceUsage = true

			ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
			c, err := client.Dial(ctx, args[0], port)
			cancel()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "connect: %v\n", err)
				return err
			}
			defer c.Close()

			return client.RunSender(c, args[2], cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}
