package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	vperrors "github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/stream"
)

func connectCmd(g *globals) *cobra.Command {
	var (
		frames  int
		timeout time.Duration
		patches bool
	)

	cmd := &cobra.Command{
		Use:   "connect URL",
		Short: "Follow a snapshot stream",
		Long: `Connect to a vpatch serve endpoint, apply every patches frame to a local
live tree and print the tree's HTML after each one.

Examples:
  vpatch connect ws://localhost:8080/ws
  vpatch connect --frames=10 --patches ws://localhost:8080/ws`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			logger := g.logger(cfg, os.Stderr)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			dialCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			c, err := stream.Dial(dialCtx, args[0], nil,
				stream.WithClientLogger(logger),
				stream.WithLimits(cfg.DecodeLimits()),
			)
			if err != nil {
				return vperrors.New("V040").Wrap(err)
			}
			return follow(ctx, cmd.OutOrStdout(), c, frames, patches)
		},
	}

	cmd.Flags().IntVarP(&frames, "frames", "n", 0, "Exit after this many patches frames (0 follows until closed)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Dial timeout")
	cmd.Flags().BoolVar(&patches, "patches", false, "Print each frame's patch script")

	return cmd
}

// follow prints the live tree after the snapshot and after every applied
// frame until n frames were applied, ctx ends or the server closes.
func follow(ctx context.Context, out io.Writer, c *stream.Client, n int, showPatches bool) error {
	defer c.Close()

	// Unblock the pending read when ctx ends.
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	fmt.Fprintf(out, "# 0\n%s\n", c.Root().OuterHTML())
	for i := 0; n == 0 || i < n; i++ {
		pf, err := c.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || closedNormally(err) {
				return nil
			}
			return err
		}
		fmt.Fprintf(out, "# %d: %d patches\n", pf.Seq, len(pf.Patches))
		if showPatches {
			for _, p := range pf.Patches {
				fmt.Fprintf(out, "  %s\n", p)
			}
		}
		fmt.Fprintln(out, c.Root().OuterHTML())
	}
	return nil
}

func closedNormally(err error) bool {
	var ce *websocket.CloseError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway
}
