package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-meme/pkg/meme"
)

func (a *app) newWatchCmd() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <config>",
		Short: "Re-export the meme whenever the config file changes",
		Long: `Watch exports once, then re-renders and re-exports every time the
configuration file is saved. SIGHUP forces a reload. Key flags apply to the
first export only; later exports follow the file.`,
		Args: cobra.ExactArgs(1),
	}
	addKeyFlags(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", meme.DefaultWatchDebounce, "quiet period before a change is picked up")

	cmd.RunE = a.action(func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		opts := a.options()
		opts.WatchDebounce = debounce
		g, err := a.open(cmd, args[0], opts)
		if err != nil {
			return err
		}
		defer g.Close()

		g.SetEventHandler(func(e meme.Event) {
			if e.Type == meme.EventExported {
				fmt.Fprintf(a.out, "[%s] %s: %s\n", e.Timestamp.Format("15:04:05"), e.Type, e.Message)
			}
		})

		export := func(ctx context.Context) {
			if _, err := g.ExportFile(ctx, ""); err != nil {
				fmt.Fprintf(a.errOut, "Warning: %v\n", err)
			}
		}
		export(ctx)

		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-hup:
					rctx := meme.WithRenderID(ctx, "")
					if err := g.ReloadConfig(rctx); err != nil {
						fmt.Fprintf(a.errOut, "Reload failed: %v\n", err)
						continue
					}
					export(rctx)
				}
			}
		}()

		return g.Watch(ctx, func(r *meme.Rendered, err error) {
			if err != nil {
				fmt.Fprintf(a.errOut, "Warning: %v\n", err)
				return
			}
			export(ctx)
		})
	})
	return cmd
}
