package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-meme/internal/preview"
	"github.com/opd-ai/go-meme/pkg/meme"
)

func (a *app) newPreviewCmd() *cobra.Command {
	var (
		watch bool
		title string
	)
	cmd := &cobra.Command{
		Use:   "preview [config]",
		Short: "Show the meme in a window and adjust it from the keyboard",
		Long: `Preview opens a window showing the meme. The left and right arrows
rotate it, up and down scale it, M mirrors it, R resets the transform and
S saves the export. With --watch the window follows edits to the file.`,
		Args: cobra.MaximumNArgs(1),
	}
	addKeyFlags(cmd)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload when the config file changes")
	cmd.Flags().StringVar(&title, "title", preview.DefaultTitle, "window title")

	cmd.RunE = a.action(func(cmd *cobra.Command, args []string) error {
		path := argOrEmpty(args)
		if watch && (path == "" || path == "-") {
			return fmt.Errorf("--watch needs a config file")
		}
		g, err := a.open(cmd, path, a.options())
		if err != nil {
			return err
		}
		defer g.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		eg, ctx := errgroup.WithContext(ctx)

		invalidate := make(chan struct{}, 1)
		if watch {
			eg.Go(func() error {
				return g.Watch(ctx, func(*meme.Rendered, error) {
					select {
					case invalidate <- struct{}{}:
					default:
					}
				})
			})
		}

		// The window must run on the calling goroutine.
		err = preview.Run(ctx, g, preview.Options{
			Title:      title,
			Invalidate: invalidate,
			OnError: func(err error) {
				fmt.Fprintf(a.errOut, "Warning: %v\n", err)
			},
			OnSave: func(path string) {
				fmt.Fprintln(a.out, path)
			},
		})
		cancel()
		if werr := eg.Wait(); err == nil {
			err = werr
		}
		return err
	})
	return cmd
}
