package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-meme/internal/config"
	"github.com/opd-ai/go-meme/internal/render"
)

func (a *app) newRenderCmd() *cobra.Command {
	var (
		trace   bool
		dataURL bool
		strict  bool
	)
	cmd := &cobra.Command{
		Use:   "render [config]",
		Short: "Render a meme once and export it",
		Long: `Render loads the image named by the configuration, draws the captions
and writes the result to the output path. Every configuration key is also
a flag; flags win over the file. An output of "-" writes to stdout, and a
config of "-" is read from stdin.`,
		Example: `  meme-go render meme.lua
  meme-go render -i cat.png -t "one does not simply" -b "render a meme" -o out.png
  meme-go render meme.yaml --rotate 15 --mirror --trace`,
		Args: cobra.MaximumNArgs(1),
	}
	addKeyFlags(cmd)
	f := cmd.Flags()
	f.BoolVar(&trace, "trace", false, "print the drawing calls instead of exporting")
	f.BoolVar(&dataURL, "data-url", false, "print a data URL instead of writing a file")
	f.BoolVar(&strict, "strict", false, "treat values outside the interactive ranges as errors")

	cmd.RunE = a.action(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g, err := a.open(cmd, argOrEmpty(args), a.options())
		if err != nil {
			return err
		}
		defer g.Close()

		if strict {
			res := config.NewValidator().WithStrictMode(true).Validate(g.Config())
			if err := res.Error(); err != nil {
				return err
			}
		}

		switch {
		case trace:
			rec := render.NewRecorder()
			if _, err := g.RenderTo(ctx, rec); err != nil {
				return err
			}
			fmt.Fprint(a.out, rec.String())
		case dataURL:
			u, err := g.DataURL(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, u)
		case g.Config().Output.Path == "-":
			return g.Export(ctx, a.out)
		default:
			path, err := g.ExportFile(ctx, "")
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, path)
		}
		return nil
	})
	return cmd
}
