package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info [config]",
		Short: "Load the image and report its details and the generator health",
		Args:  cobra.MaximumNArgs(1),
	}
	addKeyFlags(cmd)

	cmd.RunE = a.action(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g, err := a.open(cmd, argOrEmpty(args), a.options())
		if err != nil {
			return err
		}
		defer g.Close()

		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		if info, err := g.LoadImage(ctx); err != nil {
			fmt.Fprintf(tw, "image:\t%v\n", err)
		} else {
			fmt.Fprintf(tw, "image:\t%s\n", info.Source)
			fmt.Fprintf(tw, "format:\t%s (%s)\n", info.Format, info.MIME)
			fmt.Fprintf(tw, "size:\t%dx%d, %d bytes\n", info.Width, info.Height, info.Bytes)
			if r, err := g.Render(ctx); err == nil {
				fmt.Fprintf(tw, "canvas:\t%dx%d\n", r.Frame.Width, r.Frame.Height)
				fmt.Fprintf(tw, "font:\t%s\n", r.Frame.Font)
			}
		}
		st := g.Status()
		fmt.Fprintf(tw, "config:\t%s\n", st.ConfigSource)
		fmt.Fprintf(tw, "load time:\t%s\n", g.Metrics().Snapshot().LoadLatencyAvg)

		h := g.Health()
		fmt.Fprintf(tw, "health:\t%s\n", h.Status)
		names := make([]string, 0, len(h.Components))
		for name := range h.Components {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			c := h.Components[name]
			if c.Message != "" {
				fmt.Fprintf(tw, "  %s:\t%s (%s)\n", name, c.Status, c.Message)
			} else {
				fmt.Fprintf(tw, "  %s:\t%s\n", name, c.Status)
			}
		}
		return tw.Flush()
	})
	return cmd
}
