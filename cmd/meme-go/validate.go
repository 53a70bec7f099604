package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-meme/internal/config"
)

func (a *app) newValidateCmd() *cobra.Command {
	var (
		strict     bool
		checkFiles bool
	)
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Check a config file for errors",
		Long: `Validate parses a configuration and reports errors and warnings.
With --strict, values outside the interactive control ranges and unknown
YAML or TOML keys are errors.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat range warnings and unknown keys as errors")
	cmd.Flags().BoolVar(&checkFiles, "check-files", true, "check that referenced font files exist")

	cmd.RunE = a.action(func(cmd *cobra.Command, args []string) error {
		cfg, err := parseConfigFile(args[0], strict)
		if err != nil {
			return err
		}
		res := config.NewValidator().WithStrictMode(strict).WithFileChecks(checkFiles).Validate(cfg)
		for _, w := range res.Warnings {
			fmt.Fprintf(a.out, "warning: %s\n", w)
		}
		for _, e := range res.Errors {
			fmt.Fprintf(a.out, "error: %s\n", e)
		}
		if !res.IsValid() {
			return fmt.Errorf("%s: %d error(s)", args[0], len(res.Errors))
		}
		fmt.Fprintf(a.out, "%s: ok\n", args[0])
		return nil
	})
	return cmd
}
