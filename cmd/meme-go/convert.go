package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-meme/internal/config"
)

func (a *app) newConvertCmd() *cobra.Command {
	var (
		to       string
		output   string
		defaults bool
		comments bool
	)
	cmd := &cobra.Command{
		Use:   "convert <config>",
		Short: "Convert a config file to Lua, YAML, TOML or the plain format",
		Long: `Convert reads a configuration in any supported format and prints it in
another, Lua by default. Settings equal to the defaults are left out unless
--defaults is given.`,
		Example: `  meme-go convert meme.txt > meme.lua
  meme-go convert meme.lua --to yaml -o meme.yaml`,
		Args: cobra.ExactArgs(1),
	}
	f := cmd.Flags()
	f.StringVar(&to, "to", string(config.FileFormatLua), "output format: lua, yaml, toml or plain")
	f.StringVarP(&output, "output", "o", "", "write to `file` instead of stdout")
	f.BoolVar(&defaults, "defaults", false, "include settings that match the defaults")
	f.BoolVar(&comments, "comments", true, "annotate Lua output with comments")

	cmd.RunE = a.action(func(cmd *cobra.Command, args []string) error {
		format, err := config.ParseFileFormat(to)
		if err != nil {
			return err
		}
		cfg, err := parseConfigFile(args[0], false)
		if err != nil {
			return err
		}
		data, err := config.Marshal(cfg, format, config.WithComments(comments), config.WithDefaults(defaults))
		if err != nil {
			return fmt.Errorf("error converting configuration: %w", err)
		}
		if output == "" {
			_, err = a.out.Write(data)
			return err
		}
		return os.WriteFile(output, data, 0o644)
	})
	return cmd
}

// parseConfigFile parses a config file of any format.
func parseConfigFile(path string, strict bool) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("error accessing configuration file %s: %w", path, err)
	}
	p, err := config.NewParser()
	if err != nil {
		return nil, err
	}
	defer p.Close()
	p.SetStrict(strict)
	return p.ParseFile(path)
}
