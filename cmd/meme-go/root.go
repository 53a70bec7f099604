package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-meme/internal/config"
	"github.com/opd-ai/go-meme/internal/profiling"
	"github.com/opd-ai/go-meme/pkg/meme"
)

// app holds the state shared by all subcommands.
type app struct {
	out    io.Writer
	errOut io.Writer

	logLevel string
	logJSON  bool
	prof     profiling.Config

	logger   meme.Logger
	profiler *profiling.Profiler
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:   "meme-go",
		Short: "Caption, rotate and export images as memes",
		Long: `meme-go draws an image with top and bottom captions, rotated, scaled
and optionally mirrored, and exports the result as PNG or JPEG.

Settings come from a Lua, YAML, TOML or plain key/value file and can be
overridden with flags. Run "meme-go convert" to turn any of them into Lua.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	pf.BoolVar(&a.logJSON, "log-json", false, "log as JSON")
	pf.StringVar(&a.prof.CPUProfilePath, "cpuprofile", "", "write a CPU profile to `file`")
	pf.StringVar(&a.prof.MemProfilePath, "memprofile", "", "write a heap profile to `file`")
	pf.StringVar(&a.prof.TracePath, "trace-out", "", "write an execution trace to `file`")

	cmd.AddCommand(
		a.newRenderCmd(),
		a.newWatchCmd(),
		a.newPreviewCmd(),
		a.newConvertCmd(),
		a.newValidateCmd(),
		a.newInfoCmd(),
		a.newVersionCmd(),
	)
	return cmd
}

// action wraps a RunE function with logger setup and profiling.
func (a *app) action(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		level, err := meme.ParseLevel(a.logLevel)
		if err != nil {
			return err
		}
		a.logger = meme.NewLogger(a.errOut, level, a.logJSON)

		if a.prof.Enabled() {
			a.profiler = profiling.New(a.prof)
			if err := a.profiler.Start(); err != nil {
				return fmt.Errorf("failed to start profiling: %w", err)
			}
			defer func() {
				if err := a.profiler.Stop(); err != nil {
					fmt.Fprintf(a.errOut, "Warning: failed to stop profiling: %v\n", err)
				}
			}()
		}
		return fn(cmd, args)
	}
}

func (a *app) options() *meme.Options {
	return &meme.Options{Logger: a.logger}
}

// open creates a generator from a config path, stdin for "-", or the
// defaults when path is empty, then applies the key flags set on cmd.
func (a *app) open(cmd *cobra.Command, path string, opts *meme.Options) (meme.Generator, error) {
	var (
		g   meme.Generator
		err error
	)
	switch path {
	case "":
		g, err = meme.New(nil, opts)
	case "-":
		g, err = meme.NewFromReader(cmd.InOrStdin(), meme.FormatAuto, opts)
	default:
		g, err = meme.NewFromFile(path, opts)
	}
	if err != nil {
		return nil, err
	}

	cfg := g.Config()
	changed, err := applyKeyFlags(cmd, cfg)
	if err == nil && changed {
		err = g.SetConfig(cmd.Context(), cfg)
	}
	if err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

// keyShorthands are the one-letter forms of the most used key flags.
var keyShorthands = map[string]string{
	"image":       "i",
	"text_top":    "t",
	"text_bottom": "b",
	"output":      "o",
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// addKeyFlags registers one flag per configuration key, defaulting to the
// built-in value.
func addKeyFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()
	f := cmd.Flags()
	for _, k := range config.Keys() {
		name, short := flagName(k.Name), keyShorthands[k.Name]
		def, _ := defaults.Get(k.Name)
		switch k.Kind {
		case config.KindFloat:
			v, _ := def.(float64)
			f.Float64P(name, short, v, k.Help)
		case config.KindInt:
			v, _ := def.(int)
			f.IntP(name, short, v, k.Help)
		case config.KindBool:
			v, _ := def.(bool)
			f.BoolP(name, short, v, k.Help)
		default:
			f.StringP(name, short, config.FormatValue(def), k.Help)
		}
	}
}

// applyKeyFlags copies the key flags given on the command line into cfg
// and reports whether any were.
func applyKeyFlags(cmd *cobra.Command, cfg *config.Config) (bool, error) {
	changed := false
	for _, k := range config.Keys() {
		fl := cmd.Flags().Lookup(flagName(k.Name))
		if fl == nil || !fl.Changed {
			continue
		}
		if err := cfg.Set(k.Name, fl.Value.String()); err != nil {
			return changed, fmt.Errorf("--%s: %w", fl.Name, err)
		}
		changed = true
	}
	return changed, nil
}

func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "meme-go version %s\n", Version)
		},
	}
}
