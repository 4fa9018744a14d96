package main

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vpatch/internal/config"
	vperrors "github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/snapshot"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globals holds the persistent flags shared by every command.
type globals struct {
	configPath string
	noColor    bool
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		vperrors.Print(os.Stderr, vperrors.Classify(err, "V042"))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "vpatch",
		Short: "Diff and apply virtual DOM snapshots",
		Long: `vpatch computes minimal patch scripts between two virtual DOM snapshots
and applies them to a live tree.

Nodes are addressed by their preorder index in the old snapshot. Snapshots
are YAML documents; several snapshots in one file are separated by ---.

  tag: ul
  attrs: {class: list}
  children:
    - {tag: li, children: [one]}
    - text: two`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				vperrors.DisableColors()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to vpatch.json (default ./vpatch.json if present)")
	rootCmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn or error (default from vpatch.json)")

	rootCmd.AddCommand(
		diffCmd(),
		applyCmd(g),
		serveCmd(g),
		connectCmd(g),
		versionCmd(),
	)
	return rootCmd
}

// config loads the configuration named by --config, or ./vpatch.json when
// it exists, and applies flag overrides.
func (g *globals) config() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFile(g.configPath)
	} else {
		cfg, err = config.Load(".")
		if errors.Is(err, config.ErrNotFound) {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// logger builds the process logger. Logs go to w so command output on
// stdout stays machine readable.
func (g *globals) logger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadStates reads every snapshot from the given files in order.
func loadStates(paths []string, need int) ([]*vdom.VNode, error) {
	var states []*vdom.VNode
	for _, path := range paths {
		trees, err := snapshot.Load(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, vperrors.New("V004").Wrap(err)
			}
			return nil, err
		}
		states = append(states, trees...)
	}
	if len(states) < need {
		return nil, vperrors.New("V003").
			WithDetail(fmt.Sprintf("Need at least %d snapshots, found %d.", need, len(states)))
	}
	return states, nil
}
