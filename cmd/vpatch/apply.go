package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	fcolor "github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	vperrors "github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/dom"
	"github.com/vango-dev/vpatch/pkg/render"
	"github.com/vango-dev/vpatch/pkg/updater"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

func applyCmd(g *globals) *cobra.Command {
	var (
		pretty bool
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "apply FILE...",
		Short: "Apply a sequence of snapshots to a live tree",
		Long: `Materialize the first snapshot as a live tree, then run one render
cycle per following snapshot. Each cycle prints its patch script and the
change to the live tree's HTML.

After every cycle the live tree is checked against the new snapshot.

Examples:
  vpatch apply states.yaml
  vpatch apply --pretty first.yaml second.yaml third.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			states, err := loadStates(args, 1)
			if err != nil {
				return err
			}
			opts := applyOptions{
				pretty: pretty,
				quiet:  quiet,
				color:  !fcolor.NoColor,
			}
			return runApply(cmd.Context(), cmd.OutOrStdout(), states, g.logger(cfg, os.Stderr), opts)
		},
	}

	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Diff indented HTML line by line")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the patch scripts")

	return cmd
}

type applyOptions struct {
	pretty bool
	quiet  bool
	color  bool
}

func runApply(ctx context.Context, out io.Writer, states []*vdom.VNode, logger *slog.Logger, opts applyOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var last updater.Cycle
	doc := dom.NewDocument()
	u, err := updater.New[*dom.Node](doc, states[0],
		updater.WithName("apply"),
		updater.WithLogger(logger),
		updater.WithObserver(func(c updater.Cycle) { last = c }),
	)
	if err != nil {
		return err
	}

	r := render.NewRenderer(render.RendererConfig{Pretty: opts.pretty})
	before, err := r.RenderToString(u.Root().Snapshot())
	if err != nil {
		return err
	}
	if !opts.quiet {
		fmt.Fprintf(out, "# 1\n%s\n", before)
	}

	for i, next := range states[1:] {
		if err := u.Update(ctx, next); err != nil {
			return errors.Wrapf(err, "cycle %d", i+1)
		}
		fmt.Fprintf(out, "# %d: %d patches\n", i+2, len(last.Patches))
		for _, p := range last.Patches {
			fmt.Fprintf(out, "  %s\n", p)
		}

		live := u.Root().Snapshot()
		if !vdom.Equal(live, next) {
			return vperrors.New("V043").Wrap(errors.AssertionFailedf("cycle %d: live %s, want %s", i+1, live, next))
		}

		after, err := r.RenderToString(live)
		if err != nil {
			return err
		}
		if !opts.quiet {
			fmt.Fprintln(out, htmlDiff(before, after, opts.pretty, opts.color))
		}
		before = after
	}
	return nil
}

// htmlDiff renders the change from before to after. Colored output uses
// ANSI escapes; plain output marks deletions [-x-] and insertions {+x+}.
func htmlDiff(before, after string, lines, color bool) string {
	dmp := diffmatchpatch.New()

	var diffs []diffmatchpatch.Diff
	if lines {
		a, b, table := dmp.DiffLinesToChars(before, after)
		diffs = dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), table)
	} else {
		diffs = dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))
	}

	if color {
		return dmp.DiffPrettyText(diffs)
	}
	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+" + d.Text + "+}")
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		}
	}
	return b.String()
}
