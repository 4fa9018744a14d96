package vdom_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/vango-dev/vpatch/pkg/dom"
	"github.com/vango-dev/vpatch/pkg/snapshot"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// TestDiffDataDriven runs the cases in testdata/diff. Inputs are YAML
// snapshot streams; diff and apply take an old and a new tree.
//
//	diff      prints one patch per line and checks the round trip
//	apply     prints the live tree as HTML after patching
//	count     prints the number of nodes of each tree
func TestDiffDataDriven(t *testing.T) {
	datadriven.RunTest(t, "testdata/diff", func(t *testing.T, td *datadriven.TestData) string {
		trees, err := snapshot.ParseAll([]byte(td.Input))
		if err != nil {
			td.Fatalf(t, "parse: %v", err)
		}

		switch td.Cmd {
		case "diff", "apply":
			if len(trees) != 2 {
				td.Fatalf(t, "%s needs 2 trees, got %d", td.Cmd, len(trees))
			}
			prev, next := trees[0], trees[1]
			patches := vdom.Diff(prev, next)

			doc := dom.NewDocument()
			root, err := doc.Create(prev)
			if err != nil {
				td.Fatalf(t, "create: %v", err)
			}
			root, err = vdom.Apply[*dom.Node](doc, root, patches)
			if err != nil {
				return fmt.Sprintf("error: %v\n", err)
			}
			if !vdom.Equal(root.Snapshot(), next) {
				t.Errorf("%s: live tree %v, want %v", td.Pos, root.Snapshot(), next)
			}

			if td.Cmd == "apply" {
				return root.OuterHTML() + "\n"
			}
			if len(patches) == 0 {
				return "(no patches)\n"
			}
			var b strings.Builder
			for _, p := range patches {
				fmt.Fprintln(&b, p)
			}
			return b.String()

		case "count":
			var b strings.Builder
			for _, tree := range trees {
				fmt.Fprintln(&b, vdom.Count(tree))
			}
			return b.String()

		default:
			return fmt.Sprintf("unknown command: %s\n", td.Cmd)
		}
	})
}
