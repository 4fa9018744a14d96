package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vpatch/pkg/protocol"
	"github.com/vango-dev/vpatch/pkg/snapshot"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

func diffCmd() *cobra.Command {
	var (
		wire     bool
		showYAML bool
	)

	cmd := &cobra.Command{
		Use:   "diff OLD [NEW...]",
		Short: "Print the patch script between snapshots",
		Long: `Print the patch script that turns each snapshot into the next one.

The snapshots are read from the given files in order. A single file may
hold several snapshots separated by ---. With more than two snapshots, one
script is printed per consecutive pair.

Examples:
  vpatch diff before.yaml after.yaml
  vpatch diff states.yaml --wire`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			states, err := loadStates(args, 2)
			if err != nil {
				return err
			}
			return runDiff(cmd.OutOrStdout(), states, wire, showYAML)
		},
	}

	cmd.Flags().BoolVarP(&wire, "wire", "w", false, "Print the encoded size of each patches frame")
	cmd.Flags().BoolVar(&showYAML, "yaml", false, "Print each new snapshot after its script")

	return cmd
}

func runDiff(out io.Writer, states []*vdom.VNode, wire, showYAML bool) error {
	for i := 1; i < len(states); i++ {
		if len(states) > 2 {
			fmt.Fprintf(out, "# %d -> %d\n", i, i+1)
		}

		patches := vdom.Diff(states[i-1], states[i])
		if len(patches) == 0 {
			fmt.Fprintln(out, "(no patches)")
		}
		for _, p := range patches {
			fmt.Fprintln(out, p.String())
		}

		if wire {
			size, err := frameSize(uint64(i), patches)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "wire: %d bytes, %d patches, %d targets\n", size, len(patches), len(vdom.Indices(patches)))
		}
		if showYAML {
			data, err := snapshot.Marshal(states[i])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "---\n%s", data)
		}
	}
	return nil
}

// frameSize returns the size of the complete patches frame for patches.
func frameSize(seq uint64, patches []vdom.Patch) (int, error) {
	payload, err := protocol.EncodePatches(&protocol.PatchesFrame{Seq: seq, Patches: patches})
	if err != nil {
		return 0, err
	}
	data, err := protocol.NewFrame(protocol.FramePatches, payload).Encode()
	if err != nil {
		return 0, err
	}
	return len(data), nil
}
