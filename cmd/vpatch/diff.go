package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/patch"
	"github.com/vango-dev/vpatch/pkg/protocol"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

func diffCmd(a *app) *cobra.Command {
	var (
		format string
		output string
		stats  bool
	)

	cmd := &cobra.Command{
		Use:   "diff [PREV] NEXT",
		Short: "Print the patch tree between two snapshots",
		Long: `Diff two snapshots and print the patch tree that turns PREV into NEXT.
With a single argument PREV is absent and the tree mounts NEXT.

Formats:
  text    indented patch listing (default)
  json    patch counts and listing as JSON
  binary  protocol-encoded patch tree

Examples:
  vpatch diff before.json after.json
  vpatch diff --format=binary -o patch.bin before.bin after.bin
  vpatch diff s3://snapshots/home.json home.json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prev, next, err := a.loadPair(cmd, args)
			if err != nil {
				return err
			}
			tree, err := patch.Diff(prev, next)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return errors.New("E240").WithDetailf("create %s", output).Wrap(err)
				}
				defer f.Close()
				out = f
			}
			if err := writeTree(out, tree, format); err != nil {
				return err
			}
			if stats {
				printStats(cmd.ErrOrStderr(), tree)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, binary")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print patch counts to stderr")

	return cmd
}

// loadPair loads the one or two snapshot arguments of diff and apply.
func (a *app) loadPair(cmd *cobra.Command, args []string) (prev, next *vdom.VNode, err error) {
	ctx := cmd.Context()
	if len(args) == 2 {
		if prev, err = a.loadSnapshot(ctx, args[0]); err != nil {
			return nil, nil, err
		}
		args = args[1:]
	}
	if next, err = a.loadSnapshot(ctx, args[0]); err != nil {
		return nil, nil, err
	}
	return prev, next, nil
}

type treeSummary struct {
	Patches int            `json:"patches"`
	Counts  map[string]int `json:"counts"`
	Tree    string         `json:"tree"`
}

func writeTree(w io.Writer, tree *patch.Tree, format string) error {
	switch format {
	case "text":
		_, err := io.WriteString(w, tree.String())
		return err

	case "json":
		s := treeSummary{Patches: tree.Len(), Counts: make(map[string]int), Tree: tree.String()}
		for op, n := range tree.Count() {
			s.Counts[op.String()] = n
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)

	case "binary":
		data, err := protocol.EncodePatchTree(tree)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return errors.New("E240").WithDetailf("unknown format %q", format).
		WithSuggestion("Use --format=text, json or binary")
}

func printStats(w io.Writer, tree *patch.Tree) {
	counts := tree.Count()
	ops := make([]patch.Op, 0, len(counts))
	for op := range counts {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })

	fmt.Fprintf(w, "%d patches\n", tree.Len())
	for _, op := range ops {
		fmt.Fprintf(w, "  %-20s %d\n", op, counts[op])
	}
}
