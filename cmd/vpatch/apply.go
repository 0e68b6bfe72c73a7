package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/host/htmlhost"
	"github.com/vango-dev/vpatch/pkg/patch"
)

func applyCmd(a *app) *cobra.Command {
	var (
		base  string
		stats bool
	)

	cmd := &cobra.Command{
		Use:   "apply [PREV] NEXT",
		Short: "Patch a rendered snapshot and print the resulting HTML",
		Long: `Render PREV into a document, apply the patch tree from PREV to NEXT,
and print the patched document.

With --base the document is parsed from an HTML file instead of
rendered from PREV. The file must match PREV for the patches to land.

Examples:
  vpatch apply before.json after.json
  vpatch apply --base page.html before.json after.json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prev, next, err := a.loadPair(cmd, args)
			if err != nil {
				return err
			}

			var doc *htmlhost.Document
			if base != "" {
				f, err := os.Open(base)
				if err != nil {
					return errors.New("E240").WithDetailf("open %s", base).Wrap(err)
				}
				defer f.Close()
				if doc, err = htmlhost.Parse(f); err != nil {
					return err
				}
			} else {
				doc = htmlhost.New()
				if prev != nil {
					if err := doc.Mount(prev); err != nil {
						return err
					}
				}
			}

			tree, err := patch.Diff(prev, next)
			if err != nil {
				return err
			}
			hooks := make(map[patch.HookKind]int)
			err = tree.Apply(doc, doc.Root(),
				patch.WithLogger(a.logger),
				patch.WithHookObserver(func(k patch.HookKind) { hooks[k]++ }),
			)
			if err != nil {
				return err
			}

			if err := doc.Render(cmd.OutOrStdout()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			if stats {
				printStats(cmd.ErrOrStderr(), tree)
				printHooks(cmd.ErrOrStderr(), hooks)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "HTML file holding the rendered PREV")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print patch and hook counts to stderr")

	return cmd
}

func printHooks(w io.Writer, hooks map[patch.HookKind]int) {
	for _, k := range []patch.HookKind{patch.HookWillConnect, patch.HookDidConnect, patch.HookWillDisconnect, patch.HookDidUpdate} {
		if n := hooks[k]; n > 0 {
			fmt.Fprintf(w, "  %-20s %d\n", k, n)
		}
	}
}
