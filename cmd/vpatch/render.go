package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vpatch/pkg/render"
)

func renderCmd(a *app) *cobra.Command {
	var (
		pretty bool
		page   bool
		title  string
	)

	cmd := &cobra.Command{
		Use:   "render SNAPSHOT",
		Short: "Render a snapshot to HTML",
		Long: `Render a snapshot to HTML.

Examples:
  vpatch render home.json
  vpatch render --pretty --page --title=Home s3://snapshots/home.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.loadSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			r := render.NewRenderer(render.RendererConfig{Pretty: pretty})
			if page {
				return r.RenderPage(cmd.OutOrStdout(), render.PageData{Body: v, Title: title})
			}
			html, err := r.RenderToString(v)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), html)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Indent the output")
	cmd.Flags().BoolVar(&page, "page", false, "Wrap the output in a full HTML document")
	cmd.Flags().StringVar(&title, "title", "", "Page title (with --page)")

	return cmd
}
