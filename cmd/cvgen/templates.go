package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListTemplatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list-templates",
		Short: "List template variants",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(a.env.Stdout, 0, 4, 2, ' ', 0)
			for _, v := range a.generator().Templates(a.cfg.Paths.Templates) {
				desc := v.Description
				if !v.Available {
					desc += " (missing)"
				}
				fmt.Fprintf(tw, "%s\t%s\n", v.Name, desc)
			}
			return tw.Flush()
		},
	}
}
