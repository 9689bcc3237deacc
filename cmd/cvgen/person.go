package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCreateCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create <person>",
		Short: "Scaffold a new person directory",
		Long: `Create {data}/<person> with cv_params.toml and experiences_<lang>.typ
for every supported language, filled from person_template.toml and
experiences_template.typ in the templates directory. Built-in starters are
used when the templates directory does not provide them.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := a.persons().Create(args[0], name)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.env.Stdout, "Created %s\n", created.Dir)
			for _, f := range created.Files {
				fmt.Fprintf(a.env.Stdout, "  %s\n", f)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name written to cv_params.toml (default: the person id)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List persons under the data directory",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			persons, err := a.persons().List()
			if err != nil {
				return err
			}
			for _, p := range persons {
				fmt.Fprintln(a.env.Stdout, p)
			}
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <person>",
		Short: "Delete a person directory",
		Long: `Remove {data}/<person> and everything in it. Rendered PDFs in the
output directory are kept. Requires --yes.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("%w: refusing to delete %s without --yes", ErrUsage, args[0])
			}
			if err := a.persons().Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.env.Stdout, "Deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}

func newFilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "files <person>",
		Short: "List a person's editable .toml and .typ files",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := a.persons().Files(args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(a.env.Stdout, 0, 0, 2, ' ', 0)
			for _, f := range files {
				fmt.Fprintf(w, "%s\t%d\t%s\n", f.Path, f.Size, f.Modified.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}
