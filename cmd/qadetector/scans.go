package main

import (
	"github.com/spf13/cobra"
)

func newScansCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scans",
		Short: "Browse stored scans",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's scans, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			scans, err := a.History.ListScans(ctx, args[0], limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), scans)
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of scans (0: server default)")

	show := &cobra.Command{
		Use:   "show <scan-id>",
		Short: "Print one scan with its issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			sc, err := a.History.GetScan(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sc)
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}
