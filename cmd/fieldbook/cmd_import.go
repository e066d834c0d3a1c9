package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the stored records with an export file",
		Long: `Reads a record export (or any older stored layout, including a bare list of
customers), normalizes it and replaces everything in the local store. Use "-"
to read standard input. Unreadable input is rejected and nothing changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			ctx := cmd.Context()
			svc, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			g, err := svc.Import(ctx, raw)
			if err != nil {
				return err
			}
			projects := 0
			for _, c := range g.Customers {
				projects += len(c.Projects)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d customers, %d projects and %d users.\n", len(g.Customers), projects, len(g.Users))
			return nil
		},
	}
}
