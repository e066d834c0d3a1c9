package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldbook/internal/persistence"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Load the store once, rewriting legacy keys under the current key",
		Long: `Opens the configured store and loads the records. Data found only under a
legacy key is normalized, saved under the current key and the legacy keys are
removed. Running it again is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			g, err := svc.Graph(ctx)
			if err != nil {
				return err
			}
			report := svc.LastLoad()
			out := cmd.OutOrStdout()
			if report.Failed {
				return fmt.Errorf("stored records under %q could not be read: %w", report.Key, report.Err)
			}
			switch {
			case report.Source == persistence.SourceEmpty:
				fmt.Fprintf(out, "No stored records found (driver %s).\n", svc.Driver())
			case report.Migrated:
				fmt.Fprintf(out, "Migrated %d customers from %q to %q.\n", len(g.Customers), report.Key, persistence.CanonicalKey)
			default:
				fmt.Fprintf(out, "Records are current under %q (%d customers).\n", report.Key, len(g.Customers))
			}
			return nil
		},
	}
}
