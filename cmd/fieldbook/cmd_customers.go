package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCustomersCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "List customers with their site, contact and project counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			recs, closeFn, err := a.openRecords(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			customers, err := recs.ListCustomers(ctx)
			if err != nil {
				return fmt.Errorf("list customers: %w", err)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(customers)
			}
			if len(customers) == 0 {
				fmt.Fprintln(out, "No customers yet.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSITES\tCONTACTS\tPROJECTS\tID")
			for _, c := range customers {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", c.Name, len(c.Sites), len(c.Contacts), len(c.Projects), c.ID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the customers as JSON")
	return cmd
}
