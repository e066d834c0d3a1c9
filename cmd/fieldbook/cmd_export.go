package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the normalized record graph as JSON",
		Long: `Writes every customer, user and the business settings as indented JSON,
to file when given and to standard output otherwise. The output can be read
back with "fieldbook import".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.openService(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			raw, err := svc.Export(ctx)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if len(args) == 0 || args[0] == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return err
			}
			if err := os.WriteFile(args[0], append(raw, '\n'), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", args[0], err)
			}
			a.logger.Info("exported records", zap.String("file", args[0]), zap.Int("bytes", len(raw)))
			return nil
		},
	}
}
