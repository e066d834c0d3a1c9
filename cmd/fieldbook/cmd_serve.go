package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"fieldbook/internal/tableserver"
)

func newServeTablesCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve-tables",
		Short: "Serve empty in-memory record tables over the REST table protocol",
		Long: `Starts a development backend for the remote records client. Tables live in
memory and are lost on exit. Point remote.base_url at the printed address to
use it. Request counts are exposed at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			if !a.verbose {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := tableserver.New(
				tableserver.WithLogger(a.logger),
				tableserver.WithAPIKey(a.cfg.Server.APIKey),
				tableserver.WithMetrics(a.registry),
			)
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}
