package main

import (
	"github.com/spf13/cobra"

	"jpxcli/internal/app"
	"jpxcli/pkg/contracts"
)

func (c *cli) serveCmd() *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the parse and aggregate operations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				c.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				c.cfg.Server.Port = port
			}

			application, err := app.NewApplication(c.cfg, c.logger, contracts.Version)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default server.port)")
	return cmd
}
