package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voyago/voyago/internal/gateway"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the voyago gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(log)
			if err != nil {
				return err
			}
			defer app.close()

			if port != 0 {
				app.cfg.Gateway.Port = port
			}
			if bind != "" {
				app.cfg.Gateway.Bind = bind
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := gateway.New(app.cfg, app.service, app.toolCalls, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind host")

	return cmd
}
