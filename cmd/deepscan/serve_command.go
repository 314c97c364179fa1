package main

import (
	"strings"

	"github.com/spf13/cobra"

	"deepscan/internal/httpapi"
	"deepscan/internal/logging"
	"deepscan/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(true)
			if err != nil {
				return err
			}

			for _, failed := range preflight.Failed(preflight.RunAll(cmd.Context(), cfg)) {
				logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
					logging.String("check", failed.Name),
					logging.String("detail", failed.Detail),
					logging.String(logging.FieldImpact, "api starts anyway; affected analyses may fail"),
				)
			}

			engine, err := ctx.detectionEngine()
			if err != nil {
				return err
			}
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}

			server, err := httpapi.New(httpapi.Options{
				Config:  cfg,
				Engine:  engine,
				History: store,
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			addr := strings.TrimSpace(bind)
			if addr == "" {
				addr = cfg.Paths.APIBind
			}
			return server.Serve(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to paths.api_bind)")
	return cmd
}
