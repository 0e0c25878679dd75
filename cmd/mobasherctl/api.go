package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AthbiHC/mobasher/internal/api"
	"github.com/AthbiHC/mobasher/internal/logging"
	"github.com/AthbiHC/mobasher/internal/supervisor"
	"github.com/AthbiHC/mobasher/internal/supervisor/services"
)

const apiComponent = "api"

func newAPICmd() *cobra.Command {
	a := &cobra.Command{
		Use:   "api",
		Short: "Manage the read API",
	}
	a.AddCommand(newAPIServeCmd())
	return a
}

func newAPIServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := bootstrap()
			if err != nil {
				return err
			}
			defer st.Close()

			handler := api.NewHandler(st, st, st, st, st)
			routerCfg := api.DefaultRouterConfig()
			if cfg.API.AuthMode == "bearer" {
				routerCfg.AuthMode = api.AuthModeBearer
				routerCfg.AuthSecret = []byte(cfg.API.BearerToken)
			}
			router := api.NewRouter(handler, routerCfg)

			server := &http.Server{
				Addr:    fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
				Handler: router,
			}

			tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
			if err != nil {
				return fmt.Errorf("create supervisor tree: %w", err)
			}
			tree.AddAPIService(services.NewHTTPServerService(apiComponent, server, 10*time.Second))

			if err := writePIDFile(pidFilePath(cfg, apiComponent)); err != nil {
				return err
			}
			defer os.Remove(pidFilePath(cfg, apiComponent))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			waitForSignalOrDone(ctx, cancel)

			logging.Info().Str("addr", server.Addr).Msg("read API listening")
			return tree.Serve(ctx)
		},
	}
}
