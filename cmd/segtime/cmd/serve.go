package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/psantana5/segtime/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline and its timing report over HTTP",
	Long: `Serve accepts entities over HTTP, runs them through the configured stages
and exposes the accumulated timings.

Endpoints:
  POST /entities/{path}     run the request body as entity {path}
  GET  /report              text report of every category
  GET  /report/{category}   one category as JSON (?format=yaml)
  GET  /summary             per-category overview
  GET  /metrics             Prometheus metrics
  GET  /health              liveness

Example:
  segtime serve --listen :9090 --match "TODO"
  curl --data-binary @src/main.js localhost:9090/entities/src/main.js`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindPipelineFlags(cmd, args); err != nil {
			return err
		}
		return viper.BindPFlag("listen", cmd.Flags().Lookup("listen"))
	},
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addPipelineFlags(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "address to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger("serve")

	sess, err := newSession(loadPipelineConfig(), logger)
	if err != nil {
		return err
	}
	handler, err := server.NewHandler(sess.registry, sess.pipeline, logger)
	if err != nil {
		return err
	}

	router := mux.NewRouter()
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              viper.GetString("listen"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
