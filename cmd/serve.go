package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const readHeaderTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the exploration HTTP API and run the async worker pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			cfg := appInstance.Config()
			if port == 0 {
				port = cfg.Server.Port
			}
			srv := &http.Server{
				Addr:              ":" + strconv.Itoa(port),
				Handler:           appInstance.Handler(),
				ReadHeaderTimeout: readHeaderTimeout,
				WriteTimeout:      cfg.RequestTimeout() + readHeaderTimeout,
			}
			return serve(cmd.Context(), srv, appInstance)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}

// serve runs the workers and the listener until ctx ends, then drains both.
func serve(ctx context.Context, srv *http.Server, appInstance App) error {
	logger := appInstance.Logger()
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		appInstance.RunWorkers(workerCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown incomplete", zap.Error(err))
	}
	stopWorkers()
	wg.Wait()
	logger.Info("http server stopped")
	return serveErr
}
