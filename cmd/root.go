// Package cmd defines and implements the CLI commands for the webapi-explorer executable.
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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/webapi-explorer/internal/app"
	"github.com/JakeFAU/webapi-explorer/internal/config"
	"github.com/JakeFAU/webapi-explorer/internal/explorer"
	"github.com/JakeFAU/webapi-explorer/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands use, so tests can
// inject their own.
type App interface {
	Close(ctx context.Context) error
	Logger() *zap.Logger
	Config() config.Config
	Explorer() *explorer.Explorer
	Handler() http.Handler
	RunWorkers(ctx context.Context)
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(cfgPath string) (App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "webapi-explorer",
		Short: "Explore a web platform API across docs, issue trackers, and browser engines.",
		Long: `webapi-explorer takes a free-text query such as "websocket", resolves it to a
web platform API, and walks an eight-step exploration: documentation, browser
support, design explainer, open issues, engine bugs, implementation status,
and a short outlook. Every step degrades from structured APIs to page
scraping to synthesized content, so an exploration always completes.`,
		SilenceUsage: true,

		// Build the application once config flags are parsed.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), shutdownTimeout)
			defer cancel()
			closeErr := appInstance.Close(ctx)
			// Sync fails on stderr/stdout ttys; nothing useful can be done with it.
			_ = appInstance.Logger().Sync()
			return closeErr
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file (env: EXPLORER_*)")
	cmd.AddCommand(newExploreCmd(), newServeCmd())
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
