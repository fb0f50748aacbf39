package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/formgate/formgate/bootstrap"
)

var hotReload bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway server",
	Long: `Start the FormGate server.

The server will:
  - Load configuration from formgate.yaml (or --config)
  - Build and check the endpoint table
  - Validate every request against its endpoint's format descriptor
  - Record completed requests to the access log

Environment variables override file configuration:
  FORMGATE_SERVER_PORT      - Server port (default: 8080)
  FORMGATE_AUTH_ENABLED     - Enable token validation
  FORMGATE_AUTH_SECRET      - Token signing secret
  FORMGATE_DATABASE_DSN     - Access-log database path (default: formgate.db)
  FORMGATE_LOG_LEVEL        - Log level: debug, info, warn, error`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New(cfgFile, hotReload, builtinHandlers)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- app.Run() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		app.Shutdown()
		return err
	case sig := <-sigCh:
		app.Logger.Info().Str("signal", sig.String()).Msg("signal received")
		return app.Shutdown()
	}
}
