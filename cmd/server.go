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

	"github.com/ziadkadry99/trialrag/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API over the persisted indexes",
	Long:  `Starts a JSON HTTP API that lists the persisted indexes and answers questions or runs similarity searches against them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		defer logger.Sync()

		catalog, err := newCatalog(cfg, logger)
		if err != nil {
			return err
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = serverPort
		}

		srv := server.New(server.Config{
			Port:           port,
			AllowAll:       cfg.Server.AllowAllOrigins,
			RequestTimeout: cfg.Timeout() + 10*time.Second,
		}, catalog, logger)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("shutdown", zap.Error(err))
			}
		}()

		fmt.Fprintf(os.Stderr, "trialrag server v%s starting on port %d\n", Version, port)
		for _, info := range catalog.Indexes() {
			state := "not built"
			if info.Available {
				state = fmt.Sprintf("%d nodes", info.Nodes)
			}
			fmt.Fprintf(os.Stderr, "  %-28s %s (%s)\n", info.Name, info.Dir, state)
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "port to listen on (default: server.port)")
	rootCmd.AddCommand(serverCmd)
}
