package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edcb/wellbeing/internal/check"
	"github.com/edcb/wellbeing/internal/config"
	"github.com/edcb/wellbeing/internal/logging"
	"github.com/edcb/wellbeing/internal/predict"
	"github.com/edcb/wellbeing/internal/server"
)

var version = "dev"

var (
	// Global flags
	configPath string
	verbose    bool

	// serve flags
	port        int
	backendURL  string
	databaseDSN string

	logger *zap.Logger
)

var errCheckFailed = errors.New("one or more endpoints failed")

var rootCmd = &cobra.Command{
	Use:           "wellbeing",
	Short:         "Survey intake and results service for the social media wellbeing study",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runServe(cfg)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Smoke-test the prediction backend endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		client, err := predict.New(cfg.Backend.URL, predict.WithLogger(logger.Named("predict")))
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		sum := check.Run(ctx, client, check.DefaultProbes, cmd.OutOrStdout())
		if sum.Failed > 0 {
			return errCheckFailed
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and exit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "wellbeing v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend-url", "", "Prediction backend base URL (overrides config)")

	serveCmd.Flags().IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	serveCmd.Flags().StringVar(&databaseDSN, "database", "", "SQLite path or postgres:// DSN (overrides config)")

	rootCmd.AddCommand(serveCmd, checkCmd, versionCmd)
}

// loadConfig resolves the configuration (flags win) and builds the logger
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	cfg.Version = version

	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	if cmd.Flags().Changed("backend-url") {
		cfg.Backend.URL = backendURL
	}
	if cmd.Flags().Changed("database") {
		cfg.Database.DSN = databaseDSN
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	logger, err = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runServe(cfg config.Config) error {
	// Find an available port (try up to 10 ports starting from the requested one)
	availablePort, err := findAvailablePort(cfg.Port, 10)
	if err != nil {
		return fmt.Errorf("failed to find available port: %w", err)
	}
	if availablePort != cfg.Port {
		logger.Warn("port in use, using another", zap.Int("requested", cfg.Port), zap.Int("port", availablePort))
		cfg.Port = availablePort
	}

	logger.Info("wellbeing starting",
		zap.String("version", version),
		zap.Int("port", cfg.Port),
		zap.String("backend", cfg.Backend.URL),
		zap.Duration("call_timeout", cfg.Backend.Timeout))

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	waitForServer(fmt.Sprintf("localhost:%d", cfg.Port), 10*time.Second)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		if err := srv.Stop(); err != nil {
			logger.Error("error during shutdown", zap.Error(err))
			return err
		}
		return nil
	}
}

// waitForServer polls until the server is accepting connections
func waitForServer(addr string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	logger.Warn("server may not be ready", zap.String("addr", addr))
}

// findAvailablePort finds an available port, starting from the given port.
// If the port is in use, it tries subsequent ports up to maxAttempts times.
func findAvailablePort(startPort int, maxAttempts int) (int, error) {
	for i := 0; i < maxAttempts; i++ {
		port := startPort + i
		addr := fmt.Sprintf(":%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found after %d attempts starting from %d", maxAttempts, startPort)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("command failed", zap.Error(err))
			_ = logger.Sync()
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
