package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/fittrack/internal/config"
	"github.com/jonathan/fittrack/internal/db"
	"github.com/jonathan/fittrack/internal/server"
	"github.com/jonathan/fittrack/internal/server/ratelimit"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the fittrack HTTP API. Reads DATABASE_URL and JWT_SECRET (required),
PORT, FREE_TIER_ROUTINE_LIMIT, JWT_EXPIRATION_HOURS, BCRYPT_COST, PASSWORD_PEPPER and
RATE_LIMIT_* from the environment or a .env file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default $PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	serverCfg, err := config.NewServerConfig()
	if err != nil {
		return err
	}

	port := servePort
	if port == 0 {
		if port, err = strconv.Atoi(serverCfg.Port); err != nil {
			return fmt.Errorf("invalid PORT %q: %w", serverCfg.Port, err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, serverCfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Port:                 port,
		FreeTierRoutineLimit: serverCfg.FreeTierRoutineLimit,
		Auth:                 serverCfg.Auth,
		RateLimit:            ratelimit.LoadConfig(),
	}, database, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("fittrack API configured",
		zap.Int("port", port),
		zap.Int("free_tier_routine_limit", serverCfg.FreeTierRoutineLimit))
	return srv.Start(ctx)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	databaseURL, err := requireEnv("DATABASE_URL")
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}
	version, err := database.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database at schema version %d\n", version)
	return nil
}
