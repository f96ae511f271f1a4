package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kiosk_pos_backend/internal/config"
	"kiosk_pos_backend/internal/database"
	"kiosk_pos_backend/internal/metrics"
	"kiosk_pos_backend/internal/repositories"
	"kiosk_pos_backend/internal/router"
	"kiosk_pos_backend/internal/services"
	"kiosk_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const (
	Version = "0.1.0"
	appName = "kiosk-pos"

	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Self-service kiosk point of sale backend",
		Long: `Kiosk POS serves the customer touchscreen (cart, undo, checkout)
and the back-office admin API (catalog, stock, orders, insights).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer db.Close()
			utils.LogInfo("Schema applied", map[string]interface{}{"driver": cfg.Database.Driver})
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Load the sample catalog into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := database.Seed(cmd.Context(), db)
			if err != nil {
				return err
			}
			utils.LogInfo("Seed finished", map[string]interface{}{"items_inserted": n})
			return nil
		},
	})

	cmd.AddCommand(createAdminCmd(&configPath))

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func createAdminCmd(configPath *string) *cobra.Command {
	var username, password, role string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a back-office operator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			cfg, db, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			audit := services.NewAuditService(repositories.NewAuditRepository(db))
			auth := services.NewAuthService(repositories.NewAuthRepository(db), audit, db, cfg.Auth)
			user, err := auth.CreateUser(cmd.Context(), services.CreateUserRequest{Username: username, Password: password, Role: role})
			if err != nil {
				return err
			}
			utils.LogInfo("Operator created", map[string]interface{}{"user_id": user.ID, "username": user.Username, "role": user.Role})
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "admin", "Operator username")
	cmd.Flags().StringVar(&password, "password", "", "Operator password (or ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&role, "role", "admin", "Operator role (admin, super_admin)")
	return cmd
}

// bootstrap loads config, initializes logging, opens the store and applies the schema.
func bootstrap(configPath string) (config.Config, *sql.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	utils.InitLogger(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return cfg, nil, err
	}
	if err := database.ApplySchema(db, cfg.Database.Driver); err != nil {
		db.Close()
		return cfg, nil, err
	}
	return cfg, db, nil
}

func serve(configPath string) error {
	cfg, db, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Auth.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return err
		}
		cfg.Auth.JWTSecret = secret
		utils.LogWarn("JWT_SECRET not set, using a random secret; admin tokens will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := services.NewSessionStore(cfg.Kiosk.IdleTimeout, cfg.Kiosk.UndoLimit)
	go sessions.RunJanitor(ctx, sweepInterval)

	m := metrics.New(func() float64 { return float64(sessions.Len()) })
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.NewEngine(cfg.Server, m)
	if err := router.Setup(engine, db, cfg, sessions, m); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Server.Port, "driver": cfg.Database.Driver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			utils.LogError(err, "Failed to start server")
			return err
		}
	case <-ctx.Done():
	}

	utils.LogInfo("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
