package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/shagomeals/config"
	"github.com/yeremiapane/shagomeals/database"
	"github.com/yeremiapane/shagomeals/kds"
	"github.com/yeremiapane/shagomeals/router"
	"github.com/yeremiapane/shagomeals/utils"
)

const Version = "0.1.0"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "shagomeals",
		Short: "Multi-tenant restaurant ordering API",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(envFile); err != nil {
				utils.InfoLogger.Printf("Warning: %s not loaded: %v", envFile, err)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Env file to load before reading the environment")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE:  func(cmd *cobra.Command, args []string) error { return serve() },
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				_, db, err := bootstrap()
				if err != nil {
					return err
				}
				return database.Migrate(db)
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert the demo tenant, menu and accounts",
			RunE: func(cmd *cobra.Command, args []string) error {
				_, db, err := bootstrap()
				if err != nil {
					return err
				}
				if err := database.Migrate(db); err != nil {
					return err
				}
				demo, err := database.SeedDemo(db)
				if err != nil {
					return err
				}
				utils.InfoLogger.WithFields(logrus.Fields{
					"tenant": demo.Tenant.Slug,
					"branch": demo.Branch.ID,
				}).Info("demo data seeded")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("shagomeals version %s\n", Version)
			},
		},
	)
	return cmd
}

func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogJSON)
	utils.SetJWTSecret(cfg.JWTSecret)

	logLevel := logger.Warn
	if cfg.GinMode == gin.DebugMode {
		logLevel = logger.Info
	}
	db, err := config.InitDB(cfg.DB, logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, db, nil
}

func serve() error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	if err := database.Migrate(db); err != nil {
		return err
	}

	fees := config.NewFeeBook(cfg.Fees)
	if cfg.FeesFile != "" {
		if err := fees.LoadFeeFile(cfg.FeesFile); err != nil {
			return err
		}
	}

	hub := kds.NewHub()
	r := router.SetupRouter(db, cfg, fees, hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go pruneBlacklist(ctx, time.Minute)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Errorf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func pruneBlacklist(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := utils.PruneBlacklist(now); n > 0 {
				utils.InfoLogger.WithFields(logrus.Fields{"pruned": n}).Debug("token blacklist pruned")
			}
		}
	}
}
