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
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vnkhanh/prince-music-backend/config"
	"github.com/vnkhanh/prince-music-backend/controllers"
	"github.com/vnkhanh/prince-music-backend/pkg/logger"
	"github.com/vnkhanh/prince-music-backend/pkg/metrics"
	"github.com/vnkhanh/prince-music-backend/routes"
	"github.com/vnkhanh/prince-music-backend/services"
	"github.com/vnkhanh/prince-music-backend/store"
	"github.com/vnkhanh/prince-music-backend/utils"
)

const shutdownTimeout = 15 * time.Second

var (
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of the API server",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("prince-music-backend version %s\n", controllers.Version)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	cleanupCmd = &cobra.Command{
		Use:   "cleanup-expired",
		Short: "Deactivate expired enrollments once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *application) error {
				removed, err := app.svc.RunCleanup(cmd.Context())
				if err != nil {
					return err
				}
				app.svc.Wait()
				fmt.Printf("removedCount: %d\n", removed)
				return nil
			})
		},
	}

	seedAdsCmd = &cobra.Command{
		Use:   "seed-ads",
		Short: "Insert the sample advertisements that are missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *application) error {
				created, skipped, err := services.SeedAdvertisements(cmd.Context(), app.svc.DB)
				if err != nil {
					return err
				}
				fmt.Printf("Advertisement seeding complete. Created: %d, Skipped (existing): %d\n", created, skipped)
				return nil
			})
		},
	}

	rootCmd = &cobra.Command{
		Use:   "prince-music",
		Short: "Prince Music API server",
		Long:  `Prince Music API server: accounts, musicians, courses, tutoring and bookings`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, cleanupCmd, seedAdsCmd, versionCmd)
}

type application struct {
	cfg    *config.Config
	logger *zap.Logger
	store  store.Store
	svc    *services.Container
}

// withApp loads configuration, connects every dependency and runs fn.
func withApp(fn func(app *application) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.Error("Failed to initialize database", zap.Error(err))
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	st, err := store.NewStore(log, &cfg.Store)
	if err != nil {
		log.Error("Failed to initialize store", zap.Error(err))
		return err
	}
	defer st.Close()

	svc, err := services.NewContainer(cfg, db, log, st)
	if err != nil {
		log.Error("Failed to initialize services", zap.Error(err))
		return err
	}
	return fn(&application{cfg: cfg, logger: log, store: st, svc: svc})
}

func serve() error {
	return withApp(func(app *application) error {
		if app.cfg.IsProduction() {
			gin.SetMode(gin.ReleaseMode)
		}
		utils.RegisterValidators()

		m := metrics.New(func() float64 {
			return float64(app.svc.Hub.GetStats().Connections)
		})
		r := routes.SetupRouter(gin.New(), app.svc, m)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		app.svc.StartCleanupJob(ctx, app.cfg.Cleanup.Interval)

		srv := &http.Server{
			Addr:              ":" + app.cfg.Port,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			app.logger.Info("Server starting",
				zap.String("port", app.cfg.Port),
				zap.String("env", app.cfg.Env),
				zap.String("version", controllers.Version))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err, ok := <-errCh:
			if ok {
				return err
			}
		case <-ctx.Done():
		}

		app.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("Server shutdown failed", zap.Error(err))
		}
		app.svc.Wait()
		return nil
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
