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

	"github.com/team-avesta/Eventure-sub001/internal/api"
	"github.com/team-avesta/Eventure-sub001/internal/blob"
	"github.com/team-avesta/Eventure-sub001/internal/config"
	"github.com/team-avesta/Eventure-sub001/internal/db"
	"github.com/team-avesta/Eventure-sub001/internal/logger"
	"github.com/team-avesta/Eventure-sub001/internal/service"
	"github.com/team-avesta/Eventure-sub001/internal/store"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "eventure",
	Short:         "Eventure - screenshot annotation service for analytics event tracking",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Path to an optional .env file")
	rootCmd.AddCommand(serveCmd, renderCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds everything a command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	store  *store.Store
	upload *service.UploadService
}

func newApp() (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Path:   cfg.Log.Path,
		Out:    os.Stderr,
	})
	if err != nil {
		return nil, err
	}

	// Storage backend
	var blobs blob.Storage
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		blobs = blob.NewMemory()
		log.Warn().Msg("using in-memory storage, data is lost on exit")
	default:
		if err := db.Init(cfg.Storage.DBPath); err != nil {
			log.Close()
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		blobs = db.NewObjectStore(nil)
		log.Info().Str("path", cfg.Storage.DBPath).Msg("database initialized")
	}

	st := store.New(blobs,
		store.WithKey(cfg.Storage.DocumentKey),
		store.WithLogger(log.With().Str("component", "store").Logger()),
	)
	up := service.NewUploadService(st, cfg.Upload.MaxBytes, log.With().Str("component", "upload").Logger())
	return &app{cfg: cfg, log: log, store: st, upload: up}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.log.Close()

	gin.SetMode(a.cfg.Server.Mode)
	api.SetServices(a.store, a.upload, a.log.With().Str("component", "api").Logger())
	r := api.SetupRouter(api.RouterConfig{
		CORSOrigins: a.cfg.Server.CORSOrigins,
		Logger:      a.log.Logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		a.log.Info().Msg("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.log.Info().
		Str("addr", srv.Addr).
		Str("backend", a.cfg.Storage.Backend).
		Str("document", a.cfg.Storage.DocumentKey).
		Msg("Eventure API started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
