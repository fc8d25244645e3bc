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

	"pet-registry/internal/adapters/storage"
	"pet-registry/internal/adapters/storage/postgres"
	"pet-registry/internal/domain/pets"
	"pet-registry/internal/middleware"
	"pet-registry/internal/platform/config"
	"pet-registry/internal/platform/logger"
	"pet-registry/internal/router"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// @title       Pet Registry API
// @version     1.0
// @description CRUD de mascotas sobre archivo JSON, base documental o ambos.
// @BasePath    /api

const shutdownTimeout = 10 * time.Second

var envFile string

var rootCmd = &cobra.Command{
	Use:           "pet-registry",
	Short:         "Pet registry HTTP API",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "optional dotenv file")
	config.RegisterFlags(rootCmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.New(), cmd.Flags(), envFile)
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	topology, err := storage.ParseTopology(cfg.RepoType)
	if err != nil {
		log.Error("invalid repository type", map[string]any{"repo_type": cfg.RepoType})
		return err
	}

	var conn *postgres.Conn
	if topology.UsesDatabase() {
		conn = postgres.NewConn(postgres.ConnOptions{
			DSN:            cfg.DBDSN,
			Collection:     cfg.DBCollection,
			ConnectTimeout: cfg.DBConnectTimeout,
			Retries:        cfg.DBConnectRetries,
			Logger:         log,
		})
		defer conn.Close()
	}

	repo, err := storage.NewRepository(topology, storage.Options{
		Fs:       afero.NewOsFs(),
		DataPath: cfg.DataPath,
		Conn:     conn,
		DSN:      cfg.DBDSN,
		Logger:   log,
	})
	if err != nil {
		log.Error("failed to build repository", map[string]any{"topology": string(topology), "error": err})
		return err
	}
	repoCtx := pets.NewRepositoryContext(repo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// networked-only sin base no tiene sentido: aborta.
	// composite conecta en background y sigue con el archivo mientras tanto.
	var gate middleware.ConnectionState
	switch {
	case topology.RequiresDatabase():
		gate = conn
		if err := conn.Require(ctx); err != nil {
			log.Error("database unreachable at startup", map[string]any{"error": err})
			return err
		}
	case conn != nil:
		go func() { _, _ = conn.DB(ctx) }()
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.NewRouter(router.Options{Repo: repoCtx, Logger: log, RequireConnection: gate}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":     cfg.Addr(),
			"topology": string(topology),
			"source":   repoCtx.SourceName(),
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", map[string]any{"error": err})
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", map[string]any{"error": err})
		return err
	}
	return nil
}
