package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/qcreview/internal/api"
	"github.com/sprite-ai/qcreview/internal/backend"
	"github.com/sprite-ai/qcreview/internal/config"
	"github.com/sprite-ai/qcreview/internal/events"
	"github.com/sprite-ai/qcreview/internal/model"
	"github.com/sprite-ai/qcreview/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review API server",
	Long: `Start an HTTP server exposing the review backend.

Endpoints:
  GET  /health                 Health check
  GET  /api/vehicles           Quality checker vehicle list
  GET  /api/vehicles/{id}      Vehicle detail with content items
  POST /api/quality-checks     Save a content item verdict
  POST /api/assignments        Assign the quality check reviewer
  POST /api/image-types        Change a content item's type
  GET  /api/ws                 WebSocket for interactive review sessions
  GET  /metrics                Prometheus metrics

Vehicles live in memory (seeded from --seed, or demo data) unless a
database URL is configured.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "address to listen on")
	serveCmd.Flags().IntP("port", "p", 0, "port to listen on")
	serveCmd.Flags().String("database-url", "", "PostgreSQL connection string")
	serveCmd.Flags().String("nats-url", "", "NATS server URL for change events")
	serveCmd.Flags().String("seed", "", "YAML file of vehicles to load at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	addr, _ := flags.GetString("addr")
	port, _ := flags.GetInt("port")
	dbURL, _ := flags.GetString("database-url")
	natsURL, _ := flags.GetString("nats-url")
	seed, _ := flags.GetString("seed")
	cfg.Merge(&config.Config{Serve: config.ServeConfig{
		Addr: addr, Port: port, DatabaseURL: dbURL, NATSURL: natsURL, SeedFile: seed,
	}})

	logger, closeLog, err := newLogger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	b, closeStore, err := openStore(ctx, cfg.Serve, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	pub, err := openPublisher(cfg.Serve, logger)
	if err != nil {
		return err
	}
	defer pub.Close()

	listen := fmt.Sprintf("%s:%d", cfg.Serve.Addr, cfg.Serve.Port)
	srv := api.New(listen, b, api.WithPublisher(pub), api.WithLogger(logger))

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore returns the configured backend and a function releasing it.
func openStore(ctx context.Context, sc config.ServeConfig, logger *slog.Logger) (backend.Backend, func(), error) {
	var seeded []model.VehicleDetail
	if sc.SeedFile != "" {
		details, err := store.LoadSeedFile(sc.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		seeded = details
	}

	if sc.DatabaseURL == "" {
		if seeded == nil {
			seeded = store.Demo()
		}
		st := store.NewMemoryStore()
		if err := store.LoadInto(ctx, st, seeded); err != nil {
			return nil, nil, err
		}
		logger.Info("using in-memory store", "vehicles", len(seeded))
		for _, d := range seeded {
			logger.Debug("seeded vehicle", "id", d.Vehicle.ID, "vin", d.Vehicle.VIN, "items", len(d.ContentItems))
		}
		return st, func() {}, nil
	}

	pool, err := store.Connect(ctx, sc.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := store.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	st := store.NewPostgresStore(pool)
	if err := store.LoadInto(ctx, st, seeded); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("using postgres store", "seeded", len(seeded))
	return st, pool.Close, nil
}

func openPublisher(sc config.ServeConfig, logger *slog.Logger) (events.Publisher, error) {
	if sc.NATSURL == "" {
		return events.Nop{}, nil
	}
	pub, err := events.ConnectNATS(sc.NATSURL)
	if err != nil {
		return nil, err
	}
	logger.Info("publishing change events", "nats", sc.NATSURL)
	return pub, nil
}
