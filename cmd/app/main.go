package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/adapter/api"
	"github.com/burenotti/go_bmi_backend/internal/adapter/broker"
	"github.com/burenotti/go_bmi_backend/internal/adapter/storage"
	"github.com/burenotti/go_bmi_backend/internal/app/messagebus"
	recordservice "github.com/burenotti/go_bmi_backend/internal/app/record"
	"github.com/burenotti/go_bmi_backend/internal/config"
	"github.com/burenotti/go_bmi_backend/internal/domain"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)
	logger := initLogger(cfg)

	db, err := storage.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		panic("failed to connect database: " + err.Error())
	}
	defer db.Close()

	ctx := context.Background()

	if err := storage.Migrate(ctx, db); err != nil {
		panic("failed to migrate database: " + err.Error())
	}

	bus := messagebus.New(logger)

	bus.Register(bmi.EventRecorded, func(event domain.Event) error {
		e, ok := event.(bmi.RecordedEvent)
		if !ok {
			return fmt.Errorf("unexpected event %T", event)
		}
		logger.Info("processed bmi recorded event", "entry_id", e.EntryID, "category", e.Record.Category)
		return nil
	})

	if cfg.Broker.URL != "" {
		publisher, err := broker.Dial(cfg.Broker.URL, cfg.Broker.Queue, logger)
		if err != nil {
			panic("failed to connect broker: " + err.Error())
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("broker connection was not closed gracefully", "error", err)
			}
		}()
		bus.Register(bmi.EventRecorded, publisher.Handle)
	}

	server, err := api.NewServer(
		api.Addr(cfg.Server.Host, cfg.Server.Port),
		api.Logger(logger),
		api.RecordService(recordservice.New(logger)),
		api.DBContext(db),
		api.MessageBus(bus),
	)
	if err != nil {
		panic("failed to create server: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error)

	go func() {
		defer close(errCh)
		logger.Info("server started", "host", cfg.Server.Host, "port", cfg.Server.Port, "driver", cfg.DB.Driver)
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server was not shutdown gracefully", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server closed with unexpected error", "error", err)
			}
		}
	}

	// handlers may still be publishing, drain them before the broker is closed
	bus.Close()
	logger.Info("server shutdown")
}

func initLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	switch cfg.App.Env {
	case config.Development:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: true,
			Level:     slog.LevelDebug,
		})
	case config.Production:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: false,
			Level:     slog.LevelInfo,
		})
	default:
		panic("invalid env")
	}

	return slog.New(handler)
}
