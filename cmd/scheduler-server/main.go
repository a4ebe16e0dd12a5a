package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pulsehub/scheduler/internal/capacity"
	capacityrepo "github.com/pulsehub/scheduler/internal/capacity/repositoryimpl"
	"github.com/pulsehub/scheduler/internal/config"
	"github.com/pulsehub/scheduler/internal/holiday"
	holidayrepo "github.com/pulsehub/scheduler/internal/holiday/repositoryimpl"
	"github.com/pulsehub/scheduler/internal/server"
	"github.com/pulsehub/scheduler/internal/sprint"
	sprintrepo "github.com/pulsehub/scheduler/internal/sprint/repositoryimpl"
	"github.com/pulsehub/scheduler/internal/taskcatalog"
	"github.com/pulsehub/scheduler/internal/taskcatalog/yamlcatalog"
	"github.com/pulsehub/scheduler/pkg/clog"
	"github.com/pulsehub/scheduler/pkg/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scheduler-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	env, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, catalog, closeCatalog, err := buildStorage(ctx, env)
	if err != nil {
		return err
	}
	defer closeCatalog()

	sprints := sprint.NewServer(sprint.NewStore(sprintrepo.NewYAMLRepository(store), catalog), env.VelocityWeeks)
	capacities := capacity.NewServer(capacity.NewLedger(capacityrepo.NewYAMLRepository(store)))
	holidays := holiday.NewServer(holiday.NewCalendar(holidayrepo.NewYAMLRepository(store)))

	srv := server.New(env, sprints, capacities, holidays)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx)
	}()
	slog.Info("scheduler listening", "addr", env.Addr(), "storage", env.StorageType)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	slog.Info("scheduler stopped")
	return nil
}

func setupLogger(env *config.Env) {
	var handler slog.Handler
	if env.Local() {
		handler = clog.NewHTTPTextHandler(os.Stdout, clog.WithLevel(env.SlogLevel()))
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: env.SlogLevel()})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))
}

// buildStorage selects the storage backend and the task catalog built
// on top of it. With local storage the catalog watches the tasks
// directory so upstream edits invalidate the read cache.
func buildStorage(ctx context.Context, env *config.Env) (storage.Storage, taskcatalog.Catalog, func(), error) {
	noop := func() {}
	switch env.StorageType {
	case "s3":
		store, err := storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
		if err != nil {
			return nil, nil, noop, err
		}
		return store, yamlcatalog.New(store), noop, nil
	default:
		store, err := storage.NewLocalStorage(env.BaseDir)
		if err != nil {
			return nil, nil, noop, err
		}
		cached, err := taskcatalog.NewCached(yamlcatalog.New(store), filepath.Join(store.BasePath(), yamlcatalog.Prefix))
		if err != nil {
			return nil, nil, noop, err
		}
		return store, cached, func() { _ = cached.Close() }, nil
	}
}
