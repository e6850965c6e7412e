// Command api serves the bike rental HTTP API: accounts and OTP, stations,
// rentals, history queries and the live trip stream.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thomas-Hoang-04/bike-rental-app/internal/config"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/db"
	"github.com/Thomas-Hoang-04/bike-rental-app/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const drainTimeout = 5 * time.Second

var (
	depsProvider = defaultDeps
	startRunner  = startAPI
)

func main() {
	if err := startRunner(depsProvider()); err != nil {
		log.Fatalf("api: %v", err)
	}
}

type startupDeps struct {
	loadConfig      func() config.Config
	migrate         func(postgresURL string) error
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	connectRedis    func(config.Config) *redis.Client
	notify          func(chan<- os.Signal, ...os.Signal)
	serve           func(context.Context, config.Config, backends, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() startupDeps {
	return startupDeps{
		loadConfig:      config.Load,
		migrate:         db.Migrate,
		connectPostgres: db.ConnectPostgres,
		connectRedis:    db.ConnectRedis,
		notify:          signal.Notify,
		serve:           serve,
	}
}

// startAPI brings the schema up to date, connects the stores and serves until
// a termination signal. Any step that leaves the API unable to rent bikes
// aborts startup.
func startAPI(deps startupDeps) error {
	cfg := deps.loadConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.MigrateOnStart {
		if err := deps.migrate(cfg.PostgresURL); err != nil {
			return fmt.Errorf("migrate on start: %w", err)
		}
	}

	pool, err := deps.connectPostgres(cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}

	rdb := deps.connectRedis(cfg)
	switch {
	case rdb != nil:
	case cfg.RedisAddr != "":
		log.Printf("redis %s unreachable: sign-up answers 503 until restart", cfg.RedisAddr)
	default:
		log.Printf("redis not configured: otp disabled, live streams stay on this instance")
	}

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	return deps.serve(context.Background(), cfg, newBackends(pool, rdb), signals, nil)
}

// backends are the stores the API runs on. pg is nil when postgres is absent.
type backends struct {
	pg      db.Querier
	rdb     *redis.Client
	release func()
}

func newBackends(pool *pgxpool.Pool, rdb *redis.Client) backends {
	b := backends{rdb: rdb}
	if pool != nil {
		b.pg = pool
	}
	b.release = func() {
		if pool != nil {
			pool.Close()
		}
		if rdb != nil {
			_ = rdb.Close()
		}
	}
	return b
}

func (b backends) close() {
	if b.release != nil {
		b.release()
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// serve runs the API until a signal arrives, ctx ends or the listener fails.
// In-flight requests get drainTimeout to finish before the stores close.
func serve(ctx context.Context, cfg config.Config, b backends, signals <-chan os.Signal, listen ListenFunc) error {
	defer b.close()
	srv := server.NewServer(cfg, b.pg, b.rdb)
	defer srv.Close()

	if b.pg != nil {
		if n, err := srv.Stations.Warm(ctx); err != nil {
			log.Printf("station index not warmed: %v", err)
		} else {
			log.Printf("station index warmed with %d stations", n)
		}
	}

	if listen == nil {
		listen = defaultListen
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case sig := <-signals:
		log.Printf("received %v, draining", sig)
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.ServerPort, err)
		}
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := shutdownFn(srv.App, drainCtx); err != nil {
		return fmt.Errorf("drain: %w", err)
	}
	return nil
}
