package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"tmtops/api/internal/config"
	"tmtops/api/internal/db"
	"tmtops/api/internal/httpapi"
	"tmtops/api/internal/records"
	"tmtops/api/internal/sheets"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: .env file not found, using environment variables")
	}
	cfg := config.Load()
	slog.SetDefault(newLogger(cfg))
	if cfg.SheetTimezone != "" {
		loc, err := time.LoadLocation(cfg.SheetTimezone)
		if err != nil {
			fatal("sheet timezone", err)
		}
		sheets.SheetLocation = loc
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("db connect", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		fatal("db migrate", err)
	}
	if cfg.SeedDemo {
		if err := db.Seed(ctx, pool); err != nil {
			fatal("db seed", err)
		}
	}
	store := db.NewStore(pool)
	if n, err := store.PurgeSessions(ctx, time.Now()); err != nil {
		slog.Warn("purge sessions", "error", err)
	} else if n > 0 {
		slog.Info("purged expired sessions", "count", n)
	}

	hc := &http.Client{Timeout: 30 * time.Second}
	var reader sheets.Reader = sheets.NewClient(hc)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			fatal("redis url", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unavailable, master sheets will not be cached", "error", err)
		} else {
			reader = sheets.NewCachedReader(reader, sheets.NewRedisCache(rdb, "tmtops:"), cfg.CacheTTL,
				records.SheetMaterials, records.SheetWorkingDays)
		}
	}
	if cfg.SheetID == "" {
		slog.Warn("SHEET_ID is not set; sheet-backed endpoints will fail")
	}

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Store:      store,
			Sheets:     reader,
			Script:     sheets.NewScriptClient(cfg.ScriptURL, hc),
			Delegation: sheets.NewScriptClient(cfg.DelegationScriptURL, hc),
			Config:     cfg,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("TMT ops API listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal("listen", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
