// main.go
//
// Entry point for the Gibberish Guesser server.
// Startup:
//   - .env is loaded (if present), then flags and GIBBERISH_* env vars.
//   - zerolog is configured from --log-level / --log-format.
//   - The KV backend, puzzle source, session manager and HTTP server are
//     wired together; SIGINT/SIGTERM trigger a graceful shutdown that
//     flushes pending persistence writes.
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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/gibberish-guesser/internal/config"
	"github.com/robalobadob/gibberish-guesser/internal/daily"
	"github.com/robalobadob/gibberish-guesser/internal/game"
	"github.com/robalobadob/gibberish-guesser/internal/httpserver"
	"github.com/robalobadob/gibberish-guesser/internal/puzzle"
	"github.com/robalobadob/gibberish-guesser/internal/share"
	"github.com/robalobadob/gibberish-guesser/internal/store"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := &config.Config{}
	cmd := config.NewCommand(cfg, version, serve)
	if err := cmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("gibberish exited")
	}
}

func serve(cmd *cobra.Command, cfg *config.Config) error {
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	pool, err := puzzle.LoadPool(cfg.PuzzlesFile)
	if err != nil {
		return fmt.Errorf("load puzzle pool: %w", err)
	}
	src, err := openSource(ctx, cfg, pool)
	if err != nil {
		return err
	}

	mgr := game.NewManager(game.ManagerOptions{
		Source:      src,
		Persister:   store.NewAdapter(kv),
		RetryDelay:  cfg.RetryDelay,
		IdleTimeout: cfg.SessionTimeout,
	})
	defer mgr.Close()

	srv := httpserver.New(httpserver.Options{
		Manager:      mgr,
		Sealer:       share.NewSealer(cfg.SealingSecret()),
		Daily:        daily.NewPicker(pool, cfg.DailySalt),
		JWTSecret:    cfg.JWTSecret,
		CookieName:   cfg.CookieName,
		ClientOrigin: cfg.ClientOrigin,
		Production:   cfg.Production,
		FetchTimeout: cfg.FetchTimeout,
	})
	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- httpSrv.ListenAndServe() }()
	log.Info().
		Str("addr", cfg.Addr()).
		Str("store", cfg.Store).
		Str("source", cfg.PuzzleSource()).
		Int("pool", pool.Len()).
		Msg("starting gibberish-guesser")

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func setupLogging(cfg *config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.KV, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		kv, err := store.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.DBPath, err)
		}
		return kv, nil
	case config.StoreRedis:
		return store.NewRedis(ctx, store.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisTTL,
		})
	}
	return store.NewMemory(), nil
}

func openSource(ctx context.Context, cfg *config.Config, pool *puzzle.Pool) (puzzle.Source, error) {
	if cfg.PuzzleSource() == config.SourcePool {
		log.Info().Msg("no Gemini key configured, serving the offline puzzle pool")
		return pool, nil
	}
	g, err := puzzle.NewGeminiFromKey(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return g, nil
}
