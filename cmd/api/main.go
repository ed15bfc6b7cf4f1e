package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"inksynth/internal/adapter/repo"
	"inksynth/internal/catalog"
	"inksynth/internal/demo"
	"inksynth/internal/domain"
	"inksynth/internal/http/handlers"
	httpapi "inksynth/internal/http/httpapi"
	"inksynth/internal/infra"
	"inksynth/internal/infra/geoip"
	"inksynth/internal/infra/identity"
	"inksynth/internal/middleware"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	users, closeUsers, err := openUserDirectory(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.UserStore).Msg("failed to open user directory")
	}
	defer closeUsers()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load catalog")
	}

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer geo.Close()

	sessions := demo.NewRegistry(cat, demo.Options{
		GenerationDelay:  cfg.GenerationDelay,
		GenerationJitter: cfg.GenerationJitter,
		ConnectDelay:     cfg.ConnectionDelay,
		Logger:           logger,
	}, cfg.DemoSessionTTL)
	defer sessions.Close()

	app := handlers.NewApp(cfg, logger, users, cat, sessions)
	router := httpapi.NewRouter(app, httpapi.Options{
		Verifier:      sessionVerifier(cfg),
		CountryLookup: middleware.CountryLookup(geo.Lookup()),
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Bool("demo_mode", cfg.DemoMode).
			Str("user_store", cfg.UserStore).
			Msg("Ink Synthesis API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// openUserDirectory selects the metadata store. Network-backed stores are
// wrapped with retries.
func openUserDirectory(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (domain.UserDirectory, func(), error) {
	retryCfg := repo.DefaultRetryConfig()
	retryCfg.MaxAttempts = cfg.UpstreamRetryAttempts
	storeLogger := logger.With().Str("component", "user_directory").Logger()

	switch cfg.UserStore {
	case infra.UserStorePostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		runner := infra.NewSQLRunner(pool, storeLogger)
		return repo.NewRetryingDirectory(repo.NewUserDirectoryPG(runner), retryCfg, storeLogger), pool.Close, nil
	case infra.UserStoreRedis:
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		dir := repo.NewUserDirectoryRedis(client, repo.DefaultRedisKeyPrefix)
		return repo.NewRetryingDirectory(dir, retryCfg, storeLogger), func() { _ = client.Close() }, nil
	default:
		logger.Warn().Msg("using in-memory user directory; profiles are lost on restart")
		return repo.NewUserDirectoryMemory(), func() {}, nil
	}
}

func sessionVerifier(cfg *infra.Config) middleware.SessionVerifier {
	switch {
	case cfg.JWKSURL != "":
		return identity.NewVerifier(cfg.JWKSURL, cfg.AuthIssuer)
	case cfg.JWTSecret != "":
		return middleware.HMACVerifier{Secret: cfg.JWTSecret, Issuer: cfg.AuthIssuer}
	default:
		return nil
	}
}
