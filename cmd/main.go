package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/pulse/internal/adapters/cache"
	"github.com/okian/pulse/internal/adapters/http/api"
	"github.com/okian/pulse/internal/adapters/sources/github"
	"github.com/okian/pulse/internal/adapters/sources/osrs"
	"github.com/okian/pulse/internal/adapters/sources/strava"
	"github.com/okian/pulse/internal/adapters/sources/upstream"
	app "github.com/okian/pulse/internal/app"
	"github.com/okian/pulse/internal/config"
	"github.com/okian/pulse/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(context.Background(), "service exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logger.Get()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	a := newApplication(ctx, cfg, log)
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.Bool("cache", a.policy.Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")
	return nil
}

// application holds the wired components behind the HTTP handler.
type application struct {
	handler http.Handler
	service *app.Service
	policy  *cache.Policy
	redis   *redis.Client
	log     logger.Logger
}

func newApplication(ctx context.Context, cfg *config.Config, log logger.Logger) *application {
	a := &application{log: log}

	var store cache.Store
	a.redis = cache.Connect(cache.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if a.redis != nil {
		rs := cache.NewRedisStore(a.redis)
		if err := rs.Ping(ctx); err != nil {
			log.Warn(ctx, "redis unreachable at startup; cache operations will degrade", logger.String("addr", cfg.RedisAddr), logger.Error(err))
		}
		store = rs
	} else {
		log.Info(ctx, "no redis address configured; caching disabled")
	}
	a.policy = cache.NewPolicy(store, cache.WithLogger(log.Named("cache")))

	timeout := upstream.WithTimeout(cfg.UpstreamTimeout())

	ghLog := log.Named("github")
	gh := github.New(cfg.GithubToken, cfg.GithubUsername,
		github.WithEndpoint(cfg.GithubEndpoint),
		github.WithLogger(ghLog),
		github.WithUpstream(upstream.New("github", timeout, upstream.WithLogger(ghLog))))

	stLog := log.Named("strava")
	tokens := strava.NewTokenManager(strava.Credentials{
		ClientID:     cfg.StravaClientID,
		ClientSecret: cfg.StravaClientSecret,
		RefreshToken: cfg.StravaRefreshToken,
		AthleteID:    cfg.StravaAthleteID,
	},
		strava.WithOAuthBase(cfg.StravaOAuthBase),
		strava.WithPolicy(a.policy),
		strava.WithTokenLogger(stLog),
		strava.WithTokenUpstream(upstream.New("strava_oauth", timeout, upstream.WithLogger(stLog))))
	st := strava.New(tokens,
		strava.WithAPIBase(cfg.StravaAPIBase),
		strava.WithPagesPerSecond(cfg.StravaPagesPerSecond),
		strava.WithLogger(stLog),
		strava.WithUpstream(upstream.New("strava", timeout, upstream.WithLogger(stLog))))

	osLog := log.Named("osrs")
	player := osrs.New(cfg.OsrsUsername,
		osrs.WithAPIKey(cfg.OsrsAPIKey),
		osrs.WithAPIBase(cfg.OsrsAPIBase),
		osrs.WithLogger(osLog),
		osrs.WithUpstream(upstream.New("osrs", timeout, upstream.WithLogger(osLog))))

	a.service = app.New(
		app.WithGithub(gh),
		app.WithStrava(st),
		app.WithOsrs(player),
		app.WithCachePolicy(a.policy),
		app.WithSourceTimeout(cfg.SourceTimeout()),
		app.WithLogger(log.Named("service")),
	)

	limiter := cache.NewLimiter(a.policy.Store(), cfg.RateLimitMax, cfg.RateLimitWindow(),
		cache.WithLimiterLogger(log.Named("ratelimit")))
	server := api.NewServer(a.service, tokens,
		api.WithLimiter(limiter),
		api.WithTrustedProxy(cfg.TrustProxy),
		api.WithLogger(log.Named("http")))
	a.handler = server.Handler()
	return a
}

// Close releases the Redis connection.
func (a *application) Close() {
	if a.redis == nil {
		return
	}
	if err := a.redis.Close(); err != nil {
		a.log.Warn(context.Background(), "redis close failed", logger.Error(err))
	}
}
