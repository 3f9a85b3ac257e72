package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/gorilla/sessions"
	"github.com/microcosm-cc/bluemonday"

	"github.com/emberwiki/emberwiki/internal/config"
	"github.com/emberwiki/emberwiki/internal/ratelimit"
	"github.com/emberwiki/emberwiki/internal/storage"
	"github.com/emberwiki/emberwiki/wiki/repository"
	"github.com/emberwiki/emberwiki/wiki/service"
)

// Setup initializes the application: configuration, database, rate
// limiter and services.
func Setup() *App {
	conf := config.SetupConfig()

	conn, err := storage.Open(conf.DatabaseFile)
	if err != nil {
		slog.Error("failed to open database", "error", err, "file", conf.DatabaseFile)
		os.Exit(1)
	}

	store, err := storage.Init(conn)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	var limiter repository.RateLimiter
	if conf.RedisURL != "" {
		redisLimiter, err := ratelimit.NewRedisLimiter(context.Background(), conf.RedisURL, "emberwiki:")
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		slog.Info("rate limiting via redis")
		limiter = redisLimiter
	} else {
		slog.Info("rate limiting in process")
		limiter = ratelimit.NewMemoryLimiter()
	}

	bm := bluemonday.UGCPolicy()
	bm.AllowAttrs("class").Globally()

	renderingService := service.NewRenderingService(bm)
	identityService := service.NewIdentityService(store)
	viewerService := service.NewViewerService(identityService)

	limits := service.DefaultRateLimits()

	return &App{
		Articles:  service.NewArticleService(store, renderingService),
		Revisions: service.NewRevisionService(store, limiter, limits),
		History:   service.NewHistoryService(store),
		Queue:     service.NewQueueService(store, limiter, limits),
		Identity:  identityService,
		Viewers:   viewerService,
		Rendering: renderingService,
		Config:    conf,
		Sessions:  sessions.NewCookieStore(conf.CookieSecret),
		DB:        conn,
	}
}
