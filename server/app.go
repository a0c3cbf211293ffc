package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Versifine/threadboard/server/activity"
	"github.com/Versifine/threadboard/server/auth"
	"github.com/Versifine/threadboard/server/config"
	"github.com/Versifine/threadboard/server/file"
	"github.com/Versifine/threadboard/server/internal/logger"
	"github.com/Versifine/threadboard/server/internal/transport"
	"github.com/Versifine/threadboard/server/store"
	"github.com/Versifine/threadboard/server/thread"
)

// openPersister builds the persister named by storage.driver.
func openPersister(ctx context.Context, cfg config.StorageConfig) (store.Persister, error) {
	switch cfg.Driver {
	case "file":
		return store.NewFilePersister(cfg.Path), nil
	case "sqlite":
		return store.OpenSQLite(cfg.Path)
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, errors.Wrapf(err, "ping redis %s", cfg.Redis.Addr)
		}
		return store.NewRedisPersister(client, cfg.Redis.Key), nil
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func storeOptions(cfg *config.Config) ([]store.Option, error) {
	scheme, err := store.SchemeByName(cfg.Auth.PasswordScheme)
	if err != nil {
		return nil, err
	}
	opts := []store.Option{
		store.WithCredentialScheme(scheme),
		store.WithImagePrefix(cfg.Upload.PublicPrefix),
	}
	if cfg.Feed.MarkWatched {
		opts = append(opts, store.WithWatchPolicy(store.WatchOnPick))
	}
	return opts, nil
}

func openStore(ctx context.Context, cfg *config.Config, extra ...store.Option) (*store.Store, error) {
	p, err := openPersister(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	opts, err := storeOptions(cfg)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, p, append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	logger.Info("storage ready",
		zap.String("driver", cfg.Storage.Driver),
		zap.Bool("mark_watched", cfg.Feed.MarkWatched),
		zap.String("password_scheme", cfg.Auth.PasswordScheme))
	return st, nil
}

func corsConfig(origins []string) cors.Config {
	cc := cors.DefaultConfig()
	cc.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cc.AddAllowHeaders(transport.ViewerHeader)
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			cc.AllowAllOrigins = true
			return cc
		}
	}
	cc.AllowOrigins = origins
	return cc
}

// newRouter wires every handler onto a gin engine.
func newRouter(cfg *config.Config, api store.API, hub *activity.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), transport.RequestLogger())
	r.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws/"})))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")
	(&auth.Service{Store: api}).Register(apiGroup)
	(&thread.Handler{Store: api}).Register(apiGroup)
	(&file.Handler{
		Store:        api,
		UploadDir:    cfg.Upload.Dir,
		PublicPrefix: cfg.Upload.PublicPrefix,
		MaxBytes:     cfg.Upload.MaxBytes,
	}).Register(apiGroup)

	ws := &activity.Handler{
		Store: api,
		Hub:   hub,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     activity.AllowOrigins(cfg.Server.AllowedOrigins),
		},
	}
	r.GET("/ws/activity", ws.ServeWS)
	return r
}
