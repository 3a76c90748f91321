package main

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/23CSBS271/focus-flow/config"
	"github.com/23CSBS271/focus-flow/drag"
	"github.com/23CSBS271/focus-flow/remote"
	"github.com/23CSBS271/focus-flow/storage"
	"github.com/23CSBS271/focus-flow/store"
	"github.com/23CSBS271/focus-flow/views"
)

// app wires the remote client, the optional Redis snapshot cache, the task
// store and its coordinator for one CLI invocation.
type app struct {
	cfg       *config.Config
	userID    string
	out       io.Writer
	log       *log.Logger
	now       func() time.Time
	projector views.Projector

	redis *redis.Client
	cache *storage.Cache
	tasks *store.Store
	coord *store.Coordinator
}

func newApp(ctx context.Context, cfg *config.Config, userID string, out io.Writer) (*app, error) {
	if userID == "" {
		userID = cfg.UserID
	}
	if userID == "" {
		return nil, errors.New("no user id: set user_id in focusflow.yml, FOCUSFLOW_USER_ID or --user")
	}
	logger := log.New()
	logger.SetOutput(io.Discard)
	if cfg.Debug {
		logger.SetOutput(log.StandardLogger().Out)
		logger.SetLevel(log.DebugLevel)
	}
	projector, err := cfg.Projector()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		userID:    userID,
		out:       out,
		log:       logger,
		now:       time.Now,
		projector: projector,
	}

	opts := []remote.Option{remote.WithLogger(logger)}
	if cfg.BearerToken != "" {
		opts = append(opts, remote.WithBearer(cfg.BearerToken))
	}
	client := remote.New(cfg.APIBaseURL, opts...)

	if cfg.RedisURL != "" {
		redisOpts, err := storage.ParseRedisOptions(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.redis = redis.NewClient(redisOpts)
	}
	a.cache = storage.NewCache(client, a.redis, cfg.CacheTTL)

	a.tasks = store.New(a.cache, logger)
	if _, err := a.tasks.Load(ctx, userID); err != nil {
		a.close()
		return nil, err
	}
	a.coord = store.NewCoordinator(a.tasks, a.cache, store.Options{
		StrictOrdering: cfg.StrictOrdering,
		Logger:         logger,
	})
	return a, nil
}

func (a *app) dragController() *drag.Controller {
	return drag.New(a.tasks, a.coord, a.log)
}

func (a *app) close() {
	if a.coord != nil {
		a.coord.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
