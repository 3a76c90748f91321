package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/23CSBS271/focus-flow/config"
	"github.com/23CSBS271/focus-flow/server"
	"github.com/23CSBS271/focus-flow/storage"
)

func main() {
	configPath := flag.String("config", "", "path to focusflow.yml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New()
	logger.SetFormatter(&log.JSONFormatter{})
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		logger.SetLevel(log.DebugLevel)
	}

	store, publisher := buildStorage(cfg)

	var deduper server.Deduper
	if cfg.RedisURL != "" {
		redisOpts, err := storage.ParseRedisOptions(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		rc := redis.NewClient(redisOpts)
		defer rc.Close()
		deduper = server.NewTaskCreateKeys(rc, cfg.DedupeTTL)
	} else {
		log.Warn("redis_url not set; create requests are not deduplicated")
	}

	auth, err := buildAuth(cfg)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	var events *server.EventSender
	if publisher != nil {
		events = server.NewEventSender(publisher, server.EventSenderOptions{}, logger)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
	}))

	deps := server.Deps{Store: store, Deduper: deduper, Events: events, Logger: logger}
	if auth != nil {
		deps.Auth = auth
	}
	server.Register(e, deps)

	listenAddr := cfg.ListenAddr
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	}

	go func() {
		if err := e.Start(listenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	events.Close()
}

// buildStorage picks Azure Tables when a connection string is configured and
// the in-memory repository otherwise.
func buildStorage(cfg *config.Config) (server.Storage, server.Publisher) {
	if cfg.StorageConnectionString == "" {
		log.Warn("storage_connection_string not set; using in-memory storage")
		return storage.NewMemory(), nil
	}
	tables, err := storage.NewTables(cfg.StorageConnectionString, cfg.TasksTable, cfg.ProfilesTable)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	if cfg.EventsQueue == "" {
		return tables, nil
	}
	pub, err := storage.NewQueuePublisher(cfg.StorageConnectionString, cfg.EventsQueue)
	if err != nil {
		log.Fatalf("queue: %v", err)
	}
	return tables, pub
}

// buildAuth returns nil when auth is disabled.
func buildAuth(cfg *config.Config) (*server.Auth, error) {
	switch strings.ToLower(cfg.AuthMode) {
	case config.AuthNone:
		log.Warn("auth_mode is none; the userId field is trusted")
		return nil, nil
	case config.AuthHS256:
		if cfg.AuthSecret == "" {
			return nil, fmt.Errorf("auth_secret is required for hs256")
		}
		return server.NewHS256Auth([]byte(cfg.AuthSecret), cfg.AuthAudience, ""), nil
	case config.AuthJWKS:
		if cfg.AuthDomain == "" || cfg.AuthAudience == "" {
			return nil, fmt.Errorf("auth_domain and auth_audience are required for jwks")
		}
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", cfg.AuthDomain)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			return nil, fmt.Errorf("jwks: %w", err)
		}
		return server.NewJWKSAuth(jwks, cfg.AuthAudience, "https://"+cfg.AuthDomain+"/", server.DefaultJWKSCacheTTL), nil
	default:
		return nil, fmt.Errorf("unknown auth_mode %q", cfg.AuthMode)
	}
}
