// Package server initializes and runs the application: it wires storage,
// the token services and the HTTP endpoint, handles graceful shutdown and
// keeps the blacklist sweep running.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avolkov/clipvault/internal/logging"
	"github.com/avolkov/clipvault/internal/server/blacklist"
	"github.com/avolkov/clipvault/internal/server/config"
	"github.com/avolkov/clipvault/internal/server/httpapi"
	"github.com/avolkov/clipvault/internal/server/refreshtokens"
	"github.com/avolkov/clipvault/internal/server/shared/db"
	"github.com/avolkov/clipvault/internal/server/tokens"
	"github.com/avolkov/clipvault/internal/server/users"
	"github.com/avolkov/clipvault/internal/server/videos"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	userService  *users.Service
	videoService *videos.Service
	coordinator  *tokens.Coordinator
	validator    *tokens.Validator
	registry     *blacklist.Registry
}

func NewApp(c *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	rm, err := db.NewPostgresRepositoryManager(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	blacklistRepo, err := blacklistRepository(c, rm)
	if err != nil {
		return nil, err
	}

	registry := blacklist.NewRegistry(blacklistRepo, logger)

	secretKey := []byte(c.SecretKey)
	refreshStore := refreshtokens.NewStore(rm.RefreshTokens(), secretKey, c.Issuer, c.RefreshTokenValidityDuration)

	us := users.NewService(rm.Users(), refreshStore)
	vs := videos.NewService(rm.Videos(), c)

	coordinator := tokens.NewCoordinator(refreshStore, registry, us,
		secretKey, c.Issuer, c.AccessTokenValidityDuration, logger)
	validator := tokens.NewValidator(secretKey, registry)

	return &App{
		config:       c,
		logger:       logger,
		userService:  us,
		videoService: vs,
		coordinator:  coordinator,
		validator:    validator,
		registry:     registry,
	}, nil
}

func blacklistRepository(c *config.Config, rm db.RepositoryManager) (blacklist.Repository, error) {
	switch c.BlacklistBackend {
	case config.BlacklistBackendRedis:
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		return blacklist.NewRedisRepository(client), nil
	case config.BlacklistBackendPostgres:
		return rm.Blacklist(), nil
	default:
		return nil, fmt.Errorf("unknown blacklist backend: %q", c.BlacklistBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger,
		app.userService, app.videoService, app.coordinator, app.validator, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// runSweep prunes expired blacklist rows on a fixed interval until the
// context is cancelled.
func (app *App) runSweep(ctx context.Context) {

	ticker := time.NewTicker(app.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			app.registry.Sweep(ctx, now)
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runSweep(ctx)
	}()

	wg.Wait()
}
