package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/knowledgehub/internal/config"
	"github.com/iliyamo/knowledgehub/internal/database"
	"github.com/iliyamo/knowledgehub/internal/enrich"
	"github.com/iliyamo/knowledgehub/internal/handler"
	"github.com/iliyamo/knowledgehub/internal/logging"
	"github.com/iliyamo/knowledgehub/internal/middleware"
	"github.com/iliyamo/knowledgehub/internal/queue"
	"github.com/iliyamo/knowledgehub/internal/repository"
	"github.com/iliyamo/knowledgehub/internal/router"
	"github.com/iliyamo/knowledgehub/internal/service"
	"github.com/iliyamo/knowledgehub/internal/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Env, os.Stdout)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Warn("redis unavailable: in-memory rate limiting, no response cache")
	}

	issuer, err := utils.NewTokenIssuer(cfg.Token)
	if err != nil {
		return err
	}
	var revCache service.RevocationCache
	if rdb != nil {
		revCache = service.NewRedisRevocationCache(rdb, "kh:revoked")
	}
	registry := service.NewRevocationRegistry(repository.NewRevocationRepo(db), revCache, log)
	auth, err := service.NewAuthService(repository.NewUserRepo(db), utils.NewPasswordHasher(cfg.BcryptCost), issuer, registry, log)
	if err != nil {
		return err
	}

	var events service.EventPublisher
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.AMQPURL)
	}
	respCache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	articles := service.NewArticleService(repository.NewArticleRepo(db), enrich.New(cfg.AIMode, log), events, respCache, log)

	e := newEcho(cfg, log, rdb)
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(auth), auth)
	router.RegisterArticles(e, handler.NewArticleHandler(articles), auth, respCache.Middleware())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})
	g.Go(func() error {
		return registry.RunSweeper(gctx, cfg.SweepInterval)
	})
	if cfg.EventsEnabled {
		g.Go(func() error {
			return queue.NewConsumer(cfg.AMQPURL, "logs", log).Run(gctx)
		})
	}
	return g.Wait()
}

func newEcho(cfg config.Config, log *slog.Logger, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(cfg.IsProduction(), log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Secure())
	e.Use(echomw.CORS())
	e.Use(echomw.BodyLimit("2M"))
	if cfg.Env != "test" {
		e.Use(requestLogger(log))
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	return e
}

func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency.String(),
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				attrs = append(attrs, "err", v.Error.Error())
			}
			log.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	})
}
