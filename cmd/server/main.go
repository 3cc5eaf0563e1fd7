package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // Asia/Tbilisi をコンテナ内でも解決するため

	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"fxchart_bot/internal/app/di"
	"fxchart_bot/internal/app/router"
	telegram "fxchart_bot/internal/feature/bot/transport/telegram"
	calchandler "fxchart_bot/internal/feature/calculator/transport/handler"
	convhandler "fxchart_bot/internal/feature/conversion/transport/handler"
	convusecase "fxchart_bot/internal/feature/conversion/usecase"
	"fxchart_bot/internal/platform/config"
	"fxchart_bot/internal/platform/dedupe"
	platformhandler "fxchart_bot/internal/platform/http/handler"
	"fxchart_bot/internal/platform/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(os.Stdout, logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Prefix: "fxchart"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(ctx context.Context, cfg *config.App) error {
	// Redis（任意）
	rdb := di.NewRedis(ctx, cfg)
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	// 監査DB（失敗しても記録なしで続行）
	gdb, err := di.NewDB(cfg)
	if err != nil {
		slog.Warn("usage database unavailable. Running without usage records.", "error", err)
		gdb = nil
	}

	// Usecase
	convUC, closeConv := di.NewConversionUsecase(ctx, cfg)
	defer closeConv()
	calcUC := di.NewCalculator()

	// Handler
	health := platformhandler.NewHealthHandler(healthChecks(rdb, gdb)...)
	convH := convhandler.NewConversionHandler(convUC, convusecase.ParseInput)
	calcH := calchandler.NewCalcHandler(calcUC)

	g, gctx := errgroup.WithContext(ctx)

	var webhook *telegram.WebhookHandler
	if cfg.TelegramToken == "" {
		slog.Warn("TELEGRAM_BOT_TOKEN is not set. Serving HTTP API only.")
	} else {
		api, err := botApi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			return err
		}
		api.Debug = cfg.Debug
		slog.Info("authorized on telegram", "username", api.Self.UserName)

		bot := telegram.NewBot(api, convUC, calcUC, convusecase.ParseInput,
			telegram.WithLimiter(di.NewThrottle(rdb, cfg)),
			telegram.WithUsage(di.NewUsageUsecase(gdb)),
		)

		switch cfg.Bot.Mode {
		case config.ModeWebhook:
			if err := telegram.RegisterWebhook(api, cfg.Bot.WebhookURL, cfg.Bot.WebhookSecret); err != nil {
				return err
			}
			webhook = telegram.NewWebhookHandler(ctx, cfg.Bot.WebhookSecret, dedupe.NewDeduper(rdb, 0), bot)
			defer webhook.Wait()
		default:
			if err := telegram.DeleteWebhook(api); err != nil {
				slog.Warn("failed to delete webhook before polling", "error", err)
			}
			g.Go(func() error {
				return telegram.RunPolling(gctx, api, bot)
			})
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.NewRouter(health, convH, calcH, webhook),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		slog.Info("http server listening", "addr", cfg.HTTPAddr, "bot_mode", cfg.Bot.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func healthChecks(rdb *goredis.Client, gdb *gorm.DB) []platformhandler.Check {
	var checks []platformhandler.Check
	if rdb != nil {
		checks = append(checks, platformhandler.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	if gdb != nil {
		checks = append(checks, platformhandler.Check{Name: "db", Ping: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}})
	}
	return checks
}
