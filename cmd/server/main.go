package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ybhrdwj/mittens-bot/internal/app"
	"github.com/ybhrdwj/mittens-bot/internal/bot"
	"github.com/ybhrdwj/mittens-bot/internal/config"
	"github.com/ybhrdwj/mittens-bot/internal/logger"
	"github.com/ybhrdwj/mittens-bot/internal/routes"
)

func main() {
	cfg := config.Load()

	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

	app, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		panic(err)
	}
	defer func() {
		closeErr := app.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}()

	tgBot, err := bot.New(cfg.BotToken, cfg.WebAppURL, app.GoalService, app.Dialogs, app.Metrics)
	if err != nil {
		slog.Error("failed to initialize bot", "error", err)
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go tgBot.Run(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: routes.SetupRoutes(app),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv, "url", "http://localhost:"+cfg.Port)

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		panic(err)
	}
}
