/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/HamedShams/dora-pulse/internal/adapters/jira"
	"github.com/HamedShams/dora-pulse/internal/adapters/openai"
	"github.com/HamedShams/dora-pulse/internal/adapters/telegram"
	"github.com/HamedShams/dora-pulse/internal/config"
	apihttp "github.com/HamedShams/dora-pulse/internal/http"
	"github.com/HamedShams/dora-pulse/internal/jobs"
	"github.com/HamedShams/dora-pulse/internal/logger"
	"github.com/HamedShams/dora-pulse/internal/services"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.JiraConfigured() || cfg.JiraDomain == "" {
		log.Warn().Msg("jira credentials or domain missing; metric endpoints will fail until configured")
	}

	// Adapters
	jc := jira.NewClient(cfg, log)
	var llm services.LLM
	if c := openai.NewClient(cfg, log); c != nil {
		llm = c
	}
	var tg services.Notifier
	if cfg.TelegramToken != "" {
		tc := telegram.NewClient(cfg, log)
		tg = tc
		registerWebhook(ctx, cfg, log, tc)
	}

	svc := services.New(cfg, log, jc, llm, tg)

	// Optional project catalog file, hot-reloaded
	if cfg.ProjectsFile != "" {
		cat, err := config.LoadCatalog(cfg.ProjectsFile, cfg.Catalog())
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.ProjectsFile).Msg("catalog load failed")
		}
		svc.SetCatalog(cat)
		go func() {
			if err := config.WatchCatalog(ctx, cfg.ProjectsFile, cfg.Catalog(), log, svc.SetCatalog); err != nil {
				log.Error().Err(err).Msg("catalog watch stopped")
			}
		}()
	}
	log.Info().Strs("projects", svc.Catalog().Projects).Msg("health matrix catalog")

	// Cron
	if cfg.DigestCron != "" {
		cr, err := jobs.NewCron(cfg, log, svc)
		if err != nil {
			log.Fatal().Err(err).Msg("cron setup failed")
		}
		cr.Start()
		defer cr.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           apihttp.NewRouter(cfg, log, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
}

// registerWebhook points Telegram at /telegram/webhook/<secret>. Telegram
// only delivers to https endpoints.
func registerWebhook(ctx context.Context, cfg config.Config, log zerolog.Logger, tc *telegram.Client) {
	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if cfg.TelegramWebhookSecret == "" || !strings.HasPrefix(base, "https://") {
		log.Info().Msg("telegram webhook not registered; set PUBLIC_BASE_URL (https) and TELEGRAM_WEBHOOK_SECRET")
		return
	}
	rctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := tc.SetWebhook(rctx, base+"/telegram/webhook/"+cfg.TelegramWebhookSecret, cfg.TelegramWebhookSecret); err != nil {
		log.Error().Err(err).Msg("telegram setWebhook failed")
		return
	}
	log.Info().Str("base", base).Msg("telegram webhook registered")
}
