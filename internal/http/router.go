/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"time"

	"github.com/HamedShams/dora-pulse/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func NewRouter(cfg config.Config, log zerolog.Logger, svc service) *gin.Engine {
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().Str("m", c.Request.Method).Str("p", c.FullPath()).Int("s", c.Writer.Status()).Dur("d", time.Since(start)).Msg("http")
	})

	h := NewHandlers(cfg, log, svc)

	r.GET("/health", h.Health)
	r.GET("/metrics/health-matrix", h.HealthMatrix)
	r.GET("/metrics/dora", h.DORA)
	r.GET("/metrics/prometheus", h.Prometheus)
	r.POST("/telegram/webhook", h.TelegramWebhook)
	r.POST("/telegram/webhook/:secret", h.TelegramWebhook)

	if cfg.AdminToken != "" {
		admin := r.Group("/admin", AdminAuth(cfg.AdminToken))
		admin.POST("/digest", h.RunDigest)
	}

	return r
}
