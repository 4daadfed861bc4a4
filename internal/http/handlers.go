/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/HamedShams/dora-pulse/internal/config"
	"github.com/HamedShams/dora-pulse/internal/domain"
	"github.com/HamedShams/dora-pulse/internal/exporter"
	"github.com/HamedShams/dora-pulse/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type service interface {
	Health() services.Health
	HealthMatrix(ctx context.Context) (map[string]domain.Metrics, error)
	ProjectMetrics(ctx context.Context, q services.ProjectQuery) (services.ProjectReport, error)
	StartDigest() bool
	ChatAllowed(chatID int64) bool
	HandleCommand(ctx context.Context, chatID int64, text string) error
}

// commands run detached from the webhook request; Telegram only needs the 200
const commandTimeout = 2 * time.Minute

type Handlers struct {
	cfg config.Config
	log zerolog.Logger
	svc service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc service) *Handlers {
	return &Handlers{cfg: cfg, log: log, svc: svc}
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health())
}

func (h *Handlers) HealthMatrix(c *gin.Context) {
	matrix, err := h.svc.HealthMatrix(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to fetch metrics", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": matrix})
}

func (h *Handlers) DORA(c *gin.Context) {
	rep, err := h.svc.ProjectMetrics(c.Request.Context(), services.ProjectQuery{
		Project:   c.Query("project"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	})
	if err != nil {
		h.fail(c, "Failed to fetch DORA metrics", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"project":     rep.Project,
		"totalIssues": rep.TotalIssues,
		"metrics":     rep.Metrics,
	})
}

func (h *Handlers) Prometheus(c *gin.Context) {
	matrix, err := h.svc.HealthMatrix(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to fetch metrics", err)
		return
	}
	c.Header("Content-Type", string(exporter.Format))
	c.Status(http.StatusOK)
	if err := exporter.Write(c.Writer, matrix); err != nil {
		h.log.Error().Err(err).Msg("prometheus encode failed")
	}
}

func (h *Handlers) RunDigest(c *gin.Context) {
	if !h.svc.StartDigest() {
		c.JSON(http.StatusConflict, gin.H{"status": "already running"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

type telegramUpdate struct {
	Message *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

// TelegramWebhook accepts bot updates. The secret comes either from the
// X-Telegram-Bot-Api-Secret-Token header or from the path.
func (h *Handlers) TelegramWebhook(c *gin.Context) {
	secret := h.cfg.TelegramWebhookSecret
	if secret == "" || !(secretEqual(c.GetHeader("X-Telegram-Bot-Api-Secret-Token"), secret) || secretEqual(c.Param("secret"), secret)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var upd telegramUpdate
	if err := c.ShouldBindJSON(&upd); err == nil && upd.Message != nil {
		chatID, text := upd.Message.Chat.ID, upd.Message.Text
		if h.svc.ChatAllowed(chatID) {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
				defer cancel()
				if err := h.svc.HandleCommand(ctx, chatID, text); err != nil {
					h.log.Error().Err(err).Int64("chat", chatID).Msg("telegram command failed")
				}
			}()
		} else {
			h.log.Warn().Int64("chat", chatID).Msg("telegram update from unknown chat ignored")
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func secretEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// fail writes the failure envelope. Bad input is a 400; everything else,
// upstream errors included, collapses to a 500.
func (h *Handlers) fail(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, services.ErrInvalidQuery) {
		status = http.StatusBadRequest
	} else {
		h.log.Error().Err(err).Str("p", c.FullPath()).Msg(msg)
	}
	c.JSON(status, gin.H{"success": false, "error": msg, "details": err.Error()})
}
