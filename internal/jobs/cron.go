/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HamedShams/dora-pulse/internal/config"
	"github.com/HamedShams/dora-pulse/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type service interface{ RunDigest(ctx context.Context) error }

type Cron struct {
	cfg config.Config
	log zerolog.Logger
	svc service
	c   *cron.Cron
}

// NewCron schedules the digest on cfg.DigestCron (standard 5-field spec).
func NewCron(cfg config.Config, log zerolog.Logger, svc service) (*Cron, error) {
	loc, err := time.LoadLocation(cfg.TZ)
	if err != nil {
		return nil, fmt.Errorf("cron: location %q: %w", cfg.TZ, err)
	}
	c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
	cr := &Cron{cfg: cfg, log: log, svc: svc, c: c}
	if _, err := c.AddFunc(cfg.DigestCron, cr.digest); err != nil {
		return nil, fmt.Errorf("cron: spec %q: %w", cfg.DigestCron, err)
	}
	return cr, nil
}

func (cr *Cron) Start() { cr.c.Start() }

// Stop waits for a running digest to finish.
func (cr *Cron) Stop() { <-cr.c.Stop().Done() }

func (cr *Cron) digest() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	cr.log.Info().Msg("cron: digest")
	err := cr.svc.RunDigest(ctx)
	switch {
	case errors.Is(err, services.ErrDigestRunning):
		cr.log.Info().Msg("cron: digest already running, skipped")
	case err != nil:
		cr.log.Error().Err(err).Msg("cron: digest failed")
	}
}
