/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HamedShams/dora-pulse/internal/domain"
)

// ErrDigestRunning is returned when a digest is triggered while another one
// is still in flight.
var ErrDigestRunning = errors.New("digest already running")

const (
	digestTimeout = 5 * time.Minute
	// Telegram caps messages at 4096 characters
	maxMessageRunes = 3800
)

// RunDigest renders the health matrix and posts it to every configured chat.
func (s *Service) RunDigest(ctx context.Context) error {
	if !s.digestRunning.CompareAndSwap(false, true) {
		return ErrDigestRunning
	}
	defer s.digestRunning.Store(false)
	return s.runDigest(ctx)
}

// StartDigest claims the digest slot synchronously and runs the digest in
// the background. It returns false when a digest is already running.
func (s *Service) StartDigest() bool {
	if !s.digestRunning.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer s.digestRunning.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
		defer cancel()
		if err := s.runDigest(ctx); err != nil {
			s.log.Error().Err(err).Msg("digest: background run failed")
		}
	}()
	return true
}

func (s *Service) runDigest(ctx context.Context) error {
	s.log.Info().Msg("digest: start")
	matrix, err := s.HealthMatrix(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("digest: health matrix failed")
		return err
	}
	text := renderDigest(s.Catalog().Projects, matrix)
	if s.llm != nil {
		if summary, err := s.llm.Summarize(ctx, matrix); err != nil {
			s.log.Error().Err(err).Msg("digest: llm summary failed; sending numbers only")
		} else if summary != "" {
			text += "\n\n" + summary
		}
	}
	if s.tg == nil || len(s.cfg.TelegramChatIDs) == 0 {
		s.log.Warn().Msg("digest: no telegram delivery configured")
		return nil
	}
	var errs []error
	for _, chat := range s.cfg.TelegramChatIDs {
		if err := s.send(ctx, chat, text); err != nil {
			s.log.Error().Err(err).Int64("chat", chat).Msg("telegram send failed")
			errs = append(errs, err)
		}
	}
	s.log.Info().Int("chats", len(s.cfg.TelegramChatIDs)).Int("failed", len(errs)).Msg("digest: done")
	return errors.Join(errs...)
}

// send delivers text in Telegram-sized parts and stops at the first failure.
func (s *Service) send(ctx context.Context, chat int64, text string) error {
	if s.tg == nil {
		return errors.New("telegram: not configured")
	}
	for _, p := range chunkText(text, maxMessageRunes) {
		if err := s.tg.SendMessage(ctx, chat, p); err != nil {
			return err
		}
	}
	return nil
}

// renderDigest lists projects in catalog order, one line per project.
func renderDigest(projects []string, matrix map[string]domain.Metrics) string {
	b := &strings.Builder{}
	b.WriteString("DORA digest\n")
	b.WriteString("project: lead(d) | deploys/wk | CFR% | MTTR(h) | velocity\n")
	for _, p := range projects {
		m, ok := matrix[p]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "%s: %.1f | %.1f | %.1f | %.1f | %g\n",
			p, m.LeadTime, m.DeploymentFrequency, m.ChangeFailureRate, m.RecoveryTime, m.Velocity)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderProject(rep ProjectReport) string {
	m := rep.Metrics
	return fmt.Sprintf("%s (%d issues)\nlead time: %.1f d\ndeploys/wk: %.1f\nchange failure rate: %.1f%%\nrecovery time: %.1f h\nvelocity: %g",
		rep.Project, rep.TotalIssues, m.LeadTime, m.DeploymentFrequency, m.ChangeFailureRate, m.RecoveryTime, m.Velocity)
}

// chunkText splits text into chunks of up to max runes, breaking on line
// boundaries where possible.
func chunkText(s string, max int) []string {
	if max <= 0 {
		return []string{s}
	}
	var chunks []string
	var cur strings.Builder
	curlen := 0
	started := false
	flush := func() {
		if started {
			chunks = append(chunks, cur.String())
		}
		cur.Reset()
		curlen = 0
		started = false
	}
	for _, ln := range strings.Split(s, "\n") {
		r := []rune(ln)
		rl := len(r)
		if rl > max {
			flush()
			for i := 0; i < rl; i += max {
				j := min(i+max, rl)
				chunks = append(chunks, string(r[i:j]))
			}
			continue
		}
		extra := rl
		if started {
			extra++
		}
		if curlen+extra > max {
			flush()
			extra = rl
		}
		if started {
			cur.WriteByte('\n')
		}
		cur.WriteString(ln)
		curlen += extra
		started = true
	}
	flush()
	if len(chunks) == 0 {
		chunks = []string{""}
	}
	return chunks
}
