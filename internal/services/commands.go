/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
	"context"
	"errors"
	"strings"
)

const helpText = "DORA Pulse commands:\n" +
	"/report - health matrix for every tracked project\n" +
	"/report <KEY> - lead time, deploys, CFR, recovery and velocity for one project\n" +
	"/help - this message"

// ChatAllowed reports whether chatID may issue commands. With no configured
// chats every chat is allowed.
func (s *Service) ChatAllowed(chatID int64) bool {
	if len(s.cfg.TelegramChatIDs) == 0 {
		return true
	}
	for _, id := range s.cfg.TelegramChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// HandleCommand answers a chat command in the chat it came from. Text that
// is not a known command is ignored.
func (s *Service) HandleCommand(ctx context.Context, chatID int64, text string) error {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	cmd := strings.ToLower(fields[0])
	// group chats send "/report@SomeBot"
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	switch cmd {
	case "/start", "/help":
		return s.send(ctx, chatID, helpText)
	case "/report":
		if len(fields) == 1 {
			return s.reportMatrix(ctx, chatID)
		}
		return s.reportProject(ctx, chatID, strings.ToUpper(fields[1]))
	}
	return nil
}

func (s *Service) reportMatrix(ctx context.Context, chatID int64) error {
	matrix, err := s.HealthMatrix(ctx)
	if err != nil {
		s.log.Error().Err(err).Int64("chat", chatID).Msg("command: health matrix failed")
		return errors.Join(err, s.send(ctx, chatID, "Failed to fetch metrics"))
	}
	return s.send(ctx, chatID, renderDigest(s.Catalog().Projects, matrix))
}

func (s *Service) reportProject(ctx context.Context, chatID int64, key string) error {
	rep, err := s.ProjectMetrics(ctx, ProjectQuery{Project: key})
	if err != nil {
		msg := "Failed to fetch DORA metrics"
		if errors.Is(err, ErrInvalidQuery) {
			msg += ": " + err.Error()
		} else {
			s.log.Error().Err(err).Int64("chat", chatID).Str("project", key).Msg("command: project metrics failed")
		}
		return errors.Join(err, s.send(ctx, chatID, msg))
	}
	return s.send(ctx, chatID, renderProject(rep))
}
