/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/HamedShams/dora-pulse/internal/config"
	"github.com/HamedShams/dora-pulse/internal/domain"
	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rs/zerolog"
)

const summarizePrompt = "You are a senior engineering coach. Given DORA metrics per project " +
	"(leadTime in days, deploymentFrequency in releases/week over an assumed 4-week window, " +
	"changeFailureRate in percent, recoveryTime in hours, velocity in story points), " +
	"write a short plain-text summary: notable outliers first, then one suggested action per flagged project."

type Client struct {
	key   string
	model string
	cli   openai.Client
	log   zerolog.Logger
}

// NewClient returns nil when no API key is configured.
func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	if strings.TrimSpace(cfg.OpenAIKey) == "" {
		return nil
	}
	model := cfg.OpenAIModel
	if strings.TrimSpace(model) == "" {
		model = "gpt-4.1-mini"
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.OpenAIKey), option.WithRequestTimeout(cfg.OpenAITimeout))
	return &Client{key: cfg.OpenAIKey, model: model, cli: cli, log: log}
}

func (c *Client) Summarize(ctx context.Context, matrix map[string]domain.Metrics) (string, error) {
	if c == nil || strings.TrimSpace(c.key) == "" {
		return "", errors.New("openai: missing key")
	}
	b, err := json.Marshal(matrix)
	if err != nil {
		return "", err
	}
	c.log.Info().Str("model", c.model).Int("projects", len(matrix)).Msg("openai Summarize call")
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(summarizePrompt),
			openai.UserMessage(string(b)),
		},
	}
	resp, err := c.cli.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
