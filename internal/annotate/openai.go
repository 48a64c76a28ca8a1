// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/pdfmd/pkg/types"
)

// OpenAIBackend describes images through the Chat Completions API of OpenAI,
// Azure OpenAI, or any compatible endpoint.
type OpenAIBackend struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewOpenAIBackend returns a backend for api.openai.com or, when
// cfg.Endpoint is set, an OpenAI-compatible base URL.
func NewOpenAIBackend(cfg types.AIConfig, extra ...option.RequestOption) *OpenAIBackend {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	return newOpenAIBackend(cfg, append(opts, extra...))
}

// NewAzureBackend returns a backend for an Azure OpenAI deployment. The
// deployment name is cfg.Model.
func NewAzureBackend(cfg types.AIConfig, extra ...option.RequestOption) *OpenAIBackend {
	opts := []option.RequestOption{
		azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
	}
	return newOpenAIBackend(cfg, append(opts, extra...))
}

func newOpenAIBackend(cfg types.AIConfig, opts []option.RequestOption) *OpenAIBackend {
	// Retries belong to the annotator's policy, not the SDK.
	opts = append(opts, option.WithMaxRetries(0))
	return &OpenAIBackend{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Describe sends the prompt and the image as a data URL.
func (b *OpenAIBackend) Describe(ctx context.Context, req Request) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(req.Prompt),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: req.dataURL(),
			}),
		}),
	}
	if req.System != "" {
		messages = append([]openai.ChatCompletionMessageParamUnion{openai.SystemMessage(req.System)}, messages...)
	}

	params := openai.ChatCompletionNewParams{
		Model:       b.model,
		Messages:    messages,
		Temperature: openai.Float(b.temperature),
	}
	if b.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(b.maxTokens))
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("chat completion returned empty content")
	}
	return text, nil
}
