// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/pdiddy/pdfmd/pkg/types"
)

// ErrNoBackend is returned by NewBackend when the provider is "none" or
// lacks credentials.
var ErrNoBackend = errors.New("no annotation backend configured")

// Backend abstracts the hosted multimodal model so tests can supply a mock.
// Each call describes one image and returns the raw response text.
type Backend interface {
	Describe(ctx context.Context, req Request) (string, error)
}

// Request is one image description call.
type Request struct {
	System string
	Prompt string
	Image  []byte

	// MIMEType is the image media type; detected from Image when empty.
	MIMEType string
}

// mediaType returns the declared or sniffed MIME type of the image.
func (r Request) mediaType() string {
	if r.MIMEType != "" {
		return r.MIMEType
	}
	mt := mimetype.Detect(r.Image).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	if !strings.HasPrefix(mt, "image/") {
		return "image/png"
	}
	return mt
}

// dataURL encodes the image as a base64 data URL.
func (r Request) dataURL() string {
	return "data:" + r.mediaType() + ";base64," + base64.StdEncoding.EncodeToString(r.Image)
}

// NewBackend builds the backend selected by cfg.Provider.
func NewBackend(ctx context.Context, cfg types.AIConfig) (Backend, error) {
	if cfg.Provider == types.ProviderNone || cfg.Provider == "" {
		return nil, ErrNoBackend
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s requires an API key", ErrNoBackend, cfg.Provider)
	}

	switch cfg.Provider {
	case types.ProviderAzure:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("%w: azure requires an endpoint", ErrNoBackend)
		}
		return NewAzureBackend(cfg), nil
	case types.ProviderOpenAI:
		return NewOpenAIBackend(cfg), nil
	case types.ProviderGemini:
		g, err := NewGeminiBackend(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	case types.ProviderAnthropic:
		return &ClaudeBackend{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
