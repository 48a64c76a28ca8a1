// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotate classifies extracted images and describes the
// content-bearing ones with a hosted multimodal model. Model failures are
// retried under a bounded policy and end in a placeholder description; they
// never fail the run.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/pdfmd/internal/classify"
	"github.com/pdiddy/pdfmd/internal/retry"
	"github.com/pdiddy/pdfmd/pkg/types"
)

// Annotator turns image elements into image descriptors. It is safe for
// concurrent use by multiple runs.
type Annotator struct {
	backend      Backend
	classifier   *classify.Classifier
	prompts      prompts
	ai           types.AIConfig
	decorative   string
	maxImageSize int64
	limiter      *rate.Limiter
	logger       *logrus.Logger
}

// New returns an Annotator. A nil backend disables model calls: every
// non-decorative image then gets a plain positional description.
func New(backend Backend, cfg types.Config, logger *logrus.Logger) (*Annotator, error) {
	p, err := newPrompts(cfg.AI)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}

	a := &Annotator{
		backend:      backend,
		classifier:   classify.New(cfg.Classifier),
		prompts:      p,
		ai:           cfg.AI,
		decorative:   cfg.Classifier.DecorativeDescription,
		maxImageSize: cfg.Processing.MaxImageSize,
		logger:       logger,
	}
	if cfg.AI.RequestsPerSecond > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.AI.RequestsPerSecond), 1)
	}
	return a, nil
}

// Enabled reports whether a model backend is configured.
func (a *Annotator) Enabled() bool {
	return a.backend != nil
}

// Annotate builds one descriptor per image element in elems, in document
// order. When analyze is true and a backend is configured, content-bearing
// images are described by the model concurrently; Annotate returns only
// after every call has finished. The only error it returns is the context's.
func (a *Annotator) Annotate(ctx context.Context, elems []types.StructuralElement, analyze bool) ([]types.ImageDescriptor, error) {
	var descs []types.ImageDescriptor
	var images []*types.ImageData
	for _, e := range elems {
		if e.Kind != types.KindImage {
			continue
		}
		img := e.Image
		if img == nil {
			img = &types.ImageData{}
		}
		// Oversized images are never decoded, not even to classify them.
		class := a.classifier.ClassifyBySize(*img)
		if !a.oversized(img) {
			class = a.classifier.Classify(*img)
		}
		descs = append(descs, types.ImageDescriptor{
			Index:     len(descs) + 1,
			Order:     e.Order,
			Page:      e.Page,
			SizeBytes: len(img.Data),
			Width:     img.Width,
			Height:    img.Height,
			Caption:   img.Caption,
			Class:     class,
		})
		images = append(images, img)
	}

	limit := a.ai.MaxConcurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range descs {
		d := &descs[i]
		img := images[i]

		switch {
		case d.Class == types.ClassDecorative:
			d.Description = a.decorative
			continue
		case !analyze || a.backend == nil:
			d.Description = fmt.Sprintf("Image %d on page %d", d.Index, d.Page)
			continue
		case len(img.Data) == 0:
			d.Description = a.ai.FallbackDescription
			d.Fallback = true
			a.logger.WithFields(logrus.Fields{"image": d.Index, "page": d.Page}).Warn("image has no data, using placeholder")
			continue
		case a.oversized(img):
			d.Description = a.ai.FallbackDescription
			d.Fallback = true
			a.logger.WithFields(logrus.Fields{
				"image": d.Index,
				"page":  d.Page,
				"bytes": len(img.Data),
				"max":   a.maxImageSize,
			}).Warn("image exceeds size limit, using placeholder")
			continue
		}

		g.Go(func() error {
			return a.describe(gctx, d, img.Data)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return descs, nil
}

func (a *Annotator) oversized(img *types.ImageData) bool {
	return a.maxImageSize > 0 && int64(len(img.Data)) > a.maxImageSize
}

// describe fills d from the model under the retry policy. It returns an
// error only when ctx is done.
func (a *Annotator) describe(ctx context.Context, d *types.ImageDescriptor, data []byte) error {
	prompt, err := a.prompts.render(d.Class, promptData{Page: d.Page, Caption: d.Caption})
	if err != nil {
		a.logger.WithError(err).WithField("image", d.Index).Error("rendering prompt, using placeholder")
		d.Description = a.ai.FallbackDescription
		d.Fallback = true
		return nil
	}
	req := Request{System: a.prompts.system, Prompt: prompt, Image: data}

	log := a.logger.WithFields(logrus.Fields{
		"image": d.Index,
		"page":  d.Page,
		"class": d.Class,
	})

	attempt := 0
	policy := retry.Policy[string]{
		MaxAttempts: a.ai.MaxAttempts,
		Fallback:    a.ai.FallbackDescription,
		OnRetry: func(n int, err error, wait time.Duration) {
			log.WithFields(logrus.Fields{
				"attempt":      n,
				"max_attempts": a.ai.MaxAttempts,
				"retry_in":     wait,
			}).WithError(err).Warn("image analysis attempt failed")
		},
		OnExhausted: func(n int, err error) {
			log.WithField("attempts", n).WithError(err).Error("image analysis failed, using placeholder")
		},
	}

	text, err := policy.Run(ctx, func(ctx context.Context) (string, error) {
		attempt++
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}
		callCtx := ctx
		if a.ai.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, a.ai.Timeout)
			defer cancel()
		}
		out, err := a.backend.Describe(callCtx, req)
		if err != nil {
			return "", &types.AnnotationError{Index: d.Index, Attempt: attempt, Err: err}
		}
		return out, nil
	})

	switch {
	case err == nil:
		d.Description = text
		d.Analyzed = true
		if d.Class == types.ClassDataRich {
			d.Structured = parseStructured(text)
		}
		return nil
	case errors.Is(err, retry.ErrExhausted):
		d.Description = text
		d.Fallback = true
		return nil
	default:
		return err
	}
}
