// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loader

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/pdfmd/pkg/types"
)

// extractImages returns the encoded image streams of path keyed by 1-based
// page number. Images already collected are returned alongside any error.
func extractImages(ctx context.Context, path string) (out map[int][]types.ImageData, err error) {
	out = make(map[int][]types.ImageData)

	f, err := os.Open(path)
	if err != nil {
		return out, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	// pdfcpu panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extracting images: %v", r)
		}
	}()

	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed

	digest := func(img pdfmodel.Image, _ bool, _ int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if img.Reader == nil {
			return nil
		}
		data, err := io.ReadAll(img)
		if err != nil {
			return fmt.Errorf("reading image %s on page %d: %w", img.Name, img.PageNr, err)
		}
		out[img.PageNr] = append(out[img.PageNr], types.ImageData{
			Name:   img.Name,
			Format: img.FileType,
			Width:  img.Width,
			Height: img.Height,
			Data:   data,
		})
		return nil
	}

	if err := api.ExtractImages(f, nil, digest, conf); err != nil {
		return out, fmt.Errorf("extracting images: %w", err)
	}
	return out, nil
}
