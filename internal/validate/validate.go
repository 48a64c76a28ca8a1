// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate gates input files before any parsing happens.
package validate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/pdfmd/pkg/types"
)

// pdfMagic is the header every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// File checks that path exists, is a regular file no larger than maxBytes,
// and starts with the PDF header. A maxBytes of zero disables the size check.
// Every failure is a *types.ValidationError.
func File(path string, maxBytes int64) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &types.ValidationError{Path: path, Err: types.ErrFileNotFound}
		}
		return &types.ValidationError{Path: path, Err: err}
	}
	if info.IsDir() {
		return &types.ValidationError{Path: path, Err: fmt.Errorf("is a directory")}
	}
	if info.Size() == 0 {
		return &types.ValidationError{Path: path, Err: types.ErrEmptyFile}
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return &types.ValidationError{
			Path: path,
			Err:  fmt.Errorf("%w: %d bytes > %d", types.ErrFileTooLarge, info.Size(), maxBytes),
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return &types.ValidationError{Path: path, Err: err}
	}
	defer f.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return &types.ValidationError{Path: path, Err: types.ErrNotPDF}
	}
	return nil
}

// Bytes applies the same checks to an in-memory upload.
func Bytes(data []byte, maxBytes int64) error {
	if len(data) == 0 {
		return &types.ValidationError{Err: types.ErrEmptyFile}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return &types.ValidationError{
			Err: fmt.Errorf("%w: %d bytes > %d", types.ErrFileTooLarge, len(data), maxBytes),
		}
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return &types.ValidationError{Err: types.ErrNotPDF}
	}
	return nil
}
