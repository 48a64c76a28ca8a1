// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfmd/pkg/types"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestFile(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		max     int64
		wantErr error
	}{
		{
			name: "valid pdf",
			setup: func(t *testing.T) string {
				return writeFile(t, t.TempDir(), "ok.pdf", []byte("%PDF-1.7\n%stuff"))
			},
			max: 1024,
		},
		{
			name: "missing file",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope.pdf")
			},
			max:     1024,
			wantErr: types.ErrFileNotFound,
		},
		{
			name: "empty file",
			setup: func(t *testing.T) string {
				return writeFile(t, t.TempDir(), "empty.pdf", nil)
			},
			max:     1024,
			wantErr: types.ErrEmptyFile,
		},
		{
			name: "oversized file",
			setup: func(t *testing.T) string {
				return writeFile(t, t.TempDir(), "big.pdf", append([]byte("%PDF-1.4\n"), make([]byte, 2048)...))
			},
			max:     1024,
			wantErr: types.ErrFileTooLarge,
		},
		{
			name: "wrong magic bytes",
			setup: func(t *testing.T) string {
				return writeFile(t, t.TempDir(), "fake.pdf", []byte("PK\x03\x04 zip archive"))
			},
			max:     1024,
			wantErr: types.ErrNotPDF,
		},
		{
			name: "shorter than header",
			setup: func(t *testing.T) string {
				return writeFile(t, t.TempDir(), "short.pdf", []byte("%PD"))
			},
			max:     1024,
			wantErr: types.ErrNotPDF,
		},
		{
			name: "zero max disables size check",
			setup: func(t *testing.T) string {
				return writeFile(t, t.TempDir(), "big.pdf", append([]byte("%PDF-1.4\n"), make([]byte, 4096)...))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := File(tt.setup(t), tt.max)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var vErr *types.ValidationError
			require.True(t, errors.As(err, &vErr), "want ValidationError, got %T", err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFileSparseOversized(t *testing.T) {
	// A 150MB sparse file checked against a 100MB limit fails on size
	// without reading content.
	path := filepath.Join(t.TempDir(), "huge.pdf")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = f.WriteString("%PDF-1.7\n")
	require.NoError(t, err)
	require.NoError(t, f.Truncate(150*1024*1024))
	require.NoError(t, f.Close())

	err = File(path, 100*1024*1024)
	assert.ErrorIs(t, err, types.ErrFileTooLarge)
}

func TestBytes(t *testing.T) {
	assert.NoError(t, Bytes([]byte("%PDF-1.5 body"), 100))
	assert.ErrorIs(t, Bytes(nil, 100), types.ErrEmptyFile)
	assert.ErrorIs(t, Bytes([]byte("%PDF-1.5 body"), 4), types.ErrFileTooLarge)
	assert.ErrorIs(t, Bytes([]byte("<html>"), 100), types.ErrNotPDF)
}
