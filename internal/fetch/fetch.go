// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads remote PDFs so they can be converted like local
// files. Inputs may be http(s) URLs, arXiv identifiers or DOIs.
package fetch

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/pdfmd/internal/httputil"
	"github.com/pdiddy/pdfmd/internal/validate"
	"github.com/pdiddy/pdfmd/pkg/types"
)

// Kind classifies a remote input.
type Kind int

const (
	KindNone Kind = iota
	KindURL
	KindArxiv
	KindDOI
)

func (k Kind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindArxiv:
		return "arxiv"
	case KindDOI:
		return "doi"
	default:
		return "none"
	}
}

// Resolver endpoints. Tests point them at httptest servers.
var (
	arxivPDFBase = "https://arxiv.org/pdf/"
	doiBase      = "https://doi.org/"
)

var (
	arxivPattern = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)$`)
	doiPattern   = regexp.MustCompile(`^(?:doi:)?(10\.\d{4,9}/\S+)$`)
)

// Source is a resolved remote input.
type Source struct {
	Kind Kind
	URL  string

	// Stem is a filesystem-safe name for the download, without extension.
	Stem string
}

// Resolve reports whether input names a remote PDF and, if so, where to
// fetch it. Anything else is treated as a local path by the caller.
func Resolve(input string) (Source, bool) {
	input = strings.TrimSpace(input)

	if m := arxivPattern.FindStringSubmatch(input); m != nil {
		return Source{Kind: KindArxiv, URL: arxivPDFBase + m[1], Stem: m[1]}, true
	}
	if m := doiPattern.FindStringSubmatch(input); m != nil {
		stem := strings.NewReplacer("/", "-", ":", "-").Replace(m[1])
		return Source{Kind: KindDOI, URL: doiBase + m[1], Stem: stem}, true
	}
	u, err := url.Parse(input)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Source{}, false
	}
	stem := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
	if stem == "" || stem == "." || stem == "/" {
		h := sha256.Sum256([]byte(input))
		stem = fmt.Sprintf("url-%x", h[:8])
	}
	return Source{Kind: KindURL, URL: input, Stem: stem}, true
}

// Client downloads PDFs.
type Client struct {
	http      *http.Client
	userAgent string
	maxBytes  int64
}

// New returns a Client. A nil client gets a default with a 2 minute
// timeout; maxBytes of zero disables the size limit.
func New(client *http.Client, userAgent string, maxBytes int64) *Client {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{http: client, userAgent: userAgent, maxBytes: maxBytes}
}

// Download fetches src into dir as <stem>.pdf through a temp file and
// returns the final path. The body must be a PDF within the size limit.
func (c *Client) Download(ctx context.Context, src Source, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", src.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, src.URL)
	}
	if c.maxBytes > 0 && resp.ContentLength > c.maxBytes {
		return "", &types.ValidationError{Path: src.URL, Err: types.ErrFileTooLarge}
	}

	tmp, err := os.CreateTemp(dir, ".fetch-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	body := io.Reader(resp.Body)
	if c.maxBytes > 0 {
		body = io.LimitReader(resp.Body, c.maxBytes+1)
	}
	n, copyErr := io.Copy(tmp, body)
	closeErr := tmp.Close()
	switch {
	case copyErr != nil:
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", copyErr)
	case closeErr != nil:
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	case c.maxBytes > 0 && n > c.maxBytes:
		os.Remove(tmpPath)
		return "", &types.ValidationError{Path: src.URL, Err: types.ErrFileTooLarge}
	}

	if err := validate.File(tmpPath, c.maxBytes); err != nil {
		os.Remove(tmpPath)
		return "", &types.ValidationError{Path: src.URL, Err: unwrapValidation(err)}
	}

	dest := filepath.Join(dir, src.Stem+".pdf")
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return dest, nil
}

func unwrapValidation(err error) error {
	var ve *types.ValidationError
	if errors.As(err, &ve) {
		return ve.Err
	}
	return err
}
