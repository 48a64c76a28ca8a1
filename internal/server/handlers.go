// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/pdfmd/pkg/types"
)

const (
	// multipartMemory is the part of an upload kept in memory before
	// spilling to disk.
	multipartMemory = 32 << 20

	// formOverhead allows for multipart framing and the other form fields.
	formOverhead = 1 << 20
)

type statusResponse struct {
	Message        string `json:"message,omitempty"`
	Service        string `json:"service,omitempty"`
	Version        string `json:"version,omitempty"`
	Status         string `json:"status"`
	Authentication string `json:"authentication"`
}

type metadata struct {
	PagesProcessed  int    `json:"pages_processed"`
	ImagesProcessed int    `json:"images_processed"`
	TablesProcessed int    `json:"tables_processed"`
	TextLength      int    `json:"text_length"`
	AzureAnalysis   bool   `json:"azure_analysis"`
	Filename        string `json:"filename"`
}

type parseResponse struct {
	Success  bool     `json:"success"`
	Markdown string   `json:"markdown"`
	Metadata metadata `json:"metadata"`
}

type errorResponse struct {
	Success *bool  `json:"success,omitempty"`
	Detail  string `json:"detail"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Message:        "PDF Parser API is running",
		Version:        s.version,
		Status:         "healthy",
		Authentication: "required",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Service:        ServiceName,
		Status:         "healthy",
		Authentication: "API key required for /parse-pdf endpoints",
	})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	res, filename, ok := s.convertUpload(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, parseResponse{
		Success:  true,
		Markdown: res.Markdown,
		Metadata: metadata{
			PagesProcessed:  res.PagesProcessed,
			ImagesProcessed: res.ImagesProcessed,
			TablesProcessed: res.TablesProcessed,
			TextLength:      res.TextLength,
			AzureAnalysis:   res.AIAnalysis,
			Filename:        filename,
		},
	})
}

func (s *Server) handleParseFile(w http.ResponseWriter, r *http.Request) {
	res, filename, ok := s.convertUpload(w, r)
	if !ok {
		return
	}
	name := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".md"
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, res.Markdown)
}

// convertUpload reads the "file" part and the option parameters, runs the
// conversion under the request timeout, and writes the error response
// itself when it returns ok false.
func (s *Server) convertUpload(w http.ResponseWriter, r *http.Request) (types.ConversionResult, string, bool) {
	log := s.logger.WithField("request_id", requestID(r.Context()))

	if s.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes+formOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "File exceeds maximum size")
			return types.ConversionResult{}, "", false
		}
		writeError(w, http.StatusBadRequest, "Expected a multipart form with a file field")
		return types.ConversionResult{}, "", false
	}
	defer r.MultipartForm.RemoveAll()

	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field")
		return types.ConversionResult{}, "", false
	}
	defer f.Close()

	filename := filepath.Base(hdr.Filename)
	if hdr.Filename == "" || !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "Invalid file type. Only PDF files are supported.")
		return types.ConversionResult{}, "", false
	}

	opts, err := s.options(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return types.ConversionResult{}, "", false
	}

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read uploaded file")
		return types.ConversionResult{}, "", false
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "Empty file received")
		return types.ConversionResult{}, "", false
	}

	log.WithFields(logrus.Fields{"file": filename, "bytes": len(data)}).Info("processing upload")

	ctx := r.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	res := s.conv.ConvertBytes(ctx, data, filename, opts)
	if !res.Success {
		status := http.StatusUnprocessableEntity
		if errors.Is(res.Err, types.ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		log.WithField("file", filename).WithField("error", res.Error).Warn("conversion failed")
		failed := false
		writeJSON(w, status, errorResponse{Success: &failed, Detail: "PDF processing failed: " + res.Error})
		return res, filename, false
	}
	return res, filename, true
}

// options overlays the request's parameters on a copy of the defaults.
// Query string and form fields are both accepted.
func (s *Server) options(r *http.Request) (types.OutputOptions, error) {
	opts := s.defaults
	params := []struct {
		name string
		dst  *bool
	}{
		{"azure_analysis", &opts.AIAnalysis},
		{"images_inline", &opts.ImagesInline},
		{"include_page_numbers", &opts.IncludePageNumbers},
	}
	for _, p := range params {
		raw := r.FormValue(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, fmt.Errorf("%s: expected a boolean, got %q", p.name, raw)
		}
		*p.dst = v
	}
	return opts, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
