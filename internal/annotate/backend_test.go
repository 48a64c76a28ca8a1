// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfmd/pkg/types"
)

func TestClaudeBackendDescribe(t *testing.T) {
	var got claudeRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"content":[{"type":"text","text":"  A diagram of a pipeline.  "}]}`)
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	b := &ClaudeBackend{APIKey: "test-key", Model: "claude-test", Client: ts.Client()}
	text, err := b.Describe(context.Background(), Request{
		System:   "sys",
		Prompt:   "describe",
		Image:    []byte{0x89, 'P', 'N', 'G'},
		MIMEType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, "A diagram of a pipeline.", text)

	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, 1500, got.MaxTokens)
	assert.Equal(t, "sys", got.System)
	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	assert.Equal(t, "image", got.Messages[0].Content[0].Type)
	assert.Equal(t, "image/png", got.Messages[0].Content[0].Source.MediaType)
	assert.Equal(t, "describe", got.Messages[0].Content[1].Text)
}

func TestClaudeBackendErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "overloaded")
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	b := &ClaudeBackend{APIKey: "k", Model: "m", Client: ts.Client()}
	_, err := b.Describe(context.Background(), Request{Prompt: "p", Image: []byte{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestOpenAIBackendDescribe(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-test",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "A red logo."}}]
		}`)
	}))
	defer ts.Close()

	b := NewOpenAIBackend(types.AIConfig{APIKey: "sk-test", Endpoint: ts.URL, Model: "gpt-test", MaxTokens: 100})
	text, err := b.Describe(context.Background(), Request{System: "sys", Prompt: "describe", Image: []byte("img"), MIMEType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, "A red logo.", text)

	assert.Equal(t, "gpt-test", body["model"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	raw, _ := json.Marshal(msgs[1])
	assert.Contains(t, string(raw), "data:image/jpeg;base64,")
}

func TestOpenAIBackendNoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer ts.Close()

	b := NewOpenAIBackend(types.AIConfig{APIKey: "k", Endpoint: ts.URL, Model: "m"})
	_, err := b.Describe(context.Background(), Request{Prompt: "p", Image: []byte("i")})
	assert.Error(t, err)
}
