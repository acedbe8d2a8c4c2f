package extract_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vindexhq/vindex/pkg/extract"
)

func TestAnthropicBackend_Name(t *testing.T) {
	t.Parallel()
	b := extract.NewAnthropicBackend()
	assert.Equal(t, "anthropic", b.Name())
}

func TestAnthropicBackend_Generate(t *testing.T) {
	t.Parallel()

	successResponse := `{
		"content": [{"type": "text", "text": "1969"}],
		"model": "claude-haiku-4-20250514",
		"usage": {"input_tokens": 10, "output_tokens": 1}
	}`

	tests := []struct {
		name       string
		apiKey     string
		handler    http.HandlerFunc
		req        extract.GenerateRequest
		wantErr    bool
		wantErrMsg string
		wantResp   string
		wantUsage  int
	}{
		{
			name:   "successful generation",
			apiKey: "test-key",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
				assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

				var body map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				msgs := body["messages"].([]any)
				require.Len(t, msgs, 1)
				blocks := msgs[0].(map[string]any)["content"].([]any)
				require.Len(t, blocks, 1)
				assert.Equal(t, "text", blocks[0].(map[string]any)["type"])

				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(successResponse))
			},
			req: extract.GenerateRequest{
				Prompt:      "extract attributes",
				Temperature: 0.1,
				MaxTokens:   50,
			},
			wantResp:  "1969",
			wantUsage: 11,
		},
		{
			name:   "photos become image blocks before the prompt",
			apiKey: "test-key",
			handler: func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				blocks := body["messages"].([]any)[0].(map[string]any)["content"].([]any)
				require.Len(t, blocks, 2)

				img := blocks[0].(map[string]any)
				assert.Equal(t, "image", img["type"])
				src := img["source"].(map[string]any)
				assert.Equal(t, "base64", src["type"])
				assert.Equal(t, "image/jpeg", src["media_type"])

				assert.Equal(t, "text", blocks[1].(map[string]any)["type"])

				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(successResponse))
			},
			req: extract.GenerateRequest{
				Prompt: "describe the vehicle",
				Images: []extract.ImageAttachment{
					{MediaType: "image/jpeg", Data: []byte("photo")},
				},
			},
			wantResp:  "1969",
			wantUsage: 11,
		},
		{
			name:   "multi-block text joins",
			apiKey: "test-key",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{
					"content": [
						{"type": "text", "text": "19"},
						{"type": "text", "text": "69"}
					],
					"model": "claude-haiku-4-20250514",
					"usage": {"input_tokens": 10, "output_tokens": 2}
				}`))
			},
			req:       extract.GenerateRequest{Prompt: "extract attributes"},
			wantResp:  "1969",
			wantUsage: 12,
		},
		{
			name:       "missing API key",
			apiKey:     "",
			handler:    func(_ http.ResponseWriter, _ *http.Request) {},
			req:        extract.GenerateRequest{Prompt: "test"},
			wantErr:    true,
			wantErrMsg: "ANTHROPIC_API_KEY",
		},
		{
			name:   "rate limited 429",
			apiKey: "test-key",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{
					"error": {"type": "rate_limit_error", "message": "rate limit exceeded"}
				}`))
			},
			req:        extract.GenerateRequest{Prompt: "test"},
			wantErr:    true,
			wantErrMsg: "rate_limit_error",
		},
		{
			name:   "server error 500",
			apiKey: "test-key",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{
					"error": {"type": "api_error", "message": "internal server error"}
				}`))
			},
			req:        extract.GenerateRequest{Prompt: "test"},
			wantErr:    true,
			wantErrMsg: "api_error",
		},
		{
			name:   "invalid JSON response",
			apiKey: "test-key",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`not json`))
			},
			req:        extract.GenerateRequest{Prompt: "test"},
			wantErr:    true,
			wantErrMsg: "parsing anthropic",
		},
		{
			name:   "empty content array",
			apiKey: "test-key",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"content":[],"model":"test","usage":{}}`))
			},
			req:        extract.GenerateRequest{Prompt: "test"},
			wantErr:    true,
			wantErrMsg: "empty response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			backend := extract.NewAnthropicBackend(
				extract.WithAnthropicEndpoint(srv.URL),
				extract.WithAnthropicHTTPClient(srv.Client()),
				extract.WithAnthropicAPIKey(tt.apiKey),
			)

			resp, err := backend.Generate(context.Background(), tt.req)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantResp, resp.Content)
			if tt.wantUsage > 0 {
				assert.Equal(t, tt.wantUsage, resp.Usage.TotalTokens)
			}
		})
	}
}
