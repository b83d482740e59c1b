package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// modelServer emulates the subset of the Ollama API the client uses.
func modelServer(t *testing.T, response string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			var req generateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.NotEmpty(t, req.Model)
			assert.False(t, req.Stream)

			json.NewEncoder(w).Encode(generateResponse{
				Response:  response,
				EvalCount: 42,
			})
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"llama3:latest"},{"name":"mistral:7b"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func newTestClient(url string) *Client {
	return NewClient(Config{BaseURL: url, Model: "llama3:latest"}, zap.NewNop())
}

func TestAnalyze_StructuredResponse(t *testing.T) {
	structured := `{
		"forms": [{"id": "login", "action": "/login", "method": "POST", "fields": [
			{"name": "username", "type": "text", "required": true},
			{"name": "password", "type": "password", "required": true}
		]}],
		"buttons": [{"id": "submit", "text": "Sign in"}],
		"links": [{"href": "/forgot", "text": "Forgot password"}],
		"navigation": [{"menu_item": "Home", "url": "/"}]
	}`
	srv := modelServer(t, structured)
	defer srv.Close()

	client := newTestClient(srv.URL)
	analysis, err := client.Analyze(context.Background(), "<html></html>", "https://example.com", "")
	require.NoError(t, err)

	assert.False(t, analysis.HTMLAnalysis.IsFallback())
	require.Len(t, analysis.HTMLAnalysis.Forms, 1)
	assert.Equal(t, "login", analysis.HTMLAnalysis.Forms[0].ID)
	assert.Len(t, analysis.HTMLAnalysis.Forms[0].Fields, 2)
	assert.Equal(t, 84, analysis.TokensUsed) // two calls, 42 tokens each
	assert.NotEmpty(t, analysis.BDDScenarios)
	assert.Positive(t, analysis.ResponseTime)
}

func TestAnalyze_FallbackOnUnparsableResponse(t *testing.T) {
	srv := modelServer(t, "The page contains a login form and two links, but I cannot produce JSON.")
	defer srv.Close()

	client := newTestClient(srv.URL)
	analysis, err := client.Analyze(context.Background(), "<html></html>", "https://example.com", "")
	require.NoError(t, err)

	assert.True(t, analysis.HTMLAnalysis.IsFallback())
	assert.Contains(t, analysis.HTMLAnalysis.RawResponse, "login form")
	assert.Empty(t, analysis.HTMLAnalysis.Forms)
	assert.Empty(t, analysis.HTMLAnalysis.Links)
	assert.Empty(t, analysis.HTMLAnalysis.Navigation)
}

func TestAnalyze_ModelOverride(t *testing.T) {
	srv := modelServer(t, "{}")
	defer srv.Close()

	client := newTestClient(srv.URL)
	analysis, err := client.Analyze(context.Background(), "<html></html>", "https://example.com", "mistral:7b")
	require.NoError(t, err)

	assert.Equal(t, "mistral:7b", analysis.Model)
	assert.Equal(t, "mistral:7b", client.Model())
}

func TestAnalyze_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Analyze(context.Background(), "<html></html>", "https://example.com", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analyzing html")
}

func TestListModels(t *testing.T) {
	srv := modelServer(t, "")
	defer srv.Close()

	client := newTestClient(srv.URL)
	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3:latest", "mistral:7b"}, models)
}

func TestListModels_Unavailable(t *testing.T) {
	srv := modelServer(t, "")
	srv.Close() // connection refused

	client := newTestClient(srv.URL)
	_, err := client.ListModels(context.Background())
	assert.Error(t, err)
}

func TestSetModel_EmptyIgnored(t *testing.T) {
	client := newTestClient("http://localhost:11434")
	client.SetModel("")
	assert.Equal(t, "llama3:latest", client.Model())
}

func TestGetMetrics(t *testing.T) {
	srv := modelServer(t, "{}")
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Analyze(context.Background(), "<html></html>", "https://example.com", "")
	require.NoError(t, err)

	m := client.GetMetrics()
	assert.EqualValues(t, 2, m.TotalRequests)
	assert.EqualValues(t, 2, m.SuccessRequests)
	assert.EqualValues(t, 84, m.TotalTokens)
}

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		fallback bool
	}{
		{
			name:     "bare json",
			text:     `{"forms":[],"buttons":[{"id":"b1","text":"Go"}],"links":[],"navigation":[]}`,
			fallback: false,
		},
		{
			name: "json in code block",
			text: "Here is the analysis:\n```json\n{\"forms\":[],\"buttons\":[],\"links\":[{\"href\":\"/a\",\"text\":\"A\"}],\"navigation\":[]}\n```\nDone.",
			fallback: false,
		},
		{
			name:     "json surrounded by prose",
			text:     `Sure! {"forms":[],"buttons":[],"links":[],"navigation":[{"menu_item":"Docs","url":"/docs"}]} Hope that helps.`,
			fallback: false,
		},
		{
			name:     "plain text",
			text:     "I found a form and three buttons on this page.",
			fallback: true,
		},
		{
			name:     "truncated json",
			text:     `{"forms":[{"id":"x"`,
			fallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := ParseAnalysis(tt.text)
			assert.Equal(t, tt.fallback, analysis.IsFallback())
			if tt.fallback {
				assert.Equal(t, tt.text, analysis.RawResponse)
				assert.NotNil(t, analysis.Forms)
				assert.NotNil(t, analysis.Buttons)
				assert.NotNil(t, analysis.Links)
				assert.NotNil(t, analysis.Navigation)
			}
		})
	}
}

func TestExtractJSON_NestedBraces(t *testing.T) {
	text := `prefix {"a": {"b": "value with } brace"}, "c": [1, 2]} suffix`
	got := extractJSON(text)
	assert.Equal(t, `{"a": {"b": "value with } brace"}, "c": [1, 2]}`, got)
}
