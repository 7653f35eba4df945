package modeladapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/germanamz/llmrouter/pkg/model"
	"github.com/germanamz/llmrouter/pkg/modeladapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface check: AdapterFunc satisfies Adapter.
var _ modeladapter.Adapter = modeladapter.AdapterFunc(nil)

func TestAdapterFunc(t *testing.T) {
	f := modeladapter.AdapterFunc(func(_ context.Context, prompt string, cfg model.Config, _ model.Parameters) (modeladapter.Completion, error) {
		return modeladapter.Completion{Text: prompt + "@" + cfg.Name}, nil
	})

	got, err := f.Generate(context.Background(), "hi", model.Config{Name: "m"}, model.Parameters{})

	require.NoError(t, err)
	assert.Equal(t, "hi@m", got.Text)
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	a := modeladapter.New("https://api.example.com/v1/", modeladapter.Auth{}, nil)
	assert.Equal(t, "https://api.example.com/v1", a.BaseURL)
	assert.Nil(t, a.Client)
}

func TestForConfig(t *testing.T) {
	a := modeladapter.ForConfig(model.Config{APIBase: "https://ark.example.com/api/v3", APIKey: "k"}, nil)

	req, err := a.NewRequest(context.Background(), http.MethodPost, modeladapter.CompletionsPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://ark.example.com/api/v3/chat/completions", req.URL.String())
	assert.Equal(t, "Bearer k", req.Header.Get("Authorization"))
}

func TestDefaultClient_Shared(t *testing.T) {
	assert.Same(t, modeladapter.DefaultClient(), modeladapter.DefaultClient())
}

func TestNewRequest_BearerAuth(t *testing.T) {
	a := modeladapter.New("https://api.example.com", modeladapter.Auth{Key: "sk-test"}, nil)

	req, err := a.NewRequest(context.Background(), http.MethodGet, "/v1/chat", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v1/chat", req.URL.String())
	assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
}

func TestNewRequest_CustomHeader(t *testing.T) {
	auth := modeladapter.Auth{Key: "sk-test", Header: "x-api-key"}
	a := modeladapter.New("https://api.example.com", auth, nil)

	req, err := a.NewRequest(context.Background(), http.MethodGet, "/v1/chat", nil)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", req.Header.Get("x-api-key"))
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestNewRequest_CustomHeaderWithScheme(t *testing.T) {
	auth := modeladapter.Auth{Key: "sk-test", Header: "x-api-key", Scheme: "Token"}
	a := modeladapter.New("https://api.example.com", auth, nil)

	req, err := a.NewRequest(context.Background(), http.MethodGet, "/v1/chat", nil)
	require.NoError(t, err)
	assert.Equal(t, "Token sk-test", req.Header.Get("x-api-key"))
}

func TestNewRequest_NoAuth(t *testing.T) {
	a := modeladapter.New("https://api.example.com", modeladapter.Auth{}, nil)

	req, err := a.NewRequest(context.Background(), http.MethodGet, "/v1/chat", nil)
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Authorization"))
}

func TestNewRequest_ExtraHeaders(t *testing.T) {
	a := modeladapter.New("https://api.example.com", modeladapter.Auth{}, nil)
	a.Headers = map[string]string{"x-custom": "value"}

	req, err := a.NewRequest(context.Background(), http.MethodGet, "/v1/chat", nil)
	require.NoError(t, err)
	assert.Equal(t, "value", req.Header.Get("x-custom"))
}

func TestDo_Passthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{}, srv.Client())

	req, err := a.NewRequest(context.Background(), http.MethodGet, "/ping", nil)
	require.NoError(t, err)

	resp, err := a.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestPostJSON_Success(t *testing.T) {
	type reqBody struct {
		Model string `json:"model"`
	}
	type respBody struct {
		ID string `json:"id"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got reqBody
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "doubao-pro", got.Model)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(respBody{ID: "chatcmpl-123"})
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{Key: "sk-test"}, srv.Client())

	var dest respBody
	err := a.PostJSON(context.Background(), "/chat/completions", reqBody{Model: "doubao-pro"}, &dest)
	require.NoError(t, err)
	assert.Equal(t, "chatcmpl-123", dest.ID)
}

func TestPostJSON_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}` + "\n"))
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{}, srv.Client())

	var dest map[string]string
	err := a.PostJSON(context.Background(), "/chat/completions", map[string]string{"model": "m"}, &dest)

	var e *modeladapter.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, modeladapter.KindProviderRejected, e.Kind)
	assert.Equal(t, http.StatusUnauthorized, e.Status)
	assert.Equal(t, `{"error":"invalid api key"}`, e.Body)
	assert.ErrorContains(t, err, "HTTP 401")
}

func TestPostJSON_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{}, srv.Client())

	var dest map[string]any
	err := a.PostJSON(context.Background(), "/chat/completions", map[string]string{}, &dest)
	assert.True(t, modeladapter.IsKind(err, modeladapter.KindMalformedResponse))
}

func TestPostJSON_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	a := modeladapter.New(url, modeladapter.Auth{}, nil)

	err := a.PostJSON(context.Background(), "/chat/completions", map[string]string{}, nil)
	assert.True(t, modeladapter.IsKind(err, modeladapter.KindTransport))
	assert.ErrorContains(t, err, "do request")
}

func TestPostJSON_MarshalError(t *testing.T) {
	a := modeladapter.New("https://api.example.com", modeladapter.Auth{}, nil)

	err := a.PostJSON(context.Background(), "/chat/completions", make(chan int), nil)
	assert.ErrorContains(t, err, "marshal payload")
	assert.True(t, modeladapter.IsKind(err, modeladapter.KindInternal))
}

func TestPostJSON_NilDest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	a := modeladapter.New(srv.URL, modeladapter.Auth{}, srv.Client())

	err := a.PostJSON(context.Background(), "/chat/completions", map[string]string{"model": "m"}, nil)
	assert.NoError(t, err)
}

// --- Error taxonomy ---

func TestErrorf_WrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	err := modeladapter.Errorf(modeladapter.KindTransport, "do request: %w", cause)

	assert.Equal(t, "transport: do request: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestRejected(t *testing.T) {
	err := modeladapter.Rejected(500, "server error")

	assert.Equal(t, "provider_rejected: provider returned HTTP 500: server error", err.Error())
	assert.Equal(t, 500, err.Status)
	assert.Equal(t, "server error", err.Body)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, modeladapter.Kind(""), modeladapter.KindOf(nil))
	assert.Equal(t, modeladapter.KindInternal, modeladapter.KindOf(errors.New("plain")))

	wrapped := errors.Join(errors.New("ctx"), modeladapter.Errorf(modeladapter.KindModelNotFound, "x"))
	assert.Equal(t, modeladapter.KindModelNotFound, modeladapter.KindOf(wrapped))
	assert.True(t, modeladapter.IsKind(wrapped, modeladapter.KindModelNotFound))
	assert.False(t, modeladapter.IsKind(nil, modeladapter.KindInternal))
}
