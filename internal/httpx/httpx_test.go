package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/newthinker/finrag/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetJSON_Success(t *testing.T) {
	var gotQuery url.Values
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"price": 12.5}`))
	}))
	defer server.Close()

	c := New(time.Second)
	defer c.Close()

	var out struct {
		Price float64 `json:"price"`
	}
	err := c.GetJSON(context.Background(), server.URL, url.Values{"symbol": {"AAPL"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, 12.5, out.Price)
	assert.Equal(t, "AAPL", gotQuery.Get("symbol"))
	assert.NotEmpty(t, gotUA)
}

func TestClient_GetJSON_Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	var out map[string]any
	err := New(time.Second).GetJSON(context.Background(), server.URL, nil, &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrProviderFailed))
	assert.Contains(t, err.Error(), "403")
}

func TestClient_GetJSON_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var out map[string]any
	err := New(time.Second).GetJSON(context.Background(), server.URL, nil, &out)
	assert.True(t, errors.Is(err, core.ErrNoData))
}

func TestClient_GetJSON_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	var out map[string]any
	err := New(time.Second).GetJSON(context.Background(), server.URL, nil, &out)
	assert.True(t, errors.Is(err, core.ErrProviderFailed))
}

func TestClient_GetJSON_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var out map[string]any
	err := New(20*time.Millisecond).GetJSON(context.Background(), server.URL, nil, &out)
	assert.True(t, errors.Is(err, core.ErrProviderTimeout), "got %v", err)
}

func TestClient_GetText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("  abc123\n"))
	}))
	defer server.Close()

	text, err := New(time.Second).GetText(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc123", text)
}

func TestClient_WithCookies(t *testing.T) {
	var gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if c, err := r.Cookie("session"); err == nil {
			gotCookie = c.Value
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := New(time.Second).WithCookies()
	req, err := http.NewRequest(http.MethodGet, server.URL+"/login", nil)
	require.NoError(t, err)
	resp, err := c.Do(context.Background(), req)
	require.NoError(t, err)
	resp.Body.Close()

	var out map[string]any
	require.NoError(t, c.GetJSON(context.Background(), server.URL+"/data", nil, &out))
	assert.Equal(t, "s1", gotCookie)
}
