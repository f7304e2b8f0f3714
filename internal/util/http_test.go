package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			_, _ = w.Write([]byte("payload"))
			return
		}
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	body, err := GetBytes(context.Background(), srv.Client(), srv.URL+"/ok", 0)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))

	_, err = GetBytes(context.Background(), nil, srv.URL+"/teapot", 0)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTeapot, se.StatusCode)
}

func TestGetBytesLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/chunked" {
			_, _ = w.Write([]byte("pay"))
			w.(http.Flusher).Flush()
		}
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	body, err := GetBytes(context.Background(), srv.Client(), srv.URL+"/ok", 7)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))

	for _, path := range []string{"/ok", "/chunked"} {
		_, err = GetBytes(context.Background(), srv.Client(), srv.URL+path, 6)
		var se *SizeError
		require.ErrorAs(t, err, &se, path)
		assert.Equal(t, int64(6), se.Limit)
	}
}

func TestEnsureParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "grid.png")
	require.NoError(t, EnsureParentDir(path))

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.NoError(t, EnsureParentDir("grid.png"))
}
