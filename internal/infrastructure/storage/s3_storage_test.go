package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func validConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:         true,
		Bucket:          "shop-images",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		UsePathStyle:    true,
	}
}

func TestNewS3ImageStorage_Validation(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3ImageStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket", func(t *testing.T) {
		cfg := validConfig()
		cfg.Bucket = ""
		_, err := NewS3ImageStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key", func(t *testing.T) {
		cfg := validConfig()
		cfg.AccessKeyID = ""
		_, err := NewS3ImageStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key", func(t *testing.T) {
		cfg := validConfig()
		cfg.SecretAccessKey = ""
		_, err := NewS3ImageStorage(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("valid config", func(t *testing.T) {
		storage, err := NewS3ImageStorage(validConfig())
		require.NoError(t, err)
		assert.Equal(t, "shop-images", storage.Bucket())
	})
}

func TestS3ImageStorage_PublicURL(t *testing.T) {
	t.Run("defaults to the bucket path", func(t *testing.T) {
		storage, err := NewS3ImageStorage(validConfig())
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:9000/shop-images/products/a/b.png", storage.PublicURL("products/a/b.png"))
	})

	t.Run("uses the configured CDN base", func(t *testing.T) {
		cfg := validConfig()
		cfg.PublicBaseURL = "https://cdn.example.com/"
		storage, err := NewS3ImageStorage(cfg)
		require.NoError(t, err)

		assert.Equal(t, "https://cdn.example.com/products/a/b.png", storage.PublicURL("/products/a/b.png"))
	})
}

func TestS3ImageStorage_KeyFromURL(t *testing.T) {
	cfg := validConfig()
	cfg.PublicBaseURL = "https://cdn.example.com"
	storage, err := NewS3ImageStorage(cfg)
	require.NoError(t, err)

	tests := []struct {
		url    string
		wantOK bool
		want   string
	}{
		{"https://cdn.example.com/products/a/b.png", true, "products/a/b.png"},
		{"https://cdn.example.com/products/a/b.png?v=2", true, "products/a/b.png"},
		{"https://cdn.example.com/", false, ""},
		{"https://elsewhere.example.com/products/a/b.png", false, ""},
		{"https://cdn.example.com.evil.io/products/a/b.png", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			key, ok := storage.KeyFromURL(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, key)
		})
	}

	key, ok := storage.KeyFromURL(storage.PublicURL("products/x/y.webp"))
	require.True(t, ok)
	assert.Equal(t, "products/x/y.webp", key)
}

func TestS3ImageStorage_EmptyKey(t *testing.T) {
	storage, err := NewS3ImageStorage(validConfig())
	require.NoError(t, err)
	ctx := context.Background()

	assert.Error(t, storage.Upload(ctx, "", []byte("x"), "image/png"))
	assert.Error(t, storage.DeleteObject(ctx, ""))
	_, err = storage.ObjectExists(ctx, "")
	assert.Error(t, err)
}

type recordedRequest struct {
	method      string
	path        string
	contentType string
	body        []byte
}

func TestS3ImageStorage_UploadAndDelete(t *testing.T) {
	var (
		mu       sync.Mutex
		requests []recordedRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		})
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := validConfig()
	cfg.Endpoint = server.URL
	storage, err := NewS3ImageStorage(cfg, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, storage.Upload(ctx, "products/p1/images/abc.png", []byte("png-bytes"), "image/png"))
	require.NoError(t, storage.DeleteObject(ctx, "products/p1/images/abc.png"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, requests, 2)
	assert.Equal(t, http.MethodPut, requests[0].method)
	assert.Equal(t, "/shop-images/products/p1/images/abc.png", requests[0].path)
	assert.Equal(t, "image/png", requests[0].contentType)
	assert.Contains(t, string(requests[0].body), "png-bytes")
	assert.Equal(t, http.MethodDelete, requests[1].method)
}
