package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openconf/schedtrack/pkg/logging"
)

const document = `<schedule><version>v1</version></schedule>`

func TestFetch_DownloadsAndCaches(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Empty(t, r.Header.Get("If-None-Match"), "first request must be unconditional")
		w.Header().Set("ETag", `"abc123"`)
		_, _ = w.Write([]byte(document))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), logging.NewNopLogger())
	result, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, document, string(result.Body))
	assert.Equal(t, `"abc123"`, result.ETag)
	assert.False(t, result.NotModified)
	assert.Equal(t, 1, requests)
}

func TestFetch_ConditionalRequestServes304FromCache(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.Header.Get("If-None-Match") == `"abc123"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"abc123"`)
		w.Header().Set("Last-Modified", "Sun, 27 Dec 2026 10:00:00 GMT")
		_, _ = w.Write([]byte(document))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), logging.NewNopLogger())

	first, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.False(t, first.NotModified)

	second, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, second.NotModified)
	assert.Equal(t, document, string(second.Body), "304 serves the cached body")
	assert.Equal(t, `"abc123"`, second.ETag)
	assert.Equal(t, 2, requests)
}

func TestFetch_ChangedBodyReplacesCache(t *testing.T) {
	etag := `"v1"`
	body := `<schedule><version>v1</version></schedule>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), logging.NewNopLogger())

	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	etag = `"v2"`
	body = `<schedule><version>v2</version></schedule>`

	updated, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, updated.NotModified)
	assert.Equal(t, body, string(updated.Body))
	assert.Equal(t, `"v2"`, updated.ETag)

	cached, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, cached.NotModified)
	assert.Equal(t, body, string(cached.Body))
}

func TestFetch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), logging.NewNopLogger())
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}

func TestFetch_EmptyURL(t *testing.T) {
	f := NewFetcher(t.TempDir(), logging.NewNopLogger())
	_, err := f.Fetch(context.Background(), "")
	assert.Error(t, err)
}

func TestFetch_MissingCacheDir(t *testing.T) {
	f := NewFetcher("", logging.NewNopLogger())
	_, err := f.Fetch(context.Background(), "http://example.com/schedule.xml")
	assert.Error(t, err)
}
