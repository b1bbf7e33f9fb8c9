// Package fetch downloads the schedule document over HTTP with
// conditional requests. The ETag and Last-Modified validators from the
// previous download are kept in a small disk cache next to the body, so
// an unchanged schedule costs one 304 round trip and no reparse is
// forced on the caller.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/openconf/schedtrack/pkg/logging"
)

// Result is the outcome of fetching the schedule document.
type Result struct {
	// Body is the document text, freshly downloaded or from cache.
	Body []byte
	// ETag is the freshness token for this body, to be attached to the
	// parsed metadata verbatim.
	ETag string
	// NotModified is true when the server answered 304 and Body was
	// served from the cache.
	NotModified bool
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads schedule documents with HTTP validator caching.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	logger   logging.Logger
}

// NewFetcher creates a Fetcher caching under cacheDir.
func NewFetcher(cacheDir string, logger logging.Logger) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: 30 * time.Second},
		cacheDir: cacheDir,
		logger:   logger.With(logging.F("component", "fetcher")),
	}
}

// Fetch downloads the document at url, sending If-None-Match and
// If-Modified-Since from the cached validators. On 304 the cached body
// is returned with its stored ETag.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	if url == "" {
		return nil, errors.New("schedule URL is empty")
	}

	dir, err := f.cachePath(url)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	meta, _ := f.loadMeta(dir)
	cachedBody, _ := os.ReadFile(filepath.Join(dir, "body.xml"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if meta.ETag != "" && len(cachedBody) > 0 {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" && len(cachedBody) > 0 {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching schedule: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading schedule body: %w", err)
		}
		newMeta := cacheMeta{
			URL:          url,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := f.saveCache(dir, newMeta, body); err != nil {
			f.logger.Warn("Could not update fetch cache", logging.Err(err))
		}
		f.logger.Debug("Schedule downloaded",
			logging.F("bytes", len(body)),
			logging.F("etag", newMeta.ETag))
		return &Result{Body: body, ETag: newMeta.ETag}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, errors.New("server answered 304 but no cached body exists")
		}
		f.logger.Debug("Schedule not modified", logging.F("etag", meta.ETag))
		return &Result{Body: cachedBody, ETag: meta.ETag, NotModified: true}, nil

	default:
		return nil, fmt.Errorf("fetching schedule: unexpected status %s", resp.Status)
	}
}

func (f *Fetcher) cachePath(url string) (string, error) {
	if f.cacheDir == "" {
		return "", errors.New("cache directory is not configured")
	}
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8])), nil
}

func (f *Fetcher) loadMeta(dir string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

func (f *Fetcher) saveCache(dir string, meta cacheMeta, body []byte) error {
	// Body first, so the metadata never points at a missing body.
	if err := os.WriteFile(filepath.Join(dir, "body.xml"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}
