package oktajwt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

// Fetcher is the pluggable "fetch with optional cache" capability used to
// retrieve key set documents. Implementations own their caching discipline;
// the verifier treats them as opaque.
type Fetcher interface {
	// Fetch performs a GET for url and returns the response body.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches over plain HTTP with no caching. Every call is a
// network round trip.
type HTTPFetcher struct {
	// Client to use; http.DefaultClient when nil.
	Client *http.Client
}

// Fetch performs a GET for url and returns the response body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to create request for %q", url)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to fetch %q", url)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to read response body")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, errors.Errorf("unexpected status %q from %q", res.Status, url)
	}
	return body, nil
}

// CachedResponse is one stored keys endpoint response, keyed by request URL.
type CachedResponse struct {
	Body      []byte    `json:"body"`
	ETag      string    `json:"etag,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
	// MaxAge from the Cache-Control response directive; the entry is served
	// without revalidation until FetchedAt+MaxAge.
	MaxAge time.Duration `json:"max_age"`
}

func (r *CachedResponse) fresh(now time.Time) bool {
	return r.MaxAge > 0 && now.Before(r.FetchedAt.Add(r.MaxAge))
}

// CacheStore persists fetched responses for the caching fetcher. Stores own
// their locking.
type CacheStore interface {
	Get(url string) (*CachedResponse, bool)
	Set(url string, res *CachedResponse)
}

// MemoryStore is an in-process CacheStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*CachedResponse
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]*CachedResponse{}}
}

// Get returns the stored response for url.
func (s *MemoryStore) Get(url string) (*CachedResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.entries[url]
	return res, ok
}

// Set stores the response for url.
func (s *MemoryStore) Set(url string, res *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[url] = res
}

// DiskStore is a CacheStore persisted under a directory, so cached key set
// responses survive process restarts. Entries are JSON files named by the
// hash of the request URL. IO failures degrade to cache misses.
type DiskStore struct {
	dir string
	mu  sync.Mutex
}

// NewDiskStore returns a store rooted at dir, creating it when needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.WithMessagef(err, "unable to create cache dir %q", dir)
	}
	return &DiskStore{dir: dir}, nil
}

// Get returns the stored response for url.
func (s *DiskStore) Get(url string) (*CachedResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(url))
	if err != nil {
		return nil, false
	}
	var res CachedResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		logger.KV(xlog.WARNING, "reason", "corrupted_cache_entry", "url", url, "err", err.Error())
		return nil, false
	}
	return &res, true
}

// Set stores the response for url.
func (s *DiskStore) Set(url string, res *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := os.WriteFile(s.path(url), raw, 0o600); err != nil {
		logger.KV(xlog.WARNING, "reason", "cache_write_failed", "url", url, "err", err.Error())
	}
}

func (s *DiskStore) path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".json")
}

// CachingFetcher is a Fetcher that honors standard HTTP cache directives.
// A response with Cache-Control max-age is served from the store without a
// network call until it goes stale; a stale entry with an ETag is
// revalidated with If-None-Match and reused on 304.
type CachingFetcher struct {
	// Client to use; http.DefaultClient when nil.
	Client *http.Client
	// Store holds cached responses; NewMemoryStore when nil is not allowed,
	// use NewCachingFetcher.
	Store CacheStore
}

// NewCachingFetcher returns a CachingFetcher backed by an in-process store.
func NewCachingFetcher(client *http.Client) *CachingFetcher {
	return &CachingFetcher{Client: client, Store: NewMemoryStore()}
}

// Fetch returns the body for url, reusing the stored response when the
// cache directives allow it.
func (f *CachingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	now := time.Now()

	cached, ok := f.Store.Get(url)
	if ok && cached.fresh(now) {
		logger.KV(xlog.TRACE, "reason", "cache_hit", "url", url)
		return cached.Body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to create request for %q", url)
	}
	if ok && cached.ETag != "" {
		req.Header.Set("If-None-Match", cached.ETag)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, errors.WithMessagef(err, "unable to fetch %q", url)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == http.StatusNotModified && ok {
		logger.KV(xlog.TRACE, "reason", "revalidated", "url", url)
		maxAge, noStore := parseCacheControl(res.Header.Get("Cache-Control"))
		if !noStore {
			f.Store.Set(url, &CachedResponse{
				Body:      cached.Body,
				ETag:      etag(res.Header, cached.ETag),
				FetchedAt: now,
				MaxAge:    maxAge,
			})
		}
		return cached.Body, nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.WithMessage(err, "unable to read response body")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, errors.Errorf("unexpected status %q from %q", res.Status, url)
	}

	maxAge, noStore := parseCacheControl(res.Header.Get("Cache-Control"))
	if !noStore {
		f.Store.Set(url, &CachedResponse{
			Body:      body,
			ETag:      res.Header.Get("ETag"),
			FetchedAt: now,
			MaxAge:    maxAge,
		})
	}
	return body, nil
}

func etag(h http.Header, fallback string) string {
	if v := h.Get("ETag"); v != "" {
		return v
	}
	return fallback
}

// parseCacheControl extracts the directives the fetcher honors: max-age and
// no-store. no-cache is treated as max-age=0, forcing revalidation.
func parseCacheControl(value string) (maxAge time.Duration, noStore bool) {
	var noCache bool
	for _, directive := range strings.Split(value, ",") {
		directive = strings.TrimSpace(strings.ToLower(directive))
		switch {
		case directive == "no-store":
			return 0, true
		case directive == "no-cache":
			noCache = true
		case strings.HasPrefix(directive, "max-age="):
			secs, err := strconv.ParseInt(strings.TrimPrefix(directive, "max-age="), 10, 64)
			if err == nil && secs > 0 {
				maxAge = time.Duration(secs) * time.Second
			}
		}
	}
	if noCache {
		maxAge = 0
	}
	return maxAge, noStore
}
