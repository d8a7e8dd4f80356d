package backend

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// NoCacheHeader opts a single GET request out of the response cache
const NoCacheHeader = "X-No-Cache"

// CacheResult labels what the cache did with a request
type CacheResult string

// Cache results
const (
	CacheHit        CacheResult = "hit"
	CacheMiss       CacheResult = "miss"
	CacheBypass     CacheResult = "bypass"
	CacheInvalidate CacheResult = "invalidate"
)

type cacheEntry struct {
	statusCode int
	header     http.Header
	body       []byte
}

// CacheTransport caches successful GET responses for a short TTL.
// Any other method clears the whole cache so writes are never followed by
// stale reads. Auth endpoints and requests carrying X-No-Cache are not cached.
// Expired entries are evicted in the background until Close is called.
type CacheTransport struct {
	base     http.RoundTripper
	ttl      time.Duration
	onResult func(CacheResult)

	entries   *ttlcache.Cache[string, cacheEntry]
	closeOnce sync.Once
}

// NewCacheTransport wraps base (nil means http.DefaultTransport).
// onResult, if set, is called once per request.
func NewCacheTransport(base http.RoundTripper, ttl time.Duration, onResult func(CacheResult)) *CacheTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	entries := ttlcache.New[string, cacheEntry](
		ttlcache.WithDisableTouchOnHit[string, cacheEntry](),
	)
	go entries.Start()

	return &CacheTransport{
		base:     base,
		ttl:      ttl,
		onResult: onResult,
		entries:  entries,
	}
}

// RoundTrip implements http.RoundTripper
func (t *CacheTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		t.Clear()
		t.record(CacheInvalidate)
		return t.base.RoundTrip(req)
	}

	if isAuthPath(req.URL.Path) || req.Header.Get(NoCacheHeader) != "" || t.ttl <= 0 {
		t.record(CacheBypass)
		return t.base.RoundTrip(req)
	}

	// Responses are per credential
	key := req.Header.Get("Authorization") + " " + req.URL.String()

	if hit := t.entries.Get(key); hit != nil {
		t.record(CacheHit)
		return hit.Value().response(req), nil
	}

	t.record(CacheMiss)
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	t.entries.Set(key, cacheEntry{
		statusCode: resp.StatusCode,
		header:     resp.Header.Clone(),
		body:       body,
	}, t.ttl)

	return resp, nil
}

// Clear drops every cached response
func (t *CacheTransport) Clear() {
	t.entries.DeleteAll()
}

// Len returns the number of cached responses not yet evicted
func (t *CacheTransport) Len() int {
	return t.entries.Len()
}

// Close stops background eviction. The transport keeps serving requests.
func (t *CacheTransport) Close() {
	t.closeOnce.Do(t.entries.Stop)
}

func (t *CacheTransport) record(result CacheResult) {
	if t.onResult != nil {
		t.onResult(result)
	}
}

func (e cacheEntry) response(req *http.Request) *http.Response {
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.statusCode, http.StatusText(e.statusCode)),
		StatusCode:    e.statusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        e.header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(e.body)),
		ContentLength: int64(len(e.body)),
		Request:       req,
	}
}
