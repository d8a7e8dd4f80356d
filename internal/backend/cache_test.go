package backend

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

type countingServer struct {
	hits   atomic.Int64
	status int
}

func (s *countingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := s.hits.Add(1)
	status := s.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte("response-" + strconv.FormatInt(n, 10)))
}

func doRequest(t *testing.T, client *http.Client, method, url string, header http.Header) string {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("NewRequest() failed: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body)
}

func newCachedClient(t *testing.T, srv *countingServer, ttl time.Duration) (*http.Client, *CacheTransport, string, *[]CacheResult) {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	var results []CacheResult
	cache := NewCacheTransport(nil, ttl, func(r CacheResult) { results = append(results, r) })
	t.Cleanup(cache.Close)
	return &http.Client{Transport: cache}, cache, ts.URL, &results
}

func TestCacheTransport_HitWithinTTL(t *testing.T) {
	srv := &countingServer{}
	client, _, base, results := newCachedClient(t, srv, time.Minute)

	first := doRequest(t, client, http.MethodGet, base+"/api/leases/my-leases", nil)
	second := doRequest(t, client, http.MethodGet, base+"/api/leases/my-leases", nil)

	if first != second {
		t.Errorf("second response = %q, want cached %q", second, first)
	}
	if got := srv.hits.Load(); got != 1 {
		t.Errorf("backend hits = %d, want 1", got)
	}
	if len(*results) != 2 || (*results)[0] != CacheMiss || (*results)[1] != CacheHit {
		t.Errorf("results = %v, want [miss hit]", *results)
	}
}

func TestCacheTransport_Expiry(t *testing.T) {
	srv := &countingServer{}
	client, _, base, _ := newCachedClient(t, srv, 200*time.Millisecond)

	doRequest(t, client, http.MethodGet, base+"/x", nil)
	doRequest(t, client, http.MethodGet, base+"/x", nil)
	if got := srv.hits.Load(); got != 1 {
		t.Fatalf("backend hits before expiry = %d, want 1", got)
	}

	time.Sleep(300 * time.Millisecond)
	doRequest(t, client, http.MethodGet, base+"/x", nil)
	if got := srv.hits.Load(); got != 2 {
		t.Errorf("backend hits after expiry = %d, want 2", got)
	}
}

// waitForLen polls until the cache has been swept down to want entries
func waitForLen(t *testing.T, cache *CacheTransport, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for cache.Len() != want && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := cache.Len(); got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
}

func TestCacheTransport_EvictsExpired(t *testing.T) {
	srv := &countingServer{}
	client, cache, base, _ := newCachedClient(t, srv, 100*time.Millisecond)

	const credentials = 500
	for i := 0; i < credentials; i++ {
		doRequest(t, client, http.MethodGet, base+"/api/leases/my-leases", http.Header{
			"Authorization": {"Bearer user-" + strconv.Itoa(i)},
		})
	}
	if got := cache.Len(); got == 0 || got > credentials {
		t.Fatalf("Len() after requests = %d, want 1..%d", got, credentials)
	}

	waitForLen(t, cache, 0)
}

func TestCacheTransport_CloseKeepsServing(t *testing.T) {
	srv := &countingServer{}
	client, cache, base, _ := newCachedClient(t, srv, time.Minute)

	cache.Close()
	cache.Close()

	doRequest(t, client, http.MethodGet, base+"/x", nil)
	doRequest(t, client, http.MethodGet, base+"/x", nil)
	if got := srv.hits.Load(); got != 1 {
		t.Errorf("backend hits = %d, want 1", got)
	}
}

func TestCacheTransport_WriteClearsCache(t *testing.T) {
	srv := &countingServer{}
	client, cache, base, results := newCachedClient(t, srv, time.Minute)

	doRequest(t, client, http.MethodGet, base+"/a", nil)
	doRequest(t, client, http.MethodGet, base+"/b", nil)
	if cache.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", cache.Len())
	}

	doRequest(t, client, http.MethodPost, base+"/payments", nil)
	if cache.Len() != 0 {
		t.Errorf("Len() after POST = %d, want 0", cache.Len())
	}
	if last := (*results)[len(*results)-1]; last != CacheInvalidate {
		t.Errorf("last result = %q, want %q", last, CacheInvalidate)
	}

	doRequest(t, client, http.MethodGet, base+"/a", nil)
	if got := srv.hits.Load(); got != 4 {
		t.Errorf("backend hits = %d, want 4", got)
	}
}

func TestCacheTransport_Bypass(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		header http.Header
	}{
		{"auth endpoint", "/auth/login", nil},
		{"no-cache header", "/api/leases/my-leases", http.Header{NoCacheHeader: {"1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &countingServer{}
			client, cache, base, _ := newCachedClient(t, srv, time.Minute)

			doRequest(t, client, http.MethodGet, base+tt.path, tt.header)
			doRequest(t, client, http.MethodGet, base+tt.path, tt.header)

			if got := srv.hits.Load(); got != 2 {
				t.Errorf("backend hits = %d, want 2", got)
			}
			if cache.Len() != 0 {
				t.Errorf("Len() = %d, want 0", cache.Len())
			}
		})
	}
}

func TestCacheTransport_KeyedByCredential(t *testing.T) {
	srv := &countingServer{}
	client, _, base, _ := newCachedClient(t, srv, time.Minute)

	owner := doRequest(t, client, http.MethodGet, base+"/x", http.Header{"Authorization": {"Bearer owner"}})
	tenant := doRequest(t, client, http.MethodGet, base+"/x", http.Header{"Authorization": {"Bearer tenant"}})

	if owner == tenant {
		t.Error("responses for different credentials should not be shared")
	}
	if got := srv.hits.Load(); got != 2 {
		t.Errorf("backend hits = %d, want 2", got)
	}
}

func TestCacheTransport_ErrorsNotCached(t *testing.T) {
	srv := &countingServer{status: http.StatusInternalServerError}
	client, cache, base, _ := newCachedClient(t, srv, time.Minute)

	doRequest(t, client, http.MethodGet, base+"/x", nil)
	doRequest(t, client, http.MethodGet, base+"/x", nil)

	if got := srv.hits.Load(); got != 2 {
		t.Errorf("backend hits = %d, want 2", got)
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, want 0", cache.Len())
	}
}
