package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"testing/fstest"
)

func TestFSFetcher(t *testing.T) {
	f := FSFetcher{FS: fstest.MapFS{
		"data/a.json": {Data: []byte(`{"ok":true}`)},
	}}
	ctx := context.Background()

	data, err := f.Fetch(ctx, "/data/a.json")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("data = %s", data)
	}
	if _, err := f.Fetch(ctx, "data/missing.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
	if !f.Exists(ctx, "data/a.json") {
		t.Error("Exists(a.json) = false")
	}
	if f.Exists(ctx, "data") {
		t.Error("Exists(dir) = true, want false")
	}
	if f.Exists(ctx, "data/missing.json") {
		t.Error("Exists(missing) = true")
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pub/data/a.json":
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.Write([]byte(`{"ok":true}`))
		case "/pub/data/broken.json":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL+"/pub", srv.Client())
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	ctx := context.Background()

	data, err := f.Fetch(ctx, "data/a.json")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("data = %s", data)
	}
	if _, err := f.Fetch(ctx, "data/missing.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
	if _, err := f.Fetch(ctx, "data/broken.json"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("broken: err = %v, want non-NotFound error", err)
	}
	if !f.Exists(ctx, "data/a.json") {
		t.Error("Exists(a.json) = false")
	}
	if f.Exists(ctx, "data/missing.json") {
		t.Error("Exists(missing) = true")
	}
}

func TestHTTPFetcher_BreakerTrips(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	for i := 0; i < 8; i++ {
		f.Fetch(context.Background(), "x.json")
	}
	if n := hits.Load(); n != 5 {
		t.Errorf("server hits = %d, want 5 (breaker open after 5 consecutive failures)", n)
	}
}

func TestHTTPFetcher_RejectsOversizedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/exact.json":
			w.Write([]byte(`{"year":2020}`))
		default:
			w.Write([]byte(`{"year":2020,"profiles":[]}`))
		}
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("NewHTTPFetcher: %v", err)
	}
	f.maxSize = int64(len(`{"year":2020}`))

	if _, err := f.Fetch(context.Background(), "big.json"); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversized: err = %v, want ErrTooLarge", err)
	}
	data, err := f.Fetch(context.Background(), "exact.json")
	if err != nil {
		t.Fatalf("at limit: %v", err)
	}
	if string(data) != `{"year":2020}` {
		t.Errorf("at limit: data = %s", data)
	}
}

func TestNewHTTPFetcher_RejectsScheme(t *testing.T) {
	if _, err := NewHTTPFetcher("ftp://example.com/data", nil); err == nil {
		t.Error("err = nil, want unsupported scheme error")
	}
}
