// CLAUDE:SUMMARY Fetchers for published data documents: local fs.FS and remote HTTP base URL behind a circuit breaker.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// ErrNotFound is returned when a document does not exist at the requested path.
var ErrNotFound = errors.New("document not found")

// ErrTooLarge is returned when a document exceeds MaxDocumentSize.
var ErrTooLarge = errors.New("document too large")

// MaxDocumentSize caps the size of a single fetched document.
const MaxDocumentSize = 64 << 20

// Fetcher retrieves published documents by slash-separated relative path.
type Fetcher interface {
	// Fetch returns the document bytes.
	Fetch(ctx context.Context, name string) ([]byte, error)
	// Exists is a lightweight existence check; it never returns the body.
	Exists(ctx context.Context, name string) bool
}

// FSFetcher serves documents from a file system (usually os.DirFS of the
// public data directory).
type FSFetcher struct {
	FS fs.FS
}

// Fetch reads name from the file system.
func (f FSFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(f.FS, cleanName(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Exists stats name on the file system.
func (f FSFetcher) Exists(ctx context.Context, name string) bool {
	if ctx.Err() != nil {
		return false
	}
	info, err := fs.Stat(f.FS, cleanName(name))
	return err == nil && !info.IsDir()
}

// HTTPFetcher serves documents from a remote base URL. Consecutive failures
// trip a circuit breaker so a dead host fails fast for the following
// candidates instead of waiting on each request.
type HTTPFetcher struct {
	base    *url.URL
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	maxSize int64
}

// NewHTTPFetcher creates a fetcher rooted at baseURL. A nil client uses a
// client with a 30s timeout.
func NewHTTPFetcher(baseURL string, client *http.Client) (*HTTPFetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: unsupported scheme", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	st := gobreaker.Settings{
		Name:     "fetch " + u.Host,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// A missing or oversized document is an answer, not a host failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrTooLarge)
		},
	}
	return &HTTPFetcher{base: u, client: client, breaker: gobreaker.NewCircuitBreaker(st), maxSize: MaxDocumentSize}, nil
}

func (h *HTTPFetcher) resolve(name string) string {
	return h.base.ResolveReference(&url.URL{Path: cleanName(name)}).String()
}

// Fetch GETs name relative to the base URL.
func (h *HTTPFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	target := h.resolve(name)
	v, err := h.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := h.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w", target, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("GET %s: %w", target, ErrNotFound)
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("GET %s: HTTP %d", target, resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxSize+1))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", target, err)
		}
		if int64(len(data)) > h.maxSize {
			return nil, fmt.Errorf("GET %s: over %d bytes: %w", target, h.maxSize, ErrTooLarge)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Exists performs a HEAD request; any 2xx status counts as present.
func (h *HTTPFetcher) Exists(ctx context.Context, name string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, h.resolve(name), nil)
	if err != nil {
		return false
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// cleanName turns a document path into an fs.FS-valid relative name.
func cleanName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+name), "/")
}
