// Package dataset acquires and validates the vocabulary dataset:
// network-first with cache fallback, so the app keeps working offline
// after one successful load.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xiaolongtang/rw/internal/model"
	"github.com/xiaolongtang/rw/internal/store"
)

// Cache keys in the kv region.
const (
	keyDatasetURL  = "datasetUrl"
	keyDatasetJSON = "datasetJson"
	keyDatasetMeta = "datasetMeta"
)

// DefaultTrustedHost is the only host datasets may be fetched from
// unless the config overrides it.
const DefaultTrustedHost = "raw.githubusercontent.com"

// DefaultTimeout bounds one dataset fetch.
const DefaultTimeout = 8 * time.Second

// Loader fetches, validates, and caches the dataset.
type Loader struct {
	store       *store.Store
	client      *http.Client
	trustedHost string
	timeout     time.Duration
	now         func() time.Time
}

// Option adjusts a Loader.
type Option func(*Loader)

// WithClient replaces the HTTP client.
func WithClient(client *http.Client) Option {
	return func(l *Loader) { l.client = client }
}

// WithTrustedHost replaces the allow-listed host.
func WithTrustedHost(host string) Option {
	return func(l *Loader) { l.trustedHost = host }
}

// WithTimeout replaces the fetch timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(l *Loader) { l.timeout = timeout }
}

// WithNow replaces the clock.
func WithNow(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// NewLoader builds a Loader over the given store.
func NewLoader(st *store.Store, opts ...Option) *Loader {
	l := &Loader{
		store:       st,
		client:      &http.Client{},
		trustedHost: DefaultTrustedHost,
		timeout:     DefaultTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves the dataset, preferring the network. preferredURL may
// be empty, in which case the previously cached URL is used. On fetch
// or validation failure with a usable cache the cached dataset is
// returned with Source set to cache and Err carrying the failure; with
// no cache the failure is returned directly.
func (l *Loader) Load(ctx context.Context, preferredURL string) (*model.LoadResult, error) {
	cached, err := l.readCache(ctx)
	if err != nil {
		return nil, err
	}

	targetURL := preferredURL
	if targetURL == "" {
		targetURL = cached.url
	}
	if targetURL == "" {
		if cached.dataset != nil {
			return &model.LoadResult{
				Dataset: cached.dataset,
				URL:     cached.url,
				Source:  model.SourceCache,
				Meta:    cached.meta,
			}, nil
		}
		if cached.err != nil {
			// Cache bytes exist but no longer validate.
			return nil, cached.err
		}
		return nil, fmt.Errorf("%w: set a dataset source first", ErrNoURL)
	}

	ds, fetchErr := l.fetch(ctx, targetURL)
	if fetchErr == nil {
		meta := model.DatasetMeta{LastSuccessAt: l.now().UnixMilli()}
		if err := l.writeCache(ctx, targetURL, ds, meta); err != nil {
			return nil, fmt.Errorf("failed to cache dataset: %w", err)
		}
		return &model.LoadResult{
			Dataset: ds,
			URL:     targetURL,
			Source:  model.SourceNetwork,
			Meta:    meta,
		}, nil
	}

	if cached.dataset != nil {
		return &model.LoadResult{
			Dataset: cached.dataset,
			URL:     targetURL,
			Source:  model.SourceCache,
			Meta:    cached.meta,
			Err:     fetchErr,
		}, nil
	}
	return nil, fetchErr
}

// Bootstrap is Load with no explicit URL: the target is resolved
// purely from cache.
func (l *Loader) Bootstrap(ctx context.Context) (*model.LoadResult, error) {
	return l.Load(ctx, "")
}

// Cached returns the cached dataset without touching the network, or
// ErrNoURL when nothing is cached.
func (l *Loader) Cached(ctx context.Context) (*model.LoadResult, error) {
	cached, err := l.readCache(ctx)
	if err != nil {
		return nil, err
	}
	if cached.dataset == nil {
		if cached.err != nil {
			return nil, cached.err
		}
		return nil, fmt.Errorf("%w: no cached dataset", ErrNoURL)
	}
	return &model.LoadResult{
		Dataset: cached.dataset,
		URL:     cached.url,
		Source:  model.SourceCache,
		Meta:    cached.meta,
	}, nil
}

// ClearCache removes the cached URL, dataset, and meta.
func (l *Loader) ClearCache(ctx context.Context) error {
	return l.store.Clear(ctx, store.RegionKV)
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (*model.Dataset, error) {
	if err := l.checkURL(rawURL); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: request timed out or was canceled", ErrFetchFailed)
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrFetchFailed, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return Validate(body)
}

// checkURL enforces the https + trusted-host allow-list before any
// network traffic happens.
func (l *Loader) checkURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be https", ErrInvalidURL)
	}
	host := parsed.Hostname()
	if host != l.trustedHost && !strings.HasSuffix(host, "."+l.trustedHost) {
		return fmt.Errorf("%w: host %q is not %s", ErrInvalidURL, host, l.trustedHost)
	}
	return nil
}

type cacheState struct {
	url     string
	dataset *model.Dataset
	meta    model.DatasetMeta
	// err records a cached dataset that failed revalidation.
	err error
}

func (l *Loader) readCache(ctx context.Context) (cacheState, error) {
	var state cacheState
	rawURL, err := l.store.GetKV(ctx, keyDatasetURL)
	if err != nil {
		return state, err
	}
	state.url = string(rawURL)

	rawJSON, err := l.store.GetKV(ctx, keyDatasetJSON)
	if err != nil {
		return state, err
	}
	if len(rawJSON) > 0 {
		ds, verr := Validate(rawJSON)
		if verr != nil {
			state.err = verr
		} else {
			state.dataset = ds
		}
	}

	rawMeta, err := l.store.GetKV(ctx, keyDatasetMeta)
	if err != nil {
		return state, err
	}
	if len(rawMeta) > 0 {
		if uerr := json.Unmarshal(rawMeta, &state.meta); uerr != nil {
			// A broken meta blob only loses the last-success stamp.
			state.meta = model.DatasetMeta{}
		}
	}
	return state, nil
}

// writeCache persists the three cache keys as one transaction so the
// URL, dataset, and meta can never be observed out of sync.
func (l *Loader) writeCache(ctx context.Context, rawURL string, ds *model.Dataset, meta model.DatasetMeta) error {
	rawJSON, err := json.Marshal(ds)
	if err != nil {
		return err
	}
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return l.store.SetKVGroup(ctx, map[string][]byte{
		keyDatasetURL:  []byte(rawURL),
		keyDatasetJSON: rawJSON,
		keyDatasetMeta: rawMeta,
	})
}
