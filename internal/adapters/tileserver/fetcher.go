// Package tileserver downloads map tiles from XYZ tile servers over HTTP.
package tileserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/samirrijal/annotile/internal/core/domain"
	"github.com/samirrijal/annotile/internal/core/ports"
	"github.com/samirrijal/annotile/internal/pkg/metrics"
)

// Options configures a Fetcher. Zero values fall back to conservative
// defaults.
type Options struct {
	// Workers bounds the number of concurrent tile downloads.
	Workers int
	// Retries is the number of retry attempts after the initial request.
	Retries int
	// RetryBackoff is the initial delay between retry attempts.
	RetryBackoff time.Duration
	// TileTimeout bounds a single download attempt.
	TileTimeout time.Duration
	// UserAgent is sent with every request. Public tile servers reject
	// requests without one.
	UserAgent string
	// Cache, when non-nil, is consulted before hitting the network and
	// updated after a successful download.
	Cache ports.CacheService
	// CacheTTLSeconds is the lifetime of cached tile blobs.
	CacheTTLSeconds int
}

// Fetcher downloads the tiles of a grid with bounded concurrency. A fetch is
// all or nothing: the first failure cancels the remaining downloads and the
// whole call errors.
type Fetcher struct {
	client       *http.Client
	workers      int
	retries      int
	retryBackoff time.Duration
	tileTimeout  time.Duration
	userAgent    string
	cache        ports.CacheService
	cacheTTL     int
}

// New builds a Fetcher with a transport tuned for many small requests to a
// handful of hosts.
func New(opts Options) *Fetcher {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 200 * time.Millisecond
	}
	if opts.TileTimeout <= 0 {
		opts.TileTimeout = 12 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (compatible)"
	}

	return &Fetcher{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   32,
				MaxConnsPerHost:       32,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		workers:      opts.Workers,
		retries:      opts.Retries,
		retryBackoff: opts.RetryBackoff,
		tileTimeout:  opts.TileTimeout,
		userAgent:    opts.UserAgent,
		cache:        opts.Cache,
		cacheTTL:     opts.CacheTTLSeconds,
	}
}

// FetchAll downloads every tile of grid from the server described by
// urlTemplate. It returns a complete map of tile blobs, or an error if any
// tile could not be retrieved. When the context deadline expires before the
// grid completes, the error is domain.ErrCaptureTimedOut.
func (f *Fetcher) FetchAll(ctx context.Context, grid domain.TileGrid, urlTemplate string) (map[domain.TileID][]byte, error) {
	ids := grid.Tiles()
	if len(ids) == 0 {
		return nil, errors.New("empty tile grid")
	}

	slog.Debug("fetching tile grid",
		"tiles", len(ids),
		"zoom", grid.Zoom,
		"workers", f.workers,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	blobs := make([][]byte, len(ids))
	sem := make(chan struct{}, f.workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, tile domain.TileID) {
			defer wg.Done()
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			data, err := f.fetchTile(ctx, tile, urlTemplate)
			if err != nil {
				mu.Lock()
				// Workers failing because a sibling already
				// cancelled the group are not the cause.
				if firstErr == nil && ctx.Err() == nil {
					firstErr = err
					cancel()
				}
				mu.Unlock()
				return
			}
			blobs[idx] = data
		}(i, id)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("fetching %d tiles: %w", len(ids), domain.ErrCaptureTimedOut)
		}
		return nil, err
	}
	for i, data := range blobs {
		if len(data) == 0 {
			return nil, &domain.TileFetchError{Tile: ids[i], Err: errors.New("no data received")}
		}
	}

	tiles := make(map[domain.TileID][]byte, len(ids))
	for i, id := range ids {
		tiles[id] = blobs[i]
	}
	return tiles, nil
}

func (f *Fetcher) fetchTile(ctx context.Context, id domain.TileID, urlTemplate string) ([]byte, error) {
	key := cacheKey(urlTemplate, id)
	if f.cache != nil {
		if cached, err := f.cache.Get(ctx, key); err == nil && len(cached) > 0 {
			metrics.CacheHits.WithLabelValues("tiles").Inc()
			return cached, nil
		}
		metrics.CacheMisses.WithLabelValues("tiles").Inc()
	}

	url := TileURL(urlTemplate, id)

	var result []byte
	operation := func() error {
		data, err := f.fetchOnce(ctx, id, url)
		if err != nil {
			return err
		}
		result = data
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.retryBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(f.retries)), ctx)

	notify := func(err error, wait time.Duration) {
		metrics.TileFetchRetries.Inc()
		slog.Debug("retrying tile fetch", "tile", id.String(), "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}

	metrics.TilesFetched.Inc()
	if f.cache != nil {
		if err := f.cache.Set(ctx, key, result, f.cacheTTL); err != nil {
			slog.Debug("tile cache store failed", "tile", id.String(), "error", err)
		}
	}
	return result, nil
}

// fetchOnce performs a single download attempt and classifies the outcome.
// 4xx statuses other than 429 are permanent; everything else may be retried.
func (f *Fetcher) fetchOnce(ctx context.Context, id domain.TileID, url string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.tileTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(&domain.TileFetchError{Tile: id, Err: err})
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.TileFetchError{Tile: id, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &domain.TileFetchError{Tile: id, Err: err}
		}
		return data, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &domain.TileFetchError{Tile: id, Status: resp.StatusCode}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, backoff.Permanent(&domain.TileFetchError{Tile: id, Status: resp.StatusCode})
	default:
		return nil, &domain.TileFetchError{Tile: id, Status: resp.StatusCode}
	}
}

// TileURL expands the {z}, {x} and {y} placeholders of an XYZ template.
func TileURL(template string, id domain.TileID) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(id.Zoom),
		"{x}", strconv.Itoa(id.X),
		"{y}", strconv.Itoa(id.Y),
	)
	return r.Replace(template)
}

// cacheKey derives a cache key that separates identical tile coordinates
// served by different tile servers.
func cacheKey(urlTemplate string, id domain.TileID) string {
	sum := sha256.Sum256([]byte(urlTemplate))
	return fmt.Sprintf("tile:%s:%s", hex.EncodeToString(sum[:6]), id.String())
}
