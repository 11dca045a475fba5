package ingest

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "continuum/backend/pkg/errors"
	"continuum/backend/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Fetcher downloads and parses pages
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBytes    int64
	concurrency int
	group       singleflight.Group
	logger      *zap.Logger
}

// FetcherConfig configures a Fetcher
type FetcherConfig struct {
	Timeout     time.Duration
	UserAgent   string
	MaxBytes    int64
	Concurrency int
}

// FetchResult is the outcome of fetching one URL in a batch
type FetchResult struct {
	URL      string
	Document *Document
	Err      error
}

// NewFetcher creates a fetcher. Zero values in cfg get defaults.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 2 << 20
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "continuum-ingest/1.0"
	}

	return &Fetcher{
		client:      &http.Client{Timeout: cfg.Timeout},
		userAgent:   cfg.UserAgent,
		maxBytes:    cfg.MaxBytes,
		concurrency: cfg.Concurrency,
		logger:      logger.Named("fetcher"),
	}
}

// Fetch downloads an HTML page and parses it. Concurrent fetches of the
// same URL share one request.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Document, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperrors.NewInvalidInput("url", "must be an absolute http(s) URL")
	}

	result, err, shared := f.group.Do(pageURL, func() (interface{}, error) {
		return f.fetch(ctx, pageURL)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		f.logger.Debug("Fetch shared with concurrent caller", zap.String("url", pageURL))
	}
	// Each caller gets its own Document; Prepare replaces Entities in place
	doc := *result.(*Document)
	return &doc, nil
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string) (*Document, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, apperrors.NewFetchFailed(pageURL, 0, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.NewFetchFailed(pageURL, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewFetchFailed(pageURL, resp.StatusCode, nil)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, _ := mime.ParseMediaType(ct)
		if mediaType != "text/html" && mediaType != "application/xhtml+xml" {
			return nil, apperrors.NewParseFailed(pageURL, fmt.Errorf("unsupported content type %q", mediaType))
		}
	}

	doc, err := ParseHTML(pageURL, io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Page fetched",
		zap.String("url", pageURL),
		zap.Int("snippets", len(doc.Snippets)),
		zap.Int("candidates", len(doc.Entities)),
		zap.Duration("latency", time.Since(start)),
	)
	return doc, nil
}

// FetchAll fetches urls concurrently, bounded by the configured
// concurrency. One failed URL does not stop the others; results keep the
// order of urls.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []FetchResult {
	results := make([]FetchResult, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i, u := range urls {
		i, u := i, strings.TrimSpace(u)
		g.Go(func() error {
			doc, err := f.Fetch(gctx, u)
			results[i] = FetchResult{URL: u, Document: doc, Err: err}
			if err != nil {
				f.logger.Warn("Fetch failed", zap.String("url", u), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
