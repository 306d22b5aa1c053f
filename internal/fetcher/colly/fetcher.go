// Package collyfetcher implements board.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/board-crawler/internal/board"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	// Timeout bounds a single request. Zero keeps the collector default.
	Timeout time.Duration
}

// Fetcher implements board.Fetcher using the Colly collector. It is safe for
// concurrent use; each call runs on its own clone of the base collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// fetchResult is filled in by the collector callbacks.
type fetchResult struct {
	statusCode int
	body       []byte
	err        error
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.ParseHTTPErrorResponse(),
	)
	c.WithTransport(newHTTPTransport())
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	if cfg.Timeout > 0 {
		c.SetRequestTimeout(cfg.Timeout)
	}
	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}
}

// FetchText performs a GET and returns the body as text.
func (f *Fetcher) FetchText(ctx context.Context, url, label string) (string, error) {
	body, err := f.fetch(ctx, url, label)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchJSON performs a GET and decodes the body into dst.
func (f *Fetcher) FetchJSON(ctx context.Context, url, label string, dst any) error {
	body, err := f.fetch(ctx, url, label)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode %s: %w", label, err)
	}
	return nil
}

func (f *Fetcher) fetch(ctx context.Context, url, label string) ([]byte, error) {
	start := time.Now()
	collector := f.baseCollector.Clone()
	collector.Context = ctx

	var result fetchResult
	f.configureCollectorHooks(collector, &result)

	if err := f.runCollector(ctx, collector, url); err != nil {
		return nil, &board.FetchError{Label: label, URL: url, Err: err}
	}
	if result.err != nil && result.statusCode == 0 {
		return nil, &board.FetchError{Label: label, URL: url, Err: result.err}
	}
	if result.statusCode < http.StatusOK || result.statusCode >= http.StatusMultipleChoices {
		return nil, &board.FetchError{Label: label, URL: url, StatusCode: result.statusCode, Err: result.err}
	}
	f.logger.Debug("fetched",
		zap.String("label", label),
		zap.String("url", url),
		zap.Int("status", result.statusCode),
		zap.Int("bytes", len(result.body)),
		zap.Duration("duration", time.Since(start)),
	)
	return result.body, nil
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, result *fetchResult) {
	hooks.OnResponse(func(r *colly.Response) {
		result.statusCode = r.StatusCode
		result.body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			result.statusCode = r.StatusCode
		}
		result.err = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
