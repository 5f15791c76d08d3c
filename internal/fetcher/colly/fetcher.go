// Package collyfetcher implements audit.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/webaudit360/internal/audit"
)

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/115.0 Safari/537.36"

// DefaultTimeout bounds the whole request, redirects included.
const DefaultTimeout = 15 * time.Second

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// MaxBodyBytes caps the response body; 0 disables the cap.
	MaxBodyBytes int
}

// Fetcher implements audit.Fetcher using the Colly collector. Each call makes
// exactly one request attempt.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(
		colly.Async(false),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.ParseHTTPErrorResponse(),
		colly.DetectCharset(),
		colly.MaxBodySize(cfg.MaxBodyBytes),
	)
	c.WithTransport(newHTTPTransport())
	// The backend client is shared by every clone, so the timeout is set once here.
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch executes a single HTTP GET and returns the decoded body.
// Every failure is reported as *audit.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var (
		result   fetchResult
		fetchErr error
	)
	collector := f.baseCollector.Clone()
	f.configureCollectorHooks(collector, &result, &fetchErr)

	start := time.Now()
	if err := f.runCollector(ctx, collector, url, &fetchErr); err != nil {
		failure := &audit.FetchError{URL: url, Err: err}
		if ctx.Err() == nil {
			// Visit has returned, so the hooks are done writing result.
			failure.StatusCode = result.statusCode
		}
		f.logger.Debug("fetch failed",
			zap.String("url", url),
			zap.Int("status", failure.StatusCode),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return "", failure
	}
	if failure := f.checkResult(url, result); failure != nil {
		f.logger.Debug("fetch rejected",
			zap.String("url", url),
			zap.Int("status", result.statusCode),
			zap.Error(failure),
		)
		return "", failure
	}
	f.logger.Debug("fetch succeeded",
		zap.String("url", url),
		zap.String("final_url", result.finalURL),
		zap.Int("status", result.statusCode),
		zap.Int("bytes", len(result.body)),
		zap.Duration("duration", time.Since(start)),
	)
	return string(result.body), nil
}

type fetchResult struct {
	finalURL   string
	statusCode int
	body       []byte
	received   bool
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, result *fetchResult, fetchErr *error) {
	hooks.OnResponse(func(r *colly.Response) {
		*result = fetchResult{
			statusCode: r.StatusCode,
			body:       append([]byte(nil), r.Body...),
			received:   true,
		}
		if r.Request != nil && r.Request.URL != nil {
			result.finalURL = r.Request.URL.String()
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			result.statusCode = r.StatusCode
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return err
		}
		if *fetchErr != nil {
			return *fetchErr
		}
		return nil
	}
}

func (f *Fetcher) checkResult(url string, result fetchResult) *audit.FetchError {
	switch {
	case !result.received:
		return &audit.FetchError{URL: url, Err: errors.New("no response received")}
	case result.statusCode < http.StatusOK || result.statusCode >= http.StatusMultipleChoices:
		return &audit.FetchError{URL: url, StatusCode: result.statusCode}
	case f.cfg.MaxBodyBytes > 0 && len(result.body) >= f.cfg.MaxBodyBytes:
		return &audit.FetchError{
			URL:        url,
			StatusCode: result.statusCode,
			Err:        fmt.Errorf("response body reached the %d byte limit", f.cfg.MaxBodyBytes),
		}
	default:
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
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
