package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// HTTPOptions configure the remote fetch.
type HTTPOptions struct {
	Timeout      time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// MaxBytes bounds the response body. Zero means 64 MiB.
	MaxBytes int64
}

// HTTPLoader downloads a dataset over HTTP(S) with retries on 429/5xx.
type HTTPLoader struct {
	URL      string
	Options  Options
	client   *retryablehttp.Client
	maxBytes int64
}

// ErrBodyTooLarge is returned when the remote dataset exceeds the configured size.
var ErrBodyTooLarge = errors.New("dataset body exceeds size limit")

// NewHTTPLoader builds a loader for rawURL.
func NewHTTPLoader(rawURL string, opt Options, hopt HTTPOptions) *HTTPLoader {
	rc := retryablehttp.NewClient()
	rc.Logger = slog.Default()
	if hopt.RetryMax > 0 {
		rc.RetryMax = hopt.RetryMax
	}
	if hopt.RetryWaitMin > 0 {
		rc.RetryWaitMin = hopt.RetryWaitMin
	}
	if hopt.RetryWaitMax > 0 {
		rc.RetryWaitMax = hopt.RetryWaitMax
	}
	if hopt.Timeout > 0 {
		rc.HTTPClient.Timeout = hopt.Timeout
	}
	maxBytes := hopt.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	return &HTTPLoader{URL: rawURL, Options: opt, client: rc, maxBytes: maxBytes}
}

// Load fetches and decodes the remote file. The format follows the URL path
// extension and defaults to CSV.
func (l *HTTPLoader) Load(ctx context.Context) (*Dataset, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, application/vnd.openxmlformats-officedocument.spreadsheetml.sheet, */*")
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("fetch dataset: unexpected status %s: %s", resp.Status, string(b))
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read dataset body: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, l.maxBytes)
	}
	ds, err := Decode(l.formatName(), data, l.Options)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", l.URL, err)
	}
	ds.Source = l.URL
	return ds, nil
}

// Fingerprint issues a HEAD request and uses ETag or Last-Modified.
func (l *HTTPLoader) Fingerprint(ctx context.Context) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, l.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("head dataset: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", nil
	}
	if etag := resp.Header.Get("ETag"); etag != "" {
		return "url:" + l.URL + ":" + etag, nil
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		return "url:" + l.URL + ":" + lm, nil
	}
	return "", nil
}

func (l *HTTPLoader) formatName() string {
	u, err := url.Parse(l.URL)
	if err != nil || path.Ext(u.Path) == "" {
		return "remote.csv"
	}
	return path.Base(u.Path)
}
