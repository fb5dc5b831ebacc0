// Package snapshot captures the rendered dashboard page with headless Chrome.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"
)

// Options controls one capture.
type Options struct {
	// ChromeBin overrides the browser executable; empty uses the default lookup.
	ChromeBin string
	Width     int
	Height    int
	// WaitSelector must be visible before the capture. Charts animate in, so
	// Settle gives them time to finish after it appears.
	WaitSelector string
	Settle       time.Duration
	Timeout      time.Duration
	// Quality 100 yields PNG; lower values yield JPEG.
	Quality      int
}

// withDefaults fills zero fields.
func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 1600
	}
	if o.Height <= 0 {
		o.Height = 1200
	}
	if o.WaitSelector == "" {
		o.WaitSelector = "#summary"
	}
	if o.Settle <= 0 {
		o.Settle = 2 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = 100
	}
	return o
}

// allocatorOptions builds the Chrome flags for a headless capture.
func allocatorOptions(o Options) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(o.Width, o.Height),
	)
	if o.ChromeBin != "" {
		opts = append(opts, chromedp.ExecPath(o.ChromeBin))
	}
	return opts
}

// Capture loads pageURL and returns a full-page screenshot.
func Capture(ctx context.Context, pageURL string, o Options) ([]byte, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("snapshot url must be an absolute http(s) URL: %q", pageURL)
	}
	o = o.withDefaults()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(o)...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()
	runCtx, cancelRun := context.WithTimeout(browserCtx, o.Timeout)
	defer cancelRun()

	var buf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate(u.String()),
		chromedp.WaitVisible(o.WaitSelector, chromedp.ByQuery),
		chromedp.Sleep(o.Settle),
		chromedp.FullScreenshot(&buf, o.Quality),
	)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("snapshot %s: timed out after %s waiting for %s", u, o.Timeout, o.WaitSelector)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", u, err)
	}
	return buf, nil
}
