// Package http provides an HTTP-based implementation of linkfeed.Fetcher.
// Pages are fetched as served; JavaScript is not executed.
package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/linkfeed"
	"golang.org/x/net/html/charset"
)

// DefaultMaxBodySize caps how much of a response body is read.
const DefaultMaxBodySize = 10 << 20

// Ensure Fetcher implements linkfeed.Fetcher at compile time.
var _ linkfeed.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML content from URLs using HTTP GET requests.
// Bodies are decoded to UTF-8 using the charset declared in the
// Content-Type header or the document itself.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to linkfeed.DefaultTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize limits how many bytes of a response body are read.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithClient replaces the underlying HTTP client. The configured timeout
// is applied to it.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     linkfeed.DefaultTimeout,
		userAgent:   linkfeed.DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{}
	}
	f.client.Timeout = f.timeout

	return f
}

// Fetch retrieves the HTML content from the given URL.
// Returns EFETCH for transport failures, timeouts, non-2xx responses and
// bodies larger than the configured limit.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", linkfeed.Errorf(linkfeed.EFETCH, "invalid request for %s: %v", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", linkfeed.Errorf(linkfeed.EFETCH, "timeout fetching %s", url)
		}
		return "", linkfeed.Errorf(linkfeed.EFETCH, "failed to fetch %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", linkfeed.Errorf(linkfeed.EFETCH, "HTTP %d for %s", resp.StatusCode, url)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return "", linkfeed.Errorf(linkfeed.EFETCH, "failed to read %s: %v", url, err)
	}
	if int64(len(raw)) > f.maxBodySize {
		return "", linkfeed.Errorf(linkfeed.EFETCH, "response body of %s exceeds %d bytes", url, f.maxBodySize)
	}

	return decode(raw, resp.Header.Get("Content-Type"))
}

// decode converts raw to UTF-8. A charset from the Content-Type header or a
// byte order mark wins; otherwise valid UTF-8 is kept as is and anything
// else falls back to the encoding sniffed from the document.
func decode(raw []byte, contentType string) (string, error) {
	enc, name, certain := charset.DetermineEncoding(raw, contentType)
	if (!certain && utf8.Valid(raw)) || name == "utf-8" {
		return string(raw), nil
	}
	data, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", linkfeed.Errorf(linkfeed.EFETCH, "failed to decode %s content: %v", name, err)
	}
	return string(data), nil
}
