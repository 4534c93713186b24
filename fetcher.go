package linkfeed

import "context"

// Fetcher retrieves raw HTML for a listing page.
type Fetcher interface {
	// Fetch returns the response body of url. Transport failures, timeouts
	// and non-2xx responses are returned as EFETCH errors.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
