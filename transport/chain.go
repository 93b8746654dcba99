package transport

import "net/http"

// RoundTripFunc adapts an ordinary function to http.RoundTripper.
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Middleware decorates a RoundTripper. Implementations must clone the request
// before changing it.
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain wraps base so the first middleware sees the request first.
func Chain(base http.RoundTripper, mw ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	chained := base
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chained = mw[i](chained)
	}
	return chained
}
