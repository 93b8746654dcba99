package transport

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-lms-client/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const RequestIDHeader = "X-Request-ID"

// RequestID stamps each request with a random X-Request-ID unless one is set.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.Header.Get(RequestIDHeader) != "" {
				return next.RoundTrip(r)
			}
			out := r.Clone(r.Context())
			out.Header.Set(RequestIDHeader, uuid.NewString())
			return next.RoundTrip(out)
		})
	}
}

// RateLimit blocks until limiter admits the request or its context ends.
// A nil limiter disables limiting.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if limiter == nil {
			return next
		}
		return RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			if err := limiter.Wait(r.Context()); err != nil {
				return nil, err
			}
			return next.RoundTrip(r)
		})
	}
}

// NewLimiter returns a limiter for perSecond requests, or nil when perSecond <= 0.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Instrument records request counts and latency.
func Instrument(m *metrics.Metrics) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			m.Request(r.Method, status, time.Since(start))
			return resp, err
		})
	}
}

// Logging logs one debug line per round trip. Header values are never logged.
func Logging(logger zerolog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			var event *zerolog.Event
			if err != nil {
				event = logger.Warn().Err(err)
			} else {
				event = logger.Debug().Int("status", resp.StatusCode)
			}
			event.Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", r.Header.Get(RequestIDHeader)).
				Bool("authorized", r.Header.Get("Authorization") != "").
				Dur("elapsed", time.Since(start)).
				Msg("request")
			return resp, err
		})
	}
}
