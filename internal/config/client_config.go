package config

import "time"

type ClientConfig interface {
	GetRequestTimeout() time.Duration
	GetRateLimit() float64
	GetRateBurst() int
	GetCacheTTL() time.Duration
}

type Client struct{}

var _ ClientConfig = Client{}

func (Client) GetRequestTimeout() time.Duration {
	return GetDuration("LMS_REQUEST_TIMEOUT", 30*time.Second)
}

// GetRateLimit is the outgoing request budget per second; 0 disables limiting.
func (Client) GetRateLimit() float64 {
	return GetFloat("LMS_RATE_LIMIT", 0)
}

func (Client) GetRateBurst() int {
	return int(GetFloat("LMS_RATE_BURST", 5))
}

func (Client) GetCacheTTL() time.Duration {
	return GetDuration("LMS_CACHE_TTL", 60*time.Second) // matches keepUnusedDataFor
}
