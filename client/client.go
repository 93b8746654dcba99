package client

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-lms-client/api"
	"github.com/jrsteele09/go-lms-client/auth"
	"github.com/jrsteele09/go-lms-client/internal/cache"
	"github.com/jrsteele09/go-lms-client/internal/config"
	"github.com/jrsteele09/go-lms-client/metrics"
	"github.com/jrsteele09/go-lms-client/sessions"
	"github.com/jrsteele09/go-lms-client/storage"
	"github.com/jrsteele09/go-lms-client/storage/filestore"
	"github.com/jrsteele09/go-lms-client/storage/memstore"
	"github.com/jrsteele09/go-lms-client/storage/sqlitestore"
	"github.com/jrsteele09/go-lms-client/token"
	"github.com/jrsteele09/go-lms-client/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Client bundles everything needed to talk to the LMS backend with two
// independent sessions: the typed API, the auth use-cases and the session state
// they maintain.
type Client struct {
	API       *api.Client
	Auth      *auth.Service
	Sessions  *sessions.Slice
	Store     *storage.TokenStore
	Refresher *transport.Coordinator
	Metrics   *metrics.Metrics

	closers []io.Closer
}

type options struct {
	base     http.RoundTripper
	backend  storage.Backend
	logger   zerolog.Logger
	registry prometheus.Registerer
}

type Option func(*options)

// WithTransport replaces the network transport under the client's middleware,
// e.g. with the in-process fake backend.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.base = rt
	}
}

// WithBackend overrides the configured storage backend.
func WithBackend(b storage.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRegistry registers the client's collectors with reg.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// New wires the client from cfg. Close releases the storage backend.
func New(cfg config.Config, opts ...Option) (*Client, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{Metrics: metrics.New(o.registry)}

	backend := o.backend
	if backend == nil {
		b, closer, err := OpenBackend(cfg, o.logger)
		if err != nil {
			// Sessions are not remembered, but every command still runs.
			o.logger.Warn().Err(err).Str("store", string(cfg.GetStoreType())).Msg("session storage unavailable")
		} else {
			backend = b
		}
		if closer != nil {
			c.closers = append(c.closers, closer)
		}
	}
	c.Store = storage.New(backend, storage.WithLogger(o.logger))
	c.Sessions = sessions.NewSlice(c.Store)

	base := o.base
	if base == nil {
		base = http.DefaultTransport
	}
	chain := transport.Chain(base,
		transport.RateLimit(transport.NewLimiter(cfg.GetRateLimit(), cfg.GetRateBurst())),
		transport.RequestID(),
		transport.Logging(o.logger),
		transport.Instrument(c.Metrics),
	)
	c.Refresher = transport.NewCoordinator(cfg.GetBaseURL(), c.Store, chain,
		transport.WithLogger(o.logger),
		transport.WithMetrics(c.Metrics),
		transport.WithRefreshTimeout(cfg.GetRequestTimeout()),
		transport.WithExpiredHandler(c.expired),
	)

	c.API = api.New(cfg.GetBaseURL(),
		api.WithHTTPClient(&http.Client{Transport: c.Refresher, Timeout: cfg.GetRequestTimeout()}),
		api.WithCache(cache.New(cfg.GetCacheTTL())),
		api.WithLogger(o.logger),
	)

	svc, err := auth.NewService(c.API, c.Store, c.Sessions, auth.WithLogger(o.logger))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("[client New] %w", err)
	}
	c.Auth = svc
	return c, nil
}

// expired signs a track out after its credentials could not be refreshed.
func (c *Client) expired(track token.Track) {
	c.Sessions.Clear(track)
	if c.API != nil {
		c.API.ResetCache()
	}
}

func (c *Client) Close() error {
	var first error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}

// OpenBackend opens the configured storage backend. The closer is nil when
// the backend holds no resources. An unreadable session file is moved aside
// and replaced by an empty one.
func OpenBackend(cfg config.StorageConfig, logger zerolog.Logger) (storage.Backend, io.Closer, error) {
	switch cfg.GetStoreType() {
	case config.StoreMemory:
		return memstore.New(), nil, nil
	case config.StoreSQLite:
		if err := os.MkdirAll(cfg.GetDataFolder(), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create data folder: %w", err)
		}
		s, err := sqlitestore.Open(filepath.Join(cfg.GetDataFolder(), sqlitestore.DefaultFileName))
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		f, err := filestore.Open(filepath.Join(cfg.GetDataFolder(), filestore.DefaultFileName),
			filestore.WithPassphrase(cfg.GetStoreKey()),
			filestore.WithResetOnError(logger))
		if err != nil {
			return nil, nil, err
		}
		return f, nil, nil
	}
}
