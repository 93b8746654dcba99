package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-lms-client/courses"
	"github.com/jrsteele09/go-lms-client/enrollments"
	"github.com/jrsteele09/go-lms-client/media"
	"github.com/rs/zerolog"
)

// DefaultSecret signs tokens when no secret is configured. Only suitable for
// local development and tests.
const DefaultSecret = "asto-lms-local-development-secret"

// Server is an in-process stand-in for the LMS REST backend. It implements the
// auth endpoints with real signed tokens plus a seeded catalog, and exposes
// switches to inject the failures a client has to cope with.
type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	logger zerolog.Logger
	secret string
	now    func() time.Time
	issuer *Issuer

	lock        sync.RWMutex
	accounts    map[string]*account // by user ID
	byEmail     map[string]string
	categories  []courses.Category
	courseList  []courses.Course
	offerings   []courses.Offering
	enrollments []enrollments.Enrollment
	files       map[string]storedFile // by bucket + "/" + file ID
	otps        map[string]string     // email -> pending OTP
	resetTokens map[string]string     // reset token -> user ID

	faults       Faults
	generation   atomic.Int64
	refreshCalls atomic.Int32
	verifyCalls  atomic.Int32
}

type storedFile struct {
	meta    media.File
	content []byte
}

type Option func(*Server)

// WithEnv enables route and request logging when env is "DEV".
func WithEnv(env string) Option {
	return func(s *Server) {
		s.env = env
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger.With().Str("component", "fake-backend").Logger()
	}
}

// WithSecret sets the HS256 signing secret.
func WithSecret(secret string) Option {
	return func(s *Server) {
		if secret != "" {
			s.secret = secret
		}
	}
}

// WithNowTime replaces the clock used to mint and check tokens.
func WithNowTime(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithTokenExpiry overrides the access and refresh token lifetimes. Zero keeps the default.
func WithTokenExpiry(access, refresh time.Duration) Option {
	return func(s *Server) {
		if access > 0 {
			s.issuer.accessExpiry = access
		}
		if refresh > 0 {
			s.issuer.refreshExpiry = refresh
		}
	}
}

func New(options ...Option) (*Server, error) {
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      zerolog.Nop(),
		secret:      DefaultSecret,
		now:         time.Now,
		accounts:    make(map[string]*account),
		byEmail:     make(map[string]string),
		files:       make(map[string]storedFile),
		otps:        make(map[string]string),
		resetTokens: make(map[string]string),
		faults:      Faults{VerifyMode: VerifyHeaders},
	}
	s.issuer = NewIssuer(s.secret, func() time.Time { return s.now() })
	for _, opt := range options {
		opt(s)
	}
	s.issuer.secret = []byte(s.secret)

	if err := s.InitialiseSystem(); err != nil {
		return nil, fmt.Errorf("[Server New] failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Transport serves requests in process, without a listener.
func (s *Server) Transport() http.RoundTripper {
	return handlerTransport{handler: s}
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// RefreshCalls is the number of requests that reached the refresh endpoint.
func (s *Server) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

// VerifyCalls is the number of requests that reached the verify endpoint.
func (s *Server) VerifyCalls() int {
	return int(s.verifyCalls.Load())
}

// ExpireAccessTokens makes every access token issued so far fail with 401.
// Refresh tokens stay valid, so the next refresh issues a working token.
func (s *Server) ExpireAccessTokens() {
	s.generation.Add(1)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	s.logger.Debug().Msgf("[%-19s] %s", color+paddedMethod+ResetColor, path)
}
