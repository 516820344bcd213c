// Package invoiceclient wires the pieces of the invoice API client together:
// persistent session storage, the authenticated HTTP client and the typed
// invoice service.
package invoiceclient

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-invoice-client/apiclient"
	"github.com/jrsteele09/go-invoice-client/invoices"
	"github.com/jrsteele09/go-invoice-client/keyvalue"
	"github.com/jrsteele09/go-invoice-client/session"
)

// App bundles the wired client stack.
type App struct {
	API      *apiclient.Client
	Sessions *session.Store
	Invoices *invoices.Service
}

// Option modifies the stack during construction.
type Option func(*settings)

type settings struct {
	timeout time.Duration
	logger  zerolog.Logger
}

// WithTimeout sets the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithLogger sets the logger used by every component.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// New constructs the client stack over the given base URL and persistence
// backend. The session store both feeds the bearer token into the HTTP
// client and refreshes it on the first 401 of a call.
func New(baseURL string, repo keyvalue.Repo, options ...Option) (*App, error) {
	cfg := settings{
		timeout: apiclient.DefaultTimeout,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(&cfg)
	}

	sessions := session.New(repo, session.WithLogger(cfg.logger))

	api, err := apiclient.New(baseURL,
		apiclient.WithTimeout(cfg.timeout),
		apiclient.WithTokenSource(sessions),
		apiclient.WithRefresher(sessions),
		apiclient.WithLogger(cfg.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}
	sessions.UseClient(api)

	return &App{
		API:      api,
		Sessions: sessions,
		Invoices: invoices.NewService(api, invoices.WithLogger(cfg.logger)),
	}, nil
}
