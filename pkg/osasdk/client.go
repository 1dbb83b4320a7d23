package osasdk

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/open-science-archive/osa-go/pkg/slogx"
)

const defaultHTTPTimeout = 30 * time.Second

// Client is the entry point to the archive API. Construct one per archive
// and share it; all state lives in the configured SessionStore.
type Client struct {
	// Auth manages login, tokens, and session state.
	Auth *AuthManager

	// Search queries published records.
	Search *SearchService

	// Depositions manages draft datasets through submission.
	Depositions *DepositionService

	// Records reads published records.
	Records *RecordService

	// Conventions manages dataset conventions.
	Conventions *ConventionService

	baseURL  string
	pipeline *pipeline
}

type clientOptions struct {
	httpClient       *http.Client
	log              *slog.Logger
	store            SessionStore
	now              func() time.Time
	refreshThreshold time.Duration
	autoRefresh      bool
}

// Option configures a Client at construction time.
type Option func(*clientOptions)

// WithHTTPClient replaces the default HTTP client (30s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(o *clientOptions) { o.log = log }
}

// WithSessionStore selects where the session is persisted. The default is an
// in-memory store that forgets the session when the process exits; use a
// FileSessionStore to survive restarts.
func WithSessionStore(store SessionStore) Option {
	return func(o *clientOptions) { o.store = store }
}

// WithClock replaces the wall clock used for expiry decisions and refresh
// scheduling. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *clientOptions) { o.now = now }
}

// WithRefreshThreshold sets how long before token expiry the background
// refresh runs.
func WithRefreshThreshold(d time.Duration) Option {
	return func(o *clientOptions) { o.refreshThreshold = d }
}

// WithAutoRefresh enables or disables the background refresh timer. Enabled
// by default; with it off, tokens are refreshed only by the 401-recovery
// path or explicit Refresh calls.
func WithAutoRefresh(enabled bool) Option {
	return func(o *clientOptions) { o.autoRefresh = enabled }
}

// New builds a Client for the archive at baseURL. The URL must be absolute
// (scheme and host); anything relative would silently resolve against
// nothing in particular. A trailing slash is tolerated and stripped.
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	options := clientOptions{
		httpClient:       &http.Client{Timeout: defaultHTTPTimeout},
		log:              slogx.Discard(),
		store:            NewMemorySessionStore(),
		now:              time.Now,
		refreshThreshold: DefaultRefreshThreshold,
		autoRefresh:      true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	p := newPipeline(baseURL, options.httpClient, options.store, options.log)
	auth := newAuthManager(
		p,
		options.store,
		baseURL,
		options.log,
		options.autoRefresh,
		options.refreshThreshold,
		options.now,
	)
	// The pipeline needs the manager's refresh and the manager issues its
	// calls through the pipeline, so the hook is wired after both exist.
	p.setRefresh(func(ctx context.Context) error {
		_, err := auth.Refresh(ctx)
		return err
	})

	c := &Client{
		Auth:        auth,
		Search:      &SearchService{p: p},
		Depositions: &DepositionService{p: p},
		Records:     &RecordService{p: p},
		Conventions: &ConventionService{p: p},
		baseURL:     baseURL,
		pipeline:    p,
	}

	// A session persisted by a previous run still deserves a timer.
	auth.rescheduleFromStore()

	return c, nil
}

// BaseURL returns the archive root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close stops background work. In-flight requests are not cancelled.
func (c *Client) Close() {
	c.Auth.Close()
}
