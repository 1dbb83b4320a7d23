package osasdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultRefreshThreshold is how long before expiry the auto-refresh
	// timer fires.
	DefaultRefreshThreshold = 5 * time.Minute

	// scheduledRefreshTimeout bounds a refresh triggered by the timer, which
	// has no caller context to inherit.
	scheduledRefreshTimeout = 30 * time.Second
)

// AuthManager owns the token lifecycle: building login URLs, turning redirect
// fragments into sessions, refreshing tokens, and tearing sessions down. All
// other namespaces only read the resulting session through the pipeline.
type AuthManager struct {
	pipeline *pipeline
	store    SessionStore
	log      *slog.Logger

	baseURL          string
	autoRefresh      bool
	refreshThreshold time.Duration

	// now is swapped out in tests to drive expiry without sleeping.
	now func() time.Time

	// group collapses concurrent refreshes into one HTTP call. The archive
	// rotates refresh tokens on first use, so two racing refreshes with the
	// same token would log the loser out for no real reason.
	group singleflight.Group

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

func newAuthManager(
	p *pipeline,
	store SessionStore,
	baseURL string,
	log *slog.Logger,
	autoRefresh bool,
	refreshThreshold time.Duration,
	now func() time.Time,
) *AuthManager {
	return &AuthManager{
		pipeline:         p,
		store:            store,
		log:              log,
		baseURL:          baseURL,
		autoRefresh:      autoRefresh,
		refreshThreshold: refreshThreshold,
		now:              now,
	}
}

// LoginURL builds the browser navigation target that starts a login with the
// given identity provider ("orcid" when empty). redirectURI names where the
// archive should send the user (and the auth fragment) afterwards; empty
// means the server's configured frontend. The output is deterministic for
// identical inputs.
func (a *AuthManager) LoginURL(provider, redirectURI string) string {
	if provider == "" {
		provider = "orcid"
	}
	q := url.Values{}
	q.Set("provider", provider)
	if redirectURI != "" {
		q.Set("redirect_uri", redirectURI)
	}
	return a.baseURL + "/auth/login?" + q.Encode()
}

// HandleCallback consumes the "#auth=..." fragment delivered by the login
// redirect. On success the session is persisted and the auto-refresh timer is
// armed; on a malformed fragment nothing is stored and ErrMalformedCallback
// is returned, so a failed login leaves any previous state untouched.
func (a *AuthManager) HandleCallback(fragment string) (*StoredSession, error) {
	params, err := parseAuthFragment(fragment)
	if err != nil {
		return nil, err
	}

	session := params.session(a.now())
	if err := a.store.Store(session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	a.scheduleRefresh(session.Tokens.ExpiresAt)
	a.log.Debug("session established", "user_id", session.User.ID, "provider", session.User.Provider)
	return &session, nil
}

// Refresh exchanges the stored refresh token for a new token pair.
//
// Failure is fail-closed: whether the server rejected the token or the
// request never arrived, the stored session is cleared and ErrRefreshFailed
// is returned. A refresh token in an unknown state cannot be retried safely,
// because the archive revokes a token's whole family when it sees one reused.
//
// Concurrent callers share a single in-flight refresh and all receive its
// result.
func (a *AuthManager) Refresh(ctx context.Context) (*TokenPair, error) {
	v, err, _ := a.group.Do("refresh", func() (any, error) {
		return a.doRefresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	pair := v.(TokenPair)
	return &pair, nil
}

func (a *AuthManager) doRefresh(ctx context.Context) (TokenPair, error) {
	session := a.store.Load()
	if session == nil || session.Tokens.RefreshToken == "" {
		return TokenPair{}, ErrNotAuthenticated
	}

	body, err := json.Marshal(RefreshRequest{RefreshToken: session.Tokens.RefreshToken})
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to encode request body: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	resp, err := a.pipeline.doDirect(ctx, http.MethodPost, "/auth/refresh", body, headers)
	if err != nil {
		a.clearSession()
		return TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	var tokens TokenResponse
	if err := decodeJSON(resp, &tokens, http.StatusOK); err != nil {
		a.clearSession()
		return TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if tokens.AccessToken == "" {
		a.clearSession()
		return TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, ErrInvalidResponse)
	}

	pair := TokenPair{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    a.now().Add(time.Duration(tokens.ExpiresIn) * time.Second),
	}
	// Servers that do not rotate refresh tokens omit the field; keep using
	// the one we have.
	if pair.RefreshToken == "" {
		pair.RefreshToken = session.Tokens.RefreshToken
	}

	updated := StoredSession{User: session.User, Tokens: pair}
	if err := a.store.Store(updated); err != nil {
		return TokenPair{}, fmt.Errorf("failed to persist session: %w", err)
	}

	a.scheduleRefresh(pair.ExpiresAt)
	a.log.Debug("tokens refreshed", "user_id", session.User.ID, "expires_at", pair.ExpiresAt)
	return pair, nil
}

// Logout revokes the refresh token server-side when possible and always
// clears local state. Network failure during revocation is logged and
// swallowed; the guarantee is local de-authentication, not server bookkeeping.
func (a *AuthManager) Logout(ctx context.Context) error {
	session := a.store.Load()
	if session != nil && session.Tokens.RefreshToken != "" {
		body, err := json.Marshal(LogoutRequest{RefreshToken: session.Tokens.RefreshToken})
		if err == nil {
			headers := map[string]string{
				"Content-Type": "application/json",
				"Accept":       "application/json",
			}
			resp, err := a.pipeline.doDirect(ctx, http.MethodPost, "/auth/logout", body, headers)
			if err != nil {
				a.log.Debug("logout request failed", "error", err)
			} else {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
		}
	}

	a.cancelRefreshTimer()
	if err := a.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// StoredAuth returns the current session, or nil when none is stored or the
// access token has expired. An expired session is not cleared here; callers
// that want to distinguish "never logged in" from "needs refresh" can still
// inspect the store directly.
func (a *AuthManager) StoredAuth() *StoredSession {
	session := a.store.Load()
	if session == nil || !session.Tokens.Valid(a.now()) {
		return nil
	}
	return session
}

// IsAuthenticated reports whether a session is stored and its access token
// is still valid at this instant. Expiry is strict: a token expiring exactly
// now is already invalid.
func (a *AuthManager) IsAuthenticated() bool {
	return a.StoredAuth() != nil
}

// CurrentUser fetches the server's view of the authenticated user, roles
// included. Any non-2xx answer means "no user" and returns nil without error;
// transport failures are returned as errors so callers can tell an offline
// archive from a signed-out one.
func (a *AuthManager) CurrentUser(ctx context.Context) (*UserInfo, error) {
	resp, err := a.pipeline.do(ctx, http.MethodGet, "/auth/me", nil, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var info UserInfo
	if err := json.Unmarshal(bodyBytes, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &info, nil
}

// Close cancels any pending auto-refresh timer. The manager must not be used
// afterwards.
func (a *AuthManager) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// refreshDelay computes how long from now the auto-refresh timer should wait
// for a token expiring at expiresAt. Non-positive means the token is already
// inside the refresh window and the next access must refresh synchronously.
func (a *AuthManager) refreshDelay(expiresAt time.Time) time.Duration {
	return expiresAt.Sub(a.now()) - a.refreshThreshold
}

// scheduleRefresh arms a single-shot refresh ahead of the given expiry,
// replacing any previously armed timer. At most one timer is ever
// outstanding.
func (a *AuthManager) scheduleRefresh(expiresAt time.Time) {
	if !a.autoRefresh {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}

	delay := a.refreshDelay(expiresAt)
	if delay <= 0 {
		return
	}
	a.timer = time.AfterFunc(delay, a.runScheduledRefresh)
	a.log.Debug("auto-refresh armed", "delay", delay)
}

// runScheduledRefresh is the timer callback. Errors are logged and dropped;
// a failed background refresh has already cleared the session, and the next
// interactive call surfaces that as a normal authentication failure.
func (a *AuthManager) runScheduledRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), scheduledRefreshTimeout)
	defer cancel()

	if _, err := a.Refresh(ctx); err != nil {
		a.log.Warn("scheduled token refresh failed", "error", err)
	}
}

// rescheduleFromStore arms the timer for a session that is already on disk,
// so a fresh process keeps a previously obtained token alive.
func (a *AuthManager) rescheduleFromStore() {
	if session := a.store.Load(); session != nil {
		a.scheduleRefresh(session.Tokens.ExpiresAt)
	}
}

func (a *AuthManager) cancelRefreshTimer() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// clearSession tears down local state after a failed refresh.
func (a *AuthManager) clearSession() {
	a.cancelRefreshTimer()
	if err := a.store.Clear(); err != nil {
		a.log.Warn("failed to clear session", "error", err)
	}
}
