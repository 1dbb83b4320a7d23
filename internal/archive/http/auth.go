package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/open-science-archive/osa-go/internal/archive/service"
	"github.com/open-science-archive/osa-go/internal/archive/store"
	"github.com/open-science-archive/osa-go/pkg/httpx"
	"github.com/open-science-archive/osa-go/pkg/osasdk"
	"github.com/open-science-archive/osa-go/pkg/slogx"
)

// LoginHandler serves GET /auth/login.
//
// The real archive redirects to the identity provider here; this mock skips
// the round trip and 302s straight back to redirect_uri with the auth
// fragment for a seeded dev user. The optional "user" query parameter picks
// which one.
type LoginHandler struct {
	TokenService *service.TokenService
	UserService  *service.UserService

	// Providers the mock pretends to support; unknown values are rejected
	// just like the real server rejects unconfigured providers.
	Providers []string

	// DefaultRedirect receives the fragment when redirect_uri is absent,
	// standing in for the configured frontend URL.
	DefaultRedirect string
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	q := r.URL.Query()

	provider := q.Get("provider")
	if !slices.Contains(h.Providers, provider) {
		available := strings.Join(h.Providers, ", ")
		if available == "" {
			available = "none"
		}
		httpx.WriteError(w, http.StatusBadRequest, "unknown_provider",
			"Unknown provider: "+provider+". Available: "+available)
		return
	}

	user, err := h.UserService.GetDevUser(ctx, q.Get("user"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	pair, err := h.TokenService.IssueForUser(ctx, user)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	redirect := q.Get("redirect_uri")
	if redirect == "" {
		redirect = h.DefaultRedirect
	}

	params := url.Values{}
	params.Set("access_token", pair.AccessToken)
	params.Set("refresh_token", pair.RefreshToken)
	params.Set("token_type", pair.TokenType)
	params.Set("expires_in", strconv.FormatInt(int64(pair.ExpiresIn.Seconds()), 10))
	params.Set("user_id", user.ID)
	params.Set("display_name", user.DisplayName)
	params.Set("provider", user.Provider)
	params.Set("external_id", user.ExternalID)

	log.Info("dev login issued", "user_id", user.ID, "provider", user.Provider)
	http.Redirect(w, r, redirect+"#auth="+params.Encode(), http.StatusFound)
}

// RefreshHandler serves POST /auth/refresh. The presented refresh token is
// rotated; the worn-out one stops working immediately.
type RefreshHandler struct {
	TokenService *service.TokenService
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req osasdk.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid_request", "invalid request body")
		return
	}

	pair, err := h.TokenService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefresh):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_refresh_token", "Invalid refresh token")
		case errors.Is(err, service.ErrFamilyRevoked):
			httpx.WriteError(w, http.StatusUnauthorized, "token_family_revoked",
				"Token family revoked - please login again")
		case errors.Is(err, service.ErrRefreshExpired):
			httpx.WriteError(w, http.StatusUnauthorized, "refresh_token_expired", "Refresh token expired")
		case errors.Is(err, service.ErrUserNotFound):
			httpx.WriteError(w, http.StatusUnauthorized, "user_not_found", "User not found")
		default:
			writeDomainError(w, r, err)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, osasdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int64(pair.ExpiresIn.Seconds()),
	})
}

// LogoutHandler serves POST /auth/logout. Revoking an unknown token still
// reports success so a client can always discard its session.
type LogoutHandler struct {
	TokenService *service.TokenService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req osasdk.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid_request", "invalid request body")
		return
	}

	if err := h.TokenService.Revoke(ctx, req.RefreshToken); err != nil {
		writeDomainError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, osasdk.LogoutResponse{Success: true})
}

// MeHandler serves GET /auth/me. Identity provider fields come from the
// verified token; display name and roles are loaded fresh so role changes
// show up without a new login.
type MeHandler struct {
	UserService *service.UserService
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "user_not_found", "User not found")
		return
	}

	user, err := h.UserService.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusUnauthorized, "user_not_found", "User not found")
			return
		}
		writeDomainError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, osasdk.UserInfo{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Provider:    claims.Provider,
		ExternalID:  claims.ExternalID,
		Roles:       user.Roles,
	})
}
