package archive_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/open-science-archive/osa-go/pkg/osasdk"
	"github.com/stretchr/testify/require"
)

// postRefresh exchanges a refresh token over raw HTTP, bypassing the SDK, so
// tests can replay tokens the SDK has already rotated away.
func postRefresh(t *testing.T, baseURL, refreshToken string) (int, string) {
	t.Helper()

	body, err := json.Marshal(osasdk.RefreshRequest{RefreshToken: refreshToken})
	require.NoError(t, err)

	resp, err := http.Post(baseURL+"/auth/refresh", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return resp.StatusCode, ""
	}

	var envelope struct {
		Detail struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp.StatusCode, envelope.Detail.Code
}

// TestLoginCallbackCurrentUser tests the complete login flow:
// 1. Build the login URL and follow it to the redirect
// 2. Hand the fragment to the SDK callback handler
// 3. Verify the stored session and fetch /auth/me through the SDK
func TestLoginCallbackCurrentUser(t *testing.T) {
	client := setupArchive(t)

	session := loginAs(t, client, depositorHandle)
	assertSessionTokens(t, session)

	require.Equal(t, depositorName, session.User.DisplayName)
	require.Equal(t, "orcid", session.User.Provider)
	require.Equal(t, depositorORCID, session.User.ExternalID)
	require.True(t, client.Auth.IsAuthenticated(), "client should be authenticated after callback")

	t.Logf("Login successful, user_id=%s", session.User.ID)

	info, err := client.Auth.CurrentUser(t.Context())
	require.NoError(t, err)
	require.NotNil(t, info, "authenticated /auth/me should return a user")
	require.Equal(t, session.User.ID, info.ID)
	require.Equal(t, depositorName, info.DisplayName)
	require.Equal(t, "orcid", info.Provider)
	require.Equal(t, depositorORCID, info.ExternalID)
	require.Contains(t, info.Roles, "depositor", "seeded depositor should carry the depositor role")

	t.Logf("CurrentUser: id=%s roles=%v", info.ID, info.Roles)
}

// TestLoginDefaultUser verifies that a login URL without a user parameter
// selects the default seeded identity.
func TestLoginDefaultUser(t *testing.T) {
	client := setupArchive(t)

	session := loginAs(t, client, "")
	assertSessionTokens(t, session)
	require.Equal(t, depositorName, session.User.DisplayName, "default dev user should be Josiah Carberry")
}

// TestLoginUnknownProvider verifies that an unconfigured identity provider is
// rejected with a 400 before any tokens are issued.
func TestLoginUnknownProvider(t *testing.T) {
	client := setupArchive(t)

	resp, err := noRedirect.Get(client.Auth.LoginURL("carrierpigeon", callbackURI))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var envelope struct {
		Detail struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, "unknown_provider", envelope.Detail.Code)
	require.Contains(t, envelope.Detail.Message, "carrierpigeon")
	require.Contains(t, envelope.Detail.Message, "orcid", "message should list the configured providers")
}

// TestRefreshRotationAndReplay tests refresh token family semantics:
// 1. Login and refresh once; both tokens must rotate
// 2. Replay the worn-out refresh token; the whole family is revoked
// 3. The rotated successor stops working too
func TestRefreshRotationAndReplay(t *testing.T) {
	client := setupArchive(t, osasdk.WithAutoRefresh(false))

	session := loginAs(t, client, depositorHandle)
	oldAccess := session.Tokens.AccessToken
	oldRefresh := session.Tokens.RefreshToken

	pair, err := client.Auth.Refresh(t.Context())
	require.NoError(t, err)
	require.NotEqual(t, oldAccess, pair.AccessToken, "access token should be rotated")
	require.NotEqual(t, oldRefresh, pair.RefreshToken, "refresh token should be rotated")

	t.Logf("Refresh successful, tokens rotated")

	// Replaying the pre-rotation token is the reuse signal; the server burns
	// the family.
	status, code := postRefresh(t, client.BaseURL(), oldRefresh)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "token_family_revoked", code)

	t.Logf("Replay rejected with %s", code)

	// The successor minted moments ago is collateral damage.
	status, code = postRefresh(t, client.BaseURL(), pair.RefreshToken)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "token_family_revoked", code)

	// The SDK's refresh now fails closed and clears the session.
	_, err = client.Auth.Refresh(t.Context())
	require.ErrorIs(t, err, osasdk.ErrRefreshFailed)
	require.Nil(t, client.Auth.StoredAuth(), "failed refresh should clear the stored session")
}

// TestRefreshUnknownToken verifies that a token the archive never issued is
// rejected as invalid rather than burning anything.
func TestRefreshUnknownToken(t *testing.T) {
	client := setupArchive(t)

	status, code := postRefresh(t, client.BaseURL(), "never-issued-token")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "invalid_refresh_token", code)
}

// TestLogout tests the logout flow:
// 1. Login, then logout through the SDK
// 2. Local session is gone
// 3. The revoked refresh token is dead server-side
func TestLogout(t *testing.T) {
	client := setupArchive(t)

	session := loginAs(t, client, depositorHandle)
	refreshToken := session.Tokens.RefreshToken

	require.NoError(t, client.Auth.Logout(t.Context()))
	require.Nil(t, client.Auth.StoredAuth(), "logout should clear the stored session")
	require.False(t, client.Auth.IsAuthenticated())

	status, code := postRefresh(t, client.BaseURL(), refreshToken)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "token_family_revoked", code, "logout should revoke the token family")

	// Logging out again with no session is a no-op.
	require.NoError(t, client.Auth.Logout(t.Context()))
}

// TestCurrentUserUnauthenticated verifies that /auth/me without credentials
// reports "no user" rather than an error.
func TestCurrentUserUnauthenticated(t *testing.T) {
	client := setupArchive(t)

	info, err := client.Auth.CurrentUser(t.Context())
	require.NoError(t, err)
	require.Nil(t, info, "unauthenticated /auth/me should yield no user")
}

// TestStaleAccessTokenRecovery tests the 401-recovery path end to end:
// 1. Login, then clobber the stored access token while keeping the refresh token
// 2. The next API call eats a 401, refreshes once, and replays to a 200
func TestStaleAccessTokenRecovery(t *testing.T) {
	store := osasdk.NewMemorySessionStore()
	client := setupArchive(t, osasdk.WithSessionStore(store), osasdk.WithAutoRefresh(false))

	session := loginAs(t, client, depositorHandle)

	// An access token the signer never issued, standing in for one that
	// expired or outlived a key rotation.
	broken := *session
	broken.Tokens.AccessToken = "stale-access-token"
	require.NoError(t, store.Store(broken))

	info, err := client.Auth.CurrentUser(t.Context())
	require.NoError(t, err)
	require.NotNil(t, info, "one refresh and replay should recover the 401")
	require.Equal(t, session.User.ID, info.ID)

	fresh := store.Load()
	require.NotNil(t, fresh)
	require.NotEqual(t, broken.Tokens.AccessToken, fresh.Tokens.AccessToken)
	require.NotEqual(t, session.Tokens.RefreshToken, fresh.Tokens.RefreshToken,
		"the recovery refresh rotates the refresh token")
}
