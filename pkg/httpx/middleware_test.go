package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/open-science-archive/osa-go/pkg/httpx"
	"github.com/open-science-archive/osa-go/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var order []string
	tag := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), tag("first"), tag("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestAuthnMiddleware(t *testing.T) {
	t.Parallel()

	km, err := jwtx.NewEphemeralKeyManager("https://archive.test")
	require.NoError(t, err)

	var gotUserID string
	var gotRoles []string
	handler := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = httpx.UserIDFromContext(r.Context())
		gotRoles = r.Context().Value(httpx.CtxKeyRoles).([]string)
		w.WriteHeader(http.StatusOK)
	}), httpx.AuthnMiddleware(km.Verifier))

	t.Run("valid token passes identity through", func(t *testing.T) {
		identity := jwtx.Identity{Provider: "orcid", ExternalID: "0000-0002-1825-0097", Roles: []string{"depositor"}}
		claims := jwtx.NewAccessClaims("user-1", identity, "https://archive.test", time.Minute, time.Now().UTC())
		token, err := km.Signer.Sign(claims)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "user-1", gotUserID)
		require.Equal(t, []string{"depositor"}, gotRoles)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
		require.Contains(t, rec.Body.String(), "missing_token")
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid_token")
	})
}

func TestRequireAnyRole(t *testing.T) {
	t.Parallel()

	km, err := jwtx.NewEphemeralKeyManager("https://archive.test")
	require.NoError(t, err)

	handler := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}),
		httpx.AuthnMiddleware(km.Verifier),
		httpx.RequireAnyRole("admin", "curator"),
	)

	request := func(roles []string) *httptest.ResponseRecorder {
		identity := jwtx.Identity{Provider: "orcid", ExternalID: "x", Roles: roles}
		claims := jwtx.NewAccessClaims("user-1", identity, "https://archive.test", time.Minute, time.Now().UTC())
		token, err := km.Signer.Sign(claims)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, request([]string{"curator"}).Code)
	require.Equal(t, http.StatusOK, request([]string{"depositor", "admin"}).Code)

	rec := request([]string{"depositor"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "access_denied")
}
