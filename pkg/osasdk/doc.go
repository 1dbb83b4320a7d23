/*
Package osasdk provides a client SDK for the Open Science Archive API.

# Overview

The SDK wraps the archive's HTTP API behind typed namespaces and owns the
full authentication token lifecycle: acquisition via the OAuth redirect
callback, persistent storage, expiry-aware refresh (manual and scheduled),
single-retry recovery from authorization failures, and logout.

# Client and Namespaces

Construct one Client per archive and share it; it is safe for concurrent use:

	client, err := osasdk.New("https://archive.example.org",
		osasdk.WithSessionStore(store),
		osasdk.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	// Authenticated and unauthenticated API access
	results, err := client.Search.Query(ctx, "records", "soil carbon", osasdk.SearchOptions{Limit: 20})
	depositionSRN, err := client.Depositions.Create(ctx, conventionSRN)

The Client exposes namespaces as fields (Auth, Search, Depositions, Records,
Conventions). There is no package-level singleton: construct the client once
at application start and inject it.

# Authentication Flow

Login happens in a browser. The SDK builds the login URL, the application
navigates there, and the archive redirects back with a URL fragment carrying
the tokens:

	loginURL := client.Auth.LoginURL("orcid", "https://app.example.org/callback")
	// ... user completes the provider flow; the archive redirects to
	// https://app.example.org/callback#auth=access_token=...&refresh_token=...

	session, err := client.Auth.HandleCallback(fragment)
	if errors.Is(err, osasdk.ErrMalformedCallback) {
		// show a generic authentication error; nothing was stored
	}

HandleCallback persists the session and, when auto-refresh is enabled, arms a
timer to renew the access token shortly before it expires.

# Token Refresh

Requests issued through the namespaces carry the stored bearer token. When a
request comes back 401 and a refresh token is available, the SDK refreshes
once and replays the original request once; the second response is returned
as-is. Concurrent refreshes (timer-fired, manual, 401-driven) are collapsed
into a single in-flight call so a rotated refresh token is never spent twice.

Refresh is fail-closed: if the archive rejects the refresh token, or the
refresh call cannot be completed at all, the stored session is cleared and
ErrRefreshFailed is returned. The caller must send the user back to login.

# Session Storage

Sessions persist through the SessionStore interface. FileSessionStore writes
a single JSON document under the user config directory and survives process
restarts; MemorySessionStore keeps the session in memory for tests and
short-lived processes. A malformed or partially-written record is treated as
absent, never as a half-valid session.

# Error Handling

  - ErrMalformedCallback: the redirect fragment was missing a required field;
    storage untouched.
  - ErrRefreshFailed: refresh rejected or failed; session already cleared.
  - ErrNotAuthenticated: an operation needed a session that is not there.
  - ErrInvalidResponse: the archive answered 2xx with a body that does not
    parse; surfaced instead of propagating zero values.
  - *APIError: any non-2xx API response, carrying the archive's status, code
    and message.

Transport errors pass through wrapped and unmodified; they are never retried
by this layer.
*/
package osasdk
