package osasdk

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// authCallbackParams is the transient parse result of a login redirect
// fragment. It lives only long enough to be converted into a StoredSession.
type authCallbackParams struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
	UserID       string
	DisplayName  string
	Provider     string
	ExternalID   string
}

// parseAuthFragment decodes a "#auth=<query-string>" fragment as delivered by
// the archive's login redirect. The leading "#" is optional so callers may
// pass either window-location style fragments or the bare value.
//
// access_token, refresh_token, expires_in, user_id and external_id are
// required; token_type defaults to "Bearer" and display_name to the empty
// string. Any missing required field or a non-numeric expires_in makes the
// whole fragment malformed.
func parseAuthFragment(fragment string) (authCallbackParams, error) {
	fragment = strings.TrimPrefix(fragment, "#")
	payload, found := strings.CutPrefix(fragment, "auth=")
	if !found {
		return authCallbackParams{}, fmt.Errorf("%w: no auth payload in fragment", ErrMalformedCallback)
	}

	values, err := url.ParseQuery(payload)
	if err != nil {
		return authCallbackParams{}, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}

	params := authCallbackParams{
		AccessToken:  values.Get("access_token"),
		RefreshToken: values.Get("refresh_token"),
		TokenType:    values.Get("token_type"),
		UserID:       values.Get("user_id"),
		DisplayName:  values.Get("display_name"),
		Provider:     values.Get("provider"),
		ExternalID:   values.Get("external_id"),
	}
	if params.TokenType == "" {
		params.TokenType = "Bearer"
	}

	for _, required := range []struct {
		key   string
		value string
	}{
		{"access_token", params.AccessToken},
		{"refresh_token", params.RefreshToken},
		{"user_id", params.UserID},
		{"external_id", params.ExternalID},
	} {
		if required.value == "" {
			return authCallbackParams{}, fmt.Errorf("%w: missing %s", ErrMalformedCallback, required.key)
		}
	}

	rawExpires := values.Get("expires_in")
	if rawExpires == "" {
		return authCallbackParams{}, fmt.Errorf("%w: missing expires_in", ErrMalformedCallback)
	}
	params.ExpiresIn, err = strconv.ParseInt(rawExpires, 10, 64)
	if err != nil {
		return authCallbackParams{}, fmt.Errorf("%w: expires_in %q is not a number", ErrMalformedCallback, rawExpires)
	}

	return params, nil
}

// session converts the parsed params into a persistable session. expiresAt is
// fixed at receipt time and never recomputed until the next refresh.
func (p authCallbackParams) session(now time.Time) StoredSession {
	return StoredSession{
		User: User{
			ID:          p.UserID,
			DisplayName: p.DisplayName,
			Provider:    p.Provider,
			ExternalID:  p.ExternalID,
		},
		Tokens: TokenPair{
			AccessToken:  p.AccessToken,
			RefreshToken: p.RefreshToken,
			ExpiresAt:    now.Add(time.Duration(p.ExpiresIn) * time.Second),
		},
	}
}
