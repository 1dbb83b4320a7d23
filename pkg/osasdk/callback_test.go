package osasdk

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validFragmentValues() url.Values {
	v := url.Values{}
	v.Set("access_token", "at-12345")
	v.Set("refresh_token", "rt-67890")
	v.Set("token_type", "Bearer")
	v.Set("expires_in", "3600")
	v.Set("user_id", "01jd2qz7v8")
	v.Set("display_name", "Josiah Carberry")
	v.Set("provider", "orcid")
	v.Set("external_id", "0000-0002-1825-0097")
	return v
}

func TestParseAuthFragment(t *testing.T) {
	t.Parallel()

	t.Run("full fragment", func(t *testing.T) {
		params, err := parseAuthFragment("#auth=" + validFragmentValues().Encode())
		require.NoError(t, err)
		require.Equal(t, "at-12345", params.AccessToken)
		require.Equal(t, "rt-67890", params.RefreshToken)
		require.Equal(t, "Bearer", params.TokenType)
		require.EqualValues(t, 3600, params.ExpiresIn)
		require.Equal(t, "01jd2qz7v8", params.UserID)
		require.Equal(t, "Josiah Carberry", params.DisplayName)
		require.Equal(t, "orcid", params.Provider)
		require.Equal(t, "0000-0002-1825-0097", params.ExternalID)
	})

	t.Run("leading hash optional", func(t *testing.T) {
		params, err := parseAuthFragment("auth=" + validFragmentValues().Encode())
		require.NoError(t, err)
		require.Equal(t, "at-12345", params.AccessToken)
	})

	t.Run("token type defaults to Bearer", func(t *testing.T) {
		v := validFragmentValues()
		v.Del("token_type")
		params, err := parseAuthFragment("#auth=" + v.Encode())
		require.NoError(t, err)
		require.Equal(t, "Bearer", params.TokenType)
	})

	t.Run("display name defaults to empty", func(t *testing.T) {
		v := validFragmentValues()
		v.Del("display_name")
		params, err := parseAuthFragment("#auth=" + v.Encode())
		require.NoError(t, err)
		require.Empty(t, params.DisplayName)
	})

	t.Run("missing required field", func(t *testing.T) {
		for _, field := range []string{"access_token", "refresh_token", "expires_in", "user_id", "external_id"} {
			v := validFragmentValues()
			v.Del(field)
			_, err := parseAuthFragment("#auth=" + v.Encode())
			require.ErrorIs(t, err, ErrMalformedCallback, "field %s", field)
			require.Contains(t, err.Error(), field)
		}
	})

	t.Run("non-numeric expires_in", func(t *testing.T) {
		v := validFragmentValues()
		v.Set("expires_in", "soon")
		_, err := parseAuthFragment("#auth=" + v.Encode())
		require.ErrorIs(t, err, ErrMalformedCallback)
	})

	t.Run("no auth payload", func(t *testing.T) {
		_, err := parseAuthFragment("#access_token=x&refresh_token=y")
		require.ErrorIs(t, err, ErrMalformedCallback)
	})

	t.Run("empty fragment", func(t *testing.T) {
		_, err := parseAuthFragment("")
		require.ErrorIs(t, err, ErrMalformedCallback)
	})

	t.Run("broken percent encoding", func(t *testing.T) {
		_, err := parseAuthFragment("#auth=access_token=%zz&refresh_token=a&expires_in=1&user_id=b&external_id=c")
		require.ErrorIs(t, err, ErrMalformedCallback)
	})
}

func TestAuthCallbackParamsSession(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	params := authCallbackParams{
		AccessToken:  "at",
		RefreshToken: "rt",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		UserID:       "user-1",
		DisplayName:  "Someone",
		Provider:     "orcid",
		ExternalID:   "ext-1",
	}

	session := params.session(now)
	require.Equal(t, "user-1", session.User.ID)
	require.Equal(t, "Someone", session.User.DisplayName)
	require.Equal(t, "orcid", session.User.Provider)
	require.Equal(t, "ext-1", session.User.ExternalID)
	require.Equal(t, "at", session.Tokens.AccessToken)
	require.Equal(t, "rt", session.Tokens.RefreshToken)
	require.Equal(t, now.Add(time.Hour), session.Tokens.ExpiresAt)
}
