package osasdk

import (
	"net/url"
	"strconv"
	"testing"

	"pgregory.net/rapid"
)

// Property: any fragment built from complete, well-encoded params parses back
// to exactly those params.
func TestProperty_FragmentRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		token := rapid.StringMatching(`[!-~]{1,64}`)

		params := authCallbackParams{
			AccessToken:  token.Draw(t, "accessToken"),
			RefreshToken: token.Draw(t, "refreshToken"),
			TokenType:    "Bearer",
			ExpiresIn:    rapid.Int64Range(1, 30*24*3600).Draw(t, "expiresIn"),
			UserID:       rapid.StringMatching(`[a-z0-9]{1,26}`).Draw(t, "userID"),
			DisplayName:  rapid.StringMatching(`[ -~]{0,40}`).Draw(t, "displayName"),
			Provider:     rapid.SampledFrom([]string{"orcid", "github", ""}).Draw(t, "provider"),
			ExternalID:   rapid.StringMatching(`[!-~]{1,40}`).Draw(t, "externalID"),
		}

		v := url.Values{}
		v.Set("access_token", params.AccessToken)
		v.Set("refresh_token", params.RefreshToken)
		v.Set("token_type", params.TokenType)
		v.Set("expires_in", strconv.FormatInt(params.ExpiresIn, 10))
		v.Set("user_id", params.UserID)
		v.Set("display_name", params.DisplayName)
		v.Set("external_id", params.ExternalID)
		if params.Provider != "" {
			v.Set("provider", params.Provider)
		}

		parsed, err := parseAuthFragment("#auth=" + v.Encode())
		if err != nil {
			t.Fatalf("valid fragment rejected: %v", err)
		}
		if parsed != params {
			t.Fatalf("round trip changed params:\n in  %#v\n out %#v", params, parsed)
		}
	})
}

// Property: removing any one required key makes the whole fragment malformed,
// and parsing never partially succeeds.
func TestProperty_FragmentMissingRequiredField(t *testing.T) {
	required := []string{"access_token", "refresh_token", "expires_in", "user_id", "external_id"}

	rapid.Check(t, func(t *rapid.T) {
		v := url.Values{}
		v.Set("access_token", rapid.StringMatching(`[!-~]{1,64}`).Draw(t, "accessToken"))
		v.Set("refresh_token", rapid.StringMatching(`[!-~]{1,64}`).Draw(t, "refreshToken"))
		v.Set("expires_in", strconv.FormatInt(rapid.Int64Range(1, 86400).Draw(t, "expiresIn"), 10))
		v.Set("user_id", rapid.StringMatching(`[a-z0-9]{1,26}`).Draw(t, "userID"))
		v.Set("external_id", rapid.StringMatching(`[!-~]{1,40}`).Draw(t, "externalID"))

		missing := rapid.SampledFrom(required).Draw(t, "missing")
		v.Del(missing)

		if _, err := parseAuthFragment("#auth=" + v.Encode()); err == nil {
			t.Fatalf("fragment without %s parsed successfully", missing)
		}
	})
}
