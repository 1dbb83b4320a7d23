package archive_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type healthBody struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
	Checks  *struct {
		Database string `json:"database"`
		Signer   string `json:"signer"`
	} `json:"checks"`
}

func getHealth(t *testing.T, url string) (int, healthBody) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body healthBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

// TestLivezEndpoint verifies the liveness probe.
func TestLivezEndpoint(t *testing.T) {
	client := setupArchive(t)

	status, body := getHealth(t, client.BaseURL()+"/livez")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", body.Status)
	require.NotEmpty(t, body.Version)
	require.Nil(t, body.Checks, "liveness carries no dependency checks")
}

// TestReadyzEndpoint verifies the readiness probe reports its dependency
// checks.
func TestReadyzEndpoint(t *testing.T) {
	client := setupArchive(t)

	status, body := getHealth(t, client.BaseURL()+"/readyz")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", body.Status)
	require.NotNil(t, body.Checks)
	require.Equal(t, "ok", body.Checks.Database)
	require.Equal(t, "ok", body.Checks.Signer)
}
