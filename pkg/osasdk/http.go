package osasdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
)

// pipeline performs all HTTP traffic for the client. It injects the stored
// bearer token into outgoing requests and recovers from at most one
// authorization failure per call by refreshing and replaying the request.
//
// The refresh hook is wired after construction: the session manager issues
// its own calls through this pipeline, so neither side can be built first
// with a reference to the other.
type pipeline struct {
	baseURL string
	client  *http.Client
	store   SessionStore
	log     *slog.Logger

	mu      sync.RWMutex
	refresh func(ctx context.Context) error
}

func newPipeline(baseURL string, client *http.Client, store SessionStore, log *slog.Logger) *pipeline {
	return &pipeline{
		baseURL: baseURL,
		client:  client,
		store:   store,
		log:     log,
	}
}

// setRefresh wires the hook invoked on a 401. Passing nil disables the
// refresh-and-replay path.
func (p *pipeline) setRefresh(fn func(ctx context.Context) error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refresh = fn
}

func (p *pipeline) refreshFunc() func(ctx context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.refresh
}

// url builds a complete URL by appending the path to the base URL.
func (p *pipeline) url(path string) string {
	return p.baseURL + path
}

// newRequest builds a request with the caller's headers and, when a session
// is stored, an Authorization header. Caller headers other than
// Authorization are never overwritten.
func (p *pipeline) newRequest(
	ctx context.Context,
	method, path string,
	body []byte,
	headers map[string]string,
	accessToken string,
) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return req, nil
}

// do sends one request through the authorization-recovery path. The body is
// taken as bytes so the request can be replayed byte-identical after a
// refresh.
//
// A 401 triggers at most one refresh-and-replay. When the replay happens its
// response is returned whatever its status; when the refresh fails the
// original 401 is returned and the refresh error is dropped, because the
// caller's signal in both cases is the status code.
func (p *pipeline) do(
	ctx context.Context,
	method, path string,
	body []byte,
	headers map[string]string,
) (*http.Response, error) {
	session := p.store.Load()

	var token string
	if session != nil {
		token = session.Tokens.AccessToken
	}

	req, err := p.newRequest(ctx, method, path, body, headers, token)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	if session == nil || session.Tokens.RefreshToken == "" {
		return resp, nil
	}
	refresh := p.refreshFunc()
	if refresh == nil {
		return resp, nil
	}

	if err := refresh(ctx); err != nil {
		p.log.Debug("token refresh after 401 failed", "method", method, "path", path, "error", err)
		return resp, nil
	}

	// The replay replaces the first response, so release it before reuse.
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	token = ""
	if fresh := p.store.Load(); fresh != nil {
		token = fresh.Tokens.AccessToken
	}

	retryReq, err := p.newRequest(ctx, method, path, body, headers, token)
	if err != nil {
		return nil, err
	}

	p.log.Debug("replaying request after refresh", "method", method, "path", path)

	retryResp, err := p.client.Do(retryReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return retryResp, nil
}

// doDirect sends one request without bearer injection and without the
// 401-recovery path. The token endpoints themselves go through here; routing
// them through do would recurse into refresh on a rejected refresh.
func (p *pipeline) doDirect(
	ctx context.Context,
	method, path string,
	body []byte,
	headers map[string]string,
) (*http.Response, error) {
	req, err := p.newRequest(ctx, method, path, body, headers, "")
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// doJSON marshals the request body (when non-nil), sends the request with a
// JSON content type, and decodes the response into target.
func (p *pipeline) doJSON(
	ctx context.Context,
	method, path string,
	reqBody any,
	target any,
	expectedStatus int,
) error {
	var body []byte
	headers := map[string]string{"Accept": "application/json"}

	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = data
		headers["Content-Type"] = "application/json"
	}

	resp, err := p.do(ctx, method, path, body, headers)
	if err != nil {
		return err
	}
	return decodeJSON(resp, target, expectedStatus)
}

// decodeJSON decodes a JSON response into the target. Non-expected statuses
// become an *APIError; a success body that does not decode is reported as
// ErrInvalidResponse.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseAPIError(resp.StatusCode, bodyBytes)
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// checkStatus consumes the response body and returns a typed error unless
// the status matches.
func checkStatus(resp *http.Response, expectedStatus int) error {
	defer resp.Body.Close()

	if resp.StatusCode != expectedStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return parseAPIError(resp.StatusCode, bodyBytes)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// readBinary consumes the response as raw bytes, returning a typed error on
// a non-expected status. The Content-Disposition filename is returned when
// present.
func readBinary(resp *http.Response, expectedStatus int) ([]byte, string, error) {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != expectedStatus {
		return nil, "", parseAPIError(resp.StatusCode, bodyBytes)
	}

	return bodyBytes, dispositionFilename(resp.Header.Get("Content-Disposition")), nil
}
