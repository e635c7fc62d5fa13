package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestContext holds shared state across scenario steps: the target server,
// the current bearer token, and the last HTTP exchange.
type TestContext struct {
	baseURL    string
	signingKey []byte
	client     *http.Client

	token      string
	lastStatus int
	lastBody   map[string]interface{}

	// saved values carried between steps (token ids, fingerprints)
	vars map[string]string
}

// NewTestContext builds a context targeting the server at E2E_BASE_URL.
// Tokens are minted locally with E2E_JWT_SIGNING_KEY, which must match the
// key the server was started with.
func NewTestContext() (*TestContext, error) {
	baseURL := os.Getenv("E2E_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("E2E_BASE_URL is not set")
	}
	key := os.Getenv("E2E_JWT_SIGNING_KEY")
	if key == "" {
		return nil, fmt.Errorf("E2E_JWT_SIGNING_KEY is not set")
	}
	return &TestContext{
		baseURL:    baseURL,
		signingKey: []byte(key),
		client:     &http.Client{Timeout: 10 * time.Second},
		vars:       make(map[string]string),
	}, nil
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.token = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.vars = make(map[string]string)
}

// AuthenticateAs signs a token for the given account and uses it on
// subsequent requests.
func (tc *TestContext) AuthenticateAs(account string, admin bool) error {
	now := time.Now()
	claims := jwt.MapClaims{
		"account": account,
		"iss":     "blocktrust",
		"aud":     "registry-api",
		"iat":     now.Unix(),
		"exp":     now.Add(15 * time.Minute).Unix(),
	}
	if admin {
		claims["admin"] = true
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.signingKey)
	if err != nil {
		return fmt.Errorf("signing token: %w", err)
	}
	tc.token = signed
	return nil
}

// ClearAuthentication drops the bearer token.
func (tc *TestContext) ClearAuthentication() {
	tc.token = ""
}

// POST sends a JSON body to the given path.
func (tc *TestContext) POST(path string, body interface{}) error {
	return tc.do(http.MethodPost, path, body)
}

// GET fetches the given path.
func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

// DELETE sends a DELETE to the given path.
func (tc *TestContext) DELETE(path string) error {
	return tc.do(http.MethodDelete, path, nil)
}

func (tc *TestContext) do(method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody = nil

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if len(raw) > 0 {
		var parsed map[string]interface{}
		if err := json.Unmarshal(raw, &parsed); err == nil {
			tc.lastBody = parsed
		}
	}
	return nil
}

// LastStatus returns the status code of the most recent response.
func (tc *TestContext) LastStatus() int {
	return tc.lastStatus
}

// GetResponseField returns a field from the most recent JSON response.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	if tc.lastBody == nil {
		return nil, fmt.Errorf("no JSON body in last response")
	}
	value, ok := tc.lastBody[field]
	if !ok {
		return nil, fmt.Errorf("field %q not present in response", field)
	}
	return value, nil
}

// ResponseContains reports whether the last JSON response has the field.
func (tc *TestContext) ResponseContains(field string) bool {
	_, ok := tc.lastBody[field]
	return ok
}

// SaveVar stores a value for a later step.
func (tc *TestContext) SaveVar(name, value string) {
	tc.vars[name] = value
}

// GetVar returns a value saved by an earlier step.
func (tc *TestContext) GetVar(name string) (string, error) {
	value, ok := tc.vars[name]
	if !ok {
		return "", fmt.Errorf("no saved value named %q", name)
	}
	return value, nil
}
