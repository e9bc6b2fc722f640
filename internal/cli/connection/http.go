package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/postvote-go/internal/infra/buildinfo"
)

// DefaultTimeout is the per request timeout when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Options configures an HTTPClient.
type Options struct {
	// UserID and Token are sent as "Authorization: Bearer <user_id>:<token>"
	// when both are set.
	UserID string
	Token  string

	// TLS configures https:// servers. Nil uses the system defaults.
	TLS *tls.Config

	Timeout time.Duration
}

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	userID  string
	token   string
}

// NewHTTPClient creates a new HTTP client. A server without a scheme is
// reached over plain http.
func NewHTTPClient(server string, opts Options) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.TLS != nil {
		transport.TLSClientConfig = opts.TLS
	}

	return &HTTPClient{
		baseURL: baseURL,
		userID:  opts.UserID,
		token:   opts.Token,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.addHeaders(req)
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.addHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.client.Do(req)
}

func (c *HTTPClient) addHeaders(req *http.Request) {
	if c.userID != "" && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.userID+":"+c.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "postvote-cli/"+buildinfo.Version)
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// HasCredentials reports whether requests carry a session.
func (c *HTTPClient) HasCredentials() bool {
	return c.userID != "" && c.token != ""
}

// APIError is a failed request as reported by the server.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
	Details   map[string]any
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// successCode is the envelope code of successful responses.
const successCode = "OK"

// envelope is the server's response wrapper.
type envelope struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
	Details   map[string]any  `json:"details"`
}

// ParseResponse reads the envelope from resp and decodes its data into
// target. Status codes >= 400 return *APIError; data sent along with the
// error, such as the body of a failed readiness check, still reaches target.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil && env.Code != successCode {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
			apiErr.RequestID = env.RequestID
			apiErr.Details = env.Details
		}
		if decodeErr == nil && target != nil && len(env.Data) > 0 {
			json.Unmarshal(env.Data, target)
		}
		if apiErr.Code == "" {
			apiErr.Code = resp.Header.Get("X-Error-Code")
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("parse response: %w", decodeErr)
	}
	if target != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return fmt.Errorf("parse response data: %w", err)
		}
	}
	return nil
}
