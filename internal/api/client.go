package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrConnectivity wraps transport failures where no response arrived.
// The message is what the user sees near the failed action.
var ErrConnectivity = errors.New("error de conexión, verifica tu conexión a internet")

// APIError is a request the backend rejected with a message body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Client issues REST calls against the carpool backend. A bearer token is
// attached per call; the client itself holds no session state.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the given backend base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Do performs a single request. A nil body sends no payload; any other
// body is JSON-encoded. Responses with status >= 400 become *APIError with
// the server's message verbatim; transport failures wrap ErrConnectivity.
func (c *Client) Do(ctx context.Context, method, path, token string, body any) ([]byte, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}

	if resp.StatusCode >= 400 {
		return nil, decodeError(resp.StatusCode, data)
	}
	return data, nil
}

func (c *Client) Get(ctx context.Context, path, token string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, token, nil)
}

func (c *Client) Post(ctx context.Context, path, token string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, path, token, body)
}

func (c *Client) Put(ctx context.Context, path, token string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPut, path, token, body)
}

func (c *Client) Patch(ctx context.Context, path, token string) ([]byte, error) {
	return c.Do(ctx, http.MethodPatch, path, token, nil)
}

func (c *Client) Delete(ctx context.Context, path, token string) ([]byte, error) {
	return c.Do(ctx, http.MethodDelete, path, token, nil)
}

// decodeError extracts the server's message. Backends here answer either
// {"message": ...} or {"error": ...}; anything else gets a generic text.
func decodeError(status int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := payload.Message
	if msg == "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = "error en la solicitud"
	}
	return &APIError{Status: status, Message: msg}
}
