/* client.go
 * Contains the HTTP client for the G5 match-hosting api. Every request is throttled by a shared rate limiter and
 * failures are classified into not found, unauthorized and connection errors
 * Authors: Zachary Bower
 */

package external

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var ErrNotFound = errors.New("resource not found on match api")
var ErrUnauthorized = errors.New("match api rejected the api key")
var ErrConnection = errors.New("match api unreachable")

// APIError is any other non 2xx response from the match api
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("match api returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to a G5 api instance
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Client for the api at baseURL
// Preconditions: Receives the api base url, api key and the allowed requests per second (<= 0 disables throttling)
// Postconditions: Returns the client, or an error if the base url is empty
func NewClient(baseURL string, apiKey string, requestsPerSecond float64) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required but none was provided")
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(limit, 5),
	}, nil
}

// do sends a request and decodes the json response into out (if not nil)
func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("User-Agent", "G5DiscordBot/1.0")
	request.Header.Set("Accept-Encoding", "gzip")
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("user-api", c.APIKey)

	response, err := c.HTTP.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrConnection, method, path, err)
	}
	defer response.Body.Close()

	data, err := readBody(response)
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %v", ErrConnection, err)
	}

	switch {
	case response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s %s", ErrUnauthorized, method, path)
	case response.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	case response.StatusCode >= 300:
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &msg)
		return &APIError{StatusCode: response.StatusCode, Message: msg.Message}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error parsing JSON from %s: %w", path, err)
	}
	return nil
}

// readBody reads the response body, decompressing it when the api answered with gzip
func readBody(response *http.Response) ([]byte, error) {
	if response.Header.Get("Content-Encoding") == "gzip" {
		reader, err := gzip.NewReader(response.Body)
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		return io.ReadAll(reader)
	}
	return io.ReadAll(response.Body)
}

// IsRetryable reports whether err is a transient failure the poller may try again later: the api could not be
// reached, it is rate limiting or it answered with a server error
func IsRetryable(err error) bool {
	if errors.Is(err, ErrConnection) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}
