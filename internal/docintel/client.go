// Package docintel is a client for the asynchronous analyze operation of the
// Azure Document Intelligence REST API: submit a document, poll the operation
// until it reaches a terminal state, then download the rendered result.
package docintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	jitterbug "github.com/lthibault/jitterbug/v2"

	"github.com/Lllllllleong/searchabledocflow/internal/models"
)

// Protocol constants of the analyze REST contract. The API version is part
// of the wire protocol, not a tunable.
const (
	APIVersion = "2024-07-31-preview"
	ModelID    = "prebuilt-read"

	headerAPIKey            = "Ocp-Apim-Subscription-Key"
	headerOperationLocation = "Operation-Location"
)

// DefaultPollInterval matches the service's documented guidance for the
// analyze operation.
const DefaultPollInterval = 5 * time.Second

// Config holds the settings for a Client.
type Config struct {
	// Endpoint is the resource base URL. A trailing slash is tolerated.
	Endpoint string
	// APIKey is sent verbatim as the subscription key header value.
	APIKey string
	// PollInterval is the base delay between status polls. Zero selects
	// DefaultPollInterval.
	PollInterval time.Duration
	// PollJitter is the standard deviation of normal jitter applied to the
	// poll interval. Zero disables jitter.
	PollJitter time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client drives the submit/poll/fetch lifecycle for one analyze operation at
// a time. It holds no per-operation state and is safe for reuse.
type Client struct {
	endpoint     string
	apiKey       string
	pollInterval time.Duration
	pollJitter   time.Duration
	httpClient   *http.Client
}

// New creates a Client from cfg.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Bounds a single exchange, not the whole operation.
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Client{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		pollInterval: pollInterval,
		pollJitter:   cfg.PollJitter,
		httpClient:   httpClient,
	}
}

// Submit posts the base64-encoded document for analysis and returns the
// result id of the accepted operation. Success is exactly HTTP 202 with an
// Operation-Location header; anything else fails the submission.
func (c *Client) Submit(ctx context.Context, base64Source string) (string, error) {
	body, err := json.Marshal(models.AnalyzeRequest{Base64Source: base64Source})
	if err != nil {
		return "", fmt.Errorf("marshal analyze request: %w", err)
	}

	submitURL := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?_overload=analyzeDocument&api-version=%s&output=pdf",
		c.endpoint, ModelID, APIVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, submitURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIKey, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit analyze request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", newStatusError(StageSubmit, resp)
	}

	location := resp.Header.Get(headerOperationLocation)
	if location == "" {
		return "", ErrNoOperationLocation
	}
	return resultIDFromOperationLocation(location)
}

// WaitForCompletion polls the operation status until the service reports
// completion. HTTP 200 ends the wait; 202 means still running and schedules
// another poll after the (jittered) interval; any other status is terminal
// failure. The loop itself is unbounded, so callers impose a deadline or
// cancellation through ctx.
func (c *Client) WaitForCompletion(ctx context.Context, resultID string) error {
	pollURL := c.resultURL(resultID) + "?api-version=" + APIVersion

	ticker := jitterbug.New(c.pollInterval, &jitterbug.Norm{Stdev: c.pollJitter})
	defer ticker.Stop()

	for {
		done, err := c.pollOnce(ctx, pollURL)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		slog.Debug("Analyze operation still running.", "resultId", resultID, "pollInterval", c.pollInterval.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// FetchSearchablePDF downloads the rendered searchable PDF of a completed
// operation.
func (c *Client) FetchSearchablePDF(ctx context.Context, resultID string) ([]byte, error) {
	fetchURL := c.resultURL(resultID) + "/pdf?api-version=" + APIVersion
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create fetch request: %w", err)
	}
	req.Header.Set(headerAPIKey, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch searchable pdf: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(StageFetch, resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read searchable pdf body: %w", err)
	}
	return data, nil
}

func (c *Client) pollOnce(ctx context.Context, pollURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
	if err != nil {
		return false, fmt.Errorf("create poll request: %w", err)
	}
	req.Header.Set(headerAPIKey, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("poll analyze operation: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusAccepted:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	default:
		return false, newStatusError(StagePoll, resp)
	}
}

func (c *Client) resultURL(resultID string) string {
	return fmt.Sprintf("%s/documentintelligence/documentModels/%s/analyzeResults/%s", c.endpoint, ModelID, resultID)
}

// resultIDFromOperationLocation extracts the operation handle: the last path
// segment of the header URL, with any query string stripped.
func resultIDFromOperationLocation(location string) (string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parse %s header: %w", headerOperationLocation, err)
	}
	id := path.Base(u.Path)
	if id == "" || id == "." || id == "/" {
		return "", fmt.Errorf("no result id in %s header %q", headerOperationLocation, location)
	}
	return id, nil
}
