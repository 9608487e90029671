// Package remote talks to the KnowledgeOS backend over HTTP.
//
// The backend exposes two endpoints: POST /audio accepts a raw sample
// chunk and returns whatever the server made of it, and GET /status
// reports the server-side session view. The two calls are independent
// and may be arbitrarily interleaved.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tylertzm/KnowledgeOS/internal/types"
)

const sessionHeader = "Session-Id"

// Client is an HTTP client for the backend API.
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL. Every request
// carries sessionID in the Session-Id header.
func NewClient(baseURL, sessionID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		sessionID: sessionID,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type audioRequest struct {
	Audio []float32 `json:"audio"`
}

// SendAudio uploads one chunk of samples and returns the backend's
// transcription result. A non-2xx status or transport failure is an
// error; the caller decides whether to drop or report it.
func (c *Client) SendAudio(ctx context.Context, samples []float32) (types.AudioResult, error) {
	var result types.AudioResult

	body, err := json.Marshal(audioRequest{Audio: samples})
	if err != nil {
		return result, fmt.Errorf("marshal audio: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio", bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sessionHeader, c.sessionID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result, fmt.Errorf("send audio: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return result, fmt.Errorf("audio api error: %d - %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		return result, fmt.Errorf("unmarshal audio result: %w", err)
	}
	return result, nil
}

// Status fetches the server-side session state.
func (c *Client) Status(ctx context.Context) (types.StatusResult, error) {
	var result types.StatusResult

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return result, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(sessionHeader, c.sessionID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result, fmt.Errorf("get status: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return result, fmt.Errorf("status api error: %d - %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, &result); err != nil {
		return result, fmt.Errorf("unmarshal status: %w", err)
	}
	return result, nil
}
