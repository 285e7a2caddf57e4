package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// queryTimeout bounds one forwarded query, embedding latency included.
const queryTimeout = 30 * time.Second

// Client forwards tool invocations to the query API over HTTP. Every
// failure mode is rendered as text: the tool host receives a diagnostic
// string, never a transport fault.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a forwarding client for the query API at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: queryTimeout,
		},
	}
}

// Search posts the prompt to the query API and returns the response as
// display text: pretty-printed JSON on success, the error body on a
// non-200 status, and a description of the failure on transport errors.
func (c *Client) Search(ctx context.Context, prompt string) string {
	payload, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return fmt.Sprintf("error building request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(payload))
	if err != nil {
		return fmt.Sprintf("error building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("error calling query service: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("error reading response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	return prettyJSON(body)
}

// prettyJSON indents the payload for display. Indenting preserves the
// original bytes, so non-ASCII text stays unescaped.
func prettyJSON(body []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}
