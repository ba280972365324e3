package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

func (c *httpClient) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// postScore submits one report and classifies the outcome.
func (c *httpClient) postScore(ctx context.Context, url string, report scoreRequest) string {
	body, err := json.Marshal(report)
	if err != nil {
		return "failed"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "failed"
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "failed"
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case http.StatusAccepted:
		return "accepted"
	case http.StatusOK:
		var ack ackResponse
		if err := json.Unmarshal(raw, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "accepted"
	default:
		return "failed"
	}
}
