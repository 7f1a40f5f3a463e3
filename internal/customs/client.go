package customs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lumbung-wms/lumbung-wms/internal/platform/httpx"
)

const defaultRequestTimeout = 15 * time.Second

// Client submits customs documents to the CEISA gateway. One attempt per
// submission; the caller decides whether a failed document is resubmitted.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewClient constructs a CEISA client.
func NewClient(endpoint, token string, timeout time.Duration) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("ceisa endpoint required")
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// SubmitResult carries the gateway's verdict on one submission.
type SubmitResult struct {
	StatusCode int
	Body       string
}

// Submit posts one document payload. A transport failure or a non-2xx status
// is reported as an upstream error alongside whatever the gateway returned.
func (c *Client) Submit(ctx context.Context, docType DocType, payload map[string]any) (SubmitResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return SubmitResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/v1/documents", bytes.NewReader(data))
	if err != nil {
		return SubmitResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Doc-Type", string(docType))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", httpx.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return SubmitResult{StatusCode: resp.StatusCode}, fmt.Errorf("%w: read response: %v", httpx.ErrUpstream, err)
	}
	result := SubmitResult{StatusCode: resp.StatusCode, Body: string(body)}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return result, fmt.Errorf("%w: status %d", httpx.ErrUpstream, resp.StatusCode)
	}
	return result, nil
}
