package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const maxResponseBytes = 1 << 20

// PostJSON sends payload as a bearer-authenticated JSON POST to endpoint.
// Non-2xx statuses are not errors here; callers map them to an ErrorKind.
func PostJSON(ctx context.Context, client *http.Client, endpoint, apiKey string, payload interface{}) (int, []byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return httpResp.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return httpResp.StatusCode, respBody, nil
}
