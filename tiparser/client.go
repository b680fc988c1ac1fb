package tiparser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// tiparserClient talks to the TiParser document API: one GET per case per
// document kind, API key in a configurable header, throttled by a shared
// ticker so the worker never exceeds the account's rate limit.
type tiparserClient struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
	limiter   <-chan time.Time
}

func newTiparserClient() (*tiparserClient, error) {
	baseURL := strings.TrimSpace(os.Getenv("TIPARSER_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.tiparser.com"
	}
	apiKeyHeader := strings.TrimSpace(os.Getenv("TIPARSER_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	apiKey := strings.TrimSpace(os.Getenv("TIPARSER_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("tiparser api key is empty")
	}
	rateLimitPerMin := int64(10)
	if v := strings.TrimSpace(os.Getenv("TIPARSER_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &tiparserClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   time.Tick(interval),
	}, nil
}

func (c *tiparserClient) getJSON(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.limiter:
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(c.apiKeyHdr, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		// Not every case has every document kind.
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("tiparser api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.RawMessage(body), nil
}

// fetchCaseDocument pulls one document kind for one case. A nil payload with
// nil error means the upstream has nothing for that kind.
func (c *tiparserClient) fetchCaseDocument(ctx context.Context, caseNumber string, kindPath string) (*documentEnvelope, error) {
	raw, err := c.getJSON(ctx, "/v1/cases/"+url.PathEscape(caseNumber)+"/"+kindPath, nil)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var envelope documentEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Payload) == 0 {
		// Some deployments return the payload bare, without the envelope.
		envelope.Payload = raw
	}
	return &envelope, nil
}
