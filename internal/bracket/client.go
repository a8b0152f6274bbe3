// Package bracket pushes settled SL/TP dollar values back to the trading
// platform's position-bracket endpoint. One request per settled drag, no
// retries: local state stays authoritative and the next drag or recompute
// re-triggers sync on its own.
package bracket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// Client implements model.BracketUpdater against the platform REST API.
type Client struct {
	baseURL string
	client  *http.Client

	// The companion rotates the token from the gateway goroutine while the
	// reconciler sends updates, so access goes through the mutex.
	mu    sync.Mutex
	token string
}

// New creates a bracket client.
// baseURL: platform API root, e.g. "https://userapi.example.com".
// token: bearer token supplied by the browser companion.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetToken replaces the bearer token. The companion refreshes it when the
// platform session rotates.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

type bracketPayload struct {
	AccountID string `json:"accountId"`
	Risk      int64  `json:"risk"`
	ToMake    int64  `json:"toMake"`
	AutoApply bool   `json:"autoApply"`
}

// UpdateBrackets POSTs whole-dollar risk/reward values for the account.
func (c *Client) UpdateBrackets(ctx context.Context, accountID string, riskDollars, rewardDollars int64, autoApply bool) error {
	body, err := json.Marshal(bracketPayload{
		AccountID: accountID,
		Risk:      riskDollars,
		ToMake:    rewardDollars,
		AutoApply: autoApply,
	})
	if err != nil {
		return fmt.Errorf("bracket: marshal: %w", err)
	}

	url := c.baseURL + "/TradingAccount/setPositionBrackets"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bracket: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("bracket: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("bracket: unexpected status %d", resp.StatusCode)
	}

	log.Printf("[bracket] updated account %s (risk=%d toMake=%d)", accountID, riskDollars, rewardDollars)
	return nil
}
