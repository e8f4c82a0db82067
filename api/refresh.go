package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// refreshKey is the single-flight group key; one refresh in flight per client.
const refreshKey = "token_refresh"

// refreshTimeout bounds the dedicated refresh call.
const refreshTimeout = 10 * time.Second

// refreshAccessToken renews the access token using the stored refresh token.
//
// Concurrent callers share one in-flight refresh and observe the same
// outcome; the group entry is dropped when the call settles, so a later 401
// starts a fresh refresh. Any failure clears both tokens and returns "" —
// a deliberate logout, not a retryable condition.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	token, err, shared := c.refreshGroup.Do(refreshKey, func() (any, error) {
		return c.performRefresh(ctx), nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.Debug("token refresh result shared with concurrent caller")
	}
	return token.(string), nil
}

func (c *Client) performRefresh(ctx context.Context) string {
	refreshToken := c.tokens.RefreshToken()
	if refreshToken == "" {
		c.tokens.ClearTokens()
		return ""
	}

	refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	payload, _ := json.Marshal(map[string]string{"refreshToken": refreshToken})
	req, err := http.NewRequestWithContext(refreshCtx, http.MethodPost, c.baseURL+EndpointRefresh, bytes.NewReader(payload))
	if err != nil {
		c.tokens.ClearTokens()
		return ""
	}
	// Authenticates with the refresh token itself, never the access token.
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("token refresh request failed", "error", err)
		c.tokens.ClearTokens()
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("token refresh rejected", "status", resp.StatusCode)
		c.tokens.ClearTokens()
		return ""
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.tokens.ClearTokens()
		return ""
	}

	var env envelope
	if jsonErr := json.Unmarshal(body, &env); jsonErr != nil || !env.Success || len(env.Data) == 0 {
		c.logger.Warn("token refresh returned malformed envelope")
		c.tokens.ClearTokens()
		return ""
	}
	var refreshed RefreshResponse
	if jsonErr := json.Unmarshal(env.Data, &refreshed); jsonErr != nil || refreshed.AccessToken == "" {
		c.logger.Warn("token refresh returned no access token")
		c.tokens.ClearTokens()
		return ""
	}

	c.tokens.SetAccessToken(refreshed.AccessToken)
	rotated := refreshed.RefreshToken != "" && refreshed.RefreshToken != refreshToken
	if rotated {
		c.tokens.SetRefreshToken(refreshed.RefreshToken)
	}
	c.logger.Info("access token refreshed", "refresh_token_rotated", rotated)

	return refreshed.AccessToken
}
