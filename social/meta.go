// Package social wraps the Meta Graph API surface the publisher uses: the
// OAuth authorization URL, the code-for-token exchange, and page posting.
// Vendor behavior beyond these three calls is out of scope; when the client
// is not fully configured, publishing degrades to a simulated receipt.
package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maestroia/maestro-go/tokenstore"
)

const (
	defaultGraphURL  = "https://graph.facebook.com/v16.0"
	defaultOAuthURL  = "https://www.facebook.com/v16.0/dialog/oauth"
	// DefaultScope covers page posting and engagement reads.
	DefaultScope = "pages_manage_posts,pages_read_engagement"
)

// MetaClient talks to the Meta Graph API.
type MetaClient struct {
	AppID       string
	AppSecret   string
	PageID      string
	AccessToken string

	GraphURL string
	OAuthURL string
	Client   *http.Client
}

// NewMetaClient creates a client with the production endpoints.
func NewMetaClient(appID, appSecret, pageID, accessToken string) *MetaClient {
	return &MetaClient{
		AppID:       appID,
		AppSecret:   appSecret,
		PageID:      pageID,
		AccessToken: accessToken,
		GraphURL:    defaultGraphURL,
		OAuthURL:    defaultOAuthURL,
		Client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthURL returns the authorization URL the user is sent to.
func (c *MetaClient) AuthURL(redirectURI, scope string) string {
	if scope == "" {
		scope = DefaultScope
	}
	q := url.Values{}
	q.Set("client_id", c.AppID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", scope)
	return c.OAuthURL + "?" + q.Encode()
}

// ExchangeCode exchanges an authorization code for an access token.
func (c *MetaClient) ExchangeCode(ctx context.Context, code, redirectURI string) (*tokenstore.Token, error) {
	if c.AppID == "" || c.AppSecret == "" {
		return nil, fmt.Errorf("meta app credentials not configured")
	}

	q := url.Values{}
	q.Set("client_id", c.AppID)
	q.Set("client_secret", c.AppSecret)
	q.Set("redirect_uri", redirectURI)
	q.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.GraphURL+"/oauth/access_token?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("token exchange returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	token := &tokenstore.Token{}
	if err := json.NewDecoder(resp.Body).Decode(token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token exchange returned no access token")
	}
	return token, nil
}

// Publish posts content to the configured page and returns a status text,
// satisfying the publisher contract of the publication stage. Without a page
// and token configured it returns a simulated receipt instead of failing.
func (c *MetaClient) Publish(ctx context.Context, channel, content string) (string, error) {
	if c.PageID == "" || c.AccessToken == "" {
		return fmt.Sprintf("simulated: meta publishing not configured for %s", channel), nil
	}

	form := url.Values{}
	form.Set("message", content)
	form.Set("access_token", c.AccessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/feed", c.GraphURL, c.PageID),
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build post request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("create post returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var posted struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&posted); err != nil {
		return "", fmt.Errorf("decode post response: %w", err)
	}
	return fmt.Sprintf("published: %s", posted.ID), nil
}
