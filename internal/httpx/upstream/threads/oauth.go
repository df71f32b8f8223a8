package threads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultAuthorizeURL = "https://threads.net/oauth/authorize"

// AuthorizeURLInput represents input for building the consent screen URL
type AuthorizeURLInput struct {
	AuthorizeURL string // defaults to the public Threads consent endpoint
	ClientID     string
	RedirectURI  string
	Scopes       []string
	State        string
}

// AuthorizeURL builds the URL the user is redirected to for the authorization-code flow
func AuthorizeURL(in AuthorizeURLInput) string {
	base := in.AuthorizeURL
	if base == "" {
		base = defaultAuthorizeURL
	}

	params := url.Values{}
	params.Set("client_id", in.ClientID)
	params.Set("redirect_uri", in.RedirectURI)
	params.Set("scope", strings.Join(in.Scopes, ","))
	params.Set("response_type", "code")
	if in.State != "" {
		params.Set("state", in.State)
	}

	return base + "?" + params.Encode()
}

// ExchangeCodeInput represents input for exchanging an authorization code
type ExchangeCodeInput struct {
	ClientID     string
	ClientSecret string
	Code         string
	RedirectURI  string
}

// ExchangeCodeOutput represents the short-lived token issued for a code
type ExchangeCodeOutput struct {
	AccessToken string      `json:"access_token"`
	UserID      json.Number `json:"user_id"`
}

// ExchangeCode trades an authorization code for an access token
// POST /oauth/access_token
func (c *Client) ExchangeCode(ctx context.Context, in ExchangeCodeInput) (*ExchangeCodeOutput, error) {
	form := url.Values{}
	form.Set("client_id", in.ClientID)
	form.Set("client_secret", in.ClientSecret)
	form.Set("code", in.Code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", in.RedirectURI)

	endpoint := c.baseURL + "/oauth/access_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out ExchangeCodeOutput
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("token response did not contain an access token")
	}

	return &out, nil
}
