package threads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL    = "https://graph.threads.net"
	defaultAPIVersion = "v1.0"
	defaultUserAgent  = "Mozilla/5.0 (compatible; ThreadTracker/1.0)"
	defaultTimeout    = 30 * time.Second
)

// Default field and metric lists requested from the Graph API
var (
	ProfileFields      = []string{"id", "username", "name", "threads_profile_picture_url", "threads_biography"}
	ThreadFields       = []string{"id", "media_type", "media_url", "permalink", "shortcode", "thumbnail_url", "timestamp", "username", "text", "children"}
	ConversationFields = []string{"id", "username", "text", "timestamp"}
	PostMetrics        = []string{"likes", "replies", "reposts", "quotes", "views"}
)

// Client is a Threads Graph API client for reading profiles, posts and insights
type Client struct {
	baseURL    string
	apiVersion string
	userAgent  string
	httpClient *http.Client
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithAPIVersion sets the API version
func WithAPIVersion(version string) ClientOption {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithUserAgent sets the User-Agent header sent upstream
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a new Threads API client
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiVersion: defaultAPIVersion,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a non-successful response from the Threads API
type APIError struct {
	StatusCode   int    `json:"-"`
	Body         string `json:"-"`
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	FBTraceID    string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("threads API error (status %d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("threads API error (status %d): %s (code: %d, subcode: %d)", e.StatusCode, e.Message, e.Code, e.ErrorSubcode)
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Paging represents cursor pagination info
type Paging struct {
	Cursors struct {
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"cursors"`
	Next string `json:"next,omitempty"`
}

// ============================================================================
// Profile
// ============================================================================

// GetProfileInput represents input for getting the authenticated profile
type GetProfileInput struct {
	AccessToken string
	Fields      []string
}

// ProfileOutput represents the authenticated user's profile
type ProfileOutput struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name,omitempty"`
	ProfilePictureURL string `json:"threads_profile_picture_url,omitempty"`
	Biography         string `json:"threads_biography,omitempty"`
}

// GetProfile retrieves the profile of the token owner
// GET /me
func (c *Client) GetProfile(ctx context.Context, in GetProfileInput) (*ProfileOutput, error) {
	fields := in.Fields
	if len(fields) == 0 {
		fields = ProfileFields
	}

	params := url.Values{}
	params.Set("access_token", in.AccessToken)
	params.Set("fields", strings.Join(fields, ","))

	var out ProfileOutput
	if err := c.get(ctx, c.endpoint("me"), params, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ============================================================================
// Insights
// ============================================================================

// InsightValue is one value point of a metric
type InsightValue struct {
	Value   *int64 `json:"value,omitempty"`
	EndTime string `json:"end_time,omitempty"`
}

// Insight is one metric entry in an insights response
type Insight struct {
	Name       string         `json:"name"`
	Period     string         `json:"period,omitempty"`
	TotalValue *InsightValue  `json:"total_value,omitempty"`
	Values     []InsightValue `json:"values,omitempty"`
}

// InsightsOutput represents an insights response
type InsightsOutput struct {
	Data []Insight `json:"data"`
}

// Metric returns the value of the named metric, preferring total_value over values[0]
func (o *InsightsOutput) Metric(name string) (int64, bool) {
	for _, in := range o.Data {
		if in.Name != name {
			continue
		}
		if in.TotalValue != nil && in.TotalValue.Value != nil {
			return *in.TotalValue.Value, true
		}
		if len(in.Values) > 0 {
			if in.Values[0].Value == nil {
				return 0, true
			}
			return *in.Values[0].Value, true
		}
	}
	return 0, false
}

// GetUserInsightsInput represents input for account level insights
type GetUserInsightsInput struct {
	UserID      string
	AccessToken string
	Metrics     []string
}

// GetUserInsights retrieves account insights such as followers_count
// GET /{user-id}/threads_insights
func (c *Client) GetUserInsights(ctx context.Context, in GetUserInsightsInput) (*InsightsOutput, error) {
	userID := in.UserID
	if userID == "" {
		userID = "me"
	}

	params := url.Values{}
	params.Set("access_token", in.AccessToken)
	params.Set("metric", strings.Join(in.Metrics, ","))

	var out InsightsOutput
	if err := c.get(ctx, c.endpoint(userID, "threads_insights"), params, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetMediaInsightsInput represents input for post level insights
type GetMediaInsightsInput struct {
	MediaID     string
	AccessToken string
	Metrics     []string
}

// GetMediaInsights retrieves engagement metrics of a single post
// GET /{media-id}/insights
func (c *Client) GetMediaInsights(ctx context.Context, in GetMediaInsightsInput) (*InsightsOutput, error) {
	metrics := in.Metrics
	if len(metrics) == 0 {
		metrics = PostMetrics
	}

	params := url.Values{}
	params.Set("access_token", in.AccessToken)
	params.Set("metric", strings.Join(metrics, ","))

	var out InsightsOutput
	if err := c.get(ctx, c.endpoint(in.MediaID, "insights"), params, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ============================================================================
// Threads (posts)
// ============================================================================

// ThreadData represents a post from the Threads API
type ThreadData struct {
	ID           string `json:"id"`
	MediaType    string `json:"media_type,omitempty"`
	MediaURL     string `json:"media_url,omitempty"`
	Permalink    string `json:"permalink,omitempty"`
	Shortcode    string `json:"shortcode,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
	Username     string `json:"username,omitempty"`
	Text         string `json:"text,omitempty"`
}

// GetThreadsInput represents input for listing the user's posts
type GetThreadsInput struct {
	AccessToken string
	Limit       int
	Fields      []string
}

// GetThreadsOutput represents one page of posts
type GetThreadsOutput struct {
	Data   []ThreadData `json:"data"`
	Paging *Paging      `json:"paging,omitempty"`
}

// NextURL returns the absolute URL of the next page, if any
func (o *GetThreadsOutput) NextURL() string {
	if o.Paging == nil {
		return ""
	}
	return o.Paging.Next
}

// GetThreads retrieves the first page of the user's posts
// GET /me/threads
func (c *Client) GetThreads(ctx context.Context, in GetThreadsInput) (*GetThreadsOutput, error) {
	fields := in.Fields
	if len(fields) == 0 {
		fields = ThreadFields
	}

	params := url.Values{}
	params.Set("access_token", in.AccessToken)
	params.Set("fields", strings.Join(fields, ","))
	if in.Limit > 0 {
		params.Set("limit", strconv.Itoa(in.Limit))
	}

	var out GetThreadsOutput
	if err := c.get(ctx, c.endpoint("me", "threads"), params, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetThreadsPage follows a paging.next URL returned by a previous page
func (c *Client) GetThreadsPage(ctx context.Context, nextURL string) (*GetThreadsOutput, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, nextURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var out GetThreadsOutput
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ============================================================================
// Conversation (replies)
// ============================================================================

// ConversationItem represents one reply in a post's conversation
type ConversationItem struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Text      string `json:"text,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// GetConversationInput represents input for listing replies of a post
type GetConversationInput struct {
	MediaID     string
	AccessToken string
	Fields      []string
}

// GetConversationOutput represents a conversation response
type GetConversationOutput struct {
	Data   []ConversationItem `json:"data"`
	Paging *Paging            `json:"paging,omitempty"`
}

// GetConversation retrieves the replies of a post
// GET /{media-id}/conversation
func (c *Client) GetConversation(ctx context.Context, in GetConversationInput) (*GetConversationOutput, error) {
	fields := in.Fields
	if len(fields) == 0 {
		fields = ConversationFields
	}

	params := url.Values{}
	params.Set("access_token", in.AccessToken)
	params.Set("fields", strings.Join(fields, ","))

	var out GetConversationOutput
	if err := c.get(ctx, c.endpoint(in.MediaID, "conversation"), params, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ============================================================================
// Transport
// ============================================================================

func (c *Client) endpoint(parts ...string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiVersion, strings.Join(parts, "/"))
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, out)
}

// do executes an HTTP request and decodes the response
func (c *Client) do(req *http.Request, out interface{}) error {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		_ = json.Unmarshal(body, &errResp)
		apiErr := errResp.Error
		apiErr.StatusCode = resp.StatusCode
		apiErr.Body = string(body)
		return &apiErr
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
