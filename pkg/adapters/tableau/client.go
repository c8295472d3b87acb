package tableau

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/contentgraph/internal/logging"
	"github.com/aretw0/contentgraph/pkg/domain"
	"github.com/aretw0/contentgraph/pkg/ports"
)

const (
	// DefaultPageSize is the workbook page size requested from the REST API.
	DefaultPageSize = 100

	authHeader      = "X-Tableau-Auth"
	maxResponseBody = 32 << 20
	maxErrorBody    = 512

	memoWorkbooks = "workbooks"
)

var _ ports.ContentFetcher = (*Client)(nil)

// Client talks to one Tableau site on behalf of one connected app.
type Client struct {
	creds      Credentials
	deployment Deployment
	httpClient *http.Client
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
	pageSize   int
	now        func() time.Time

	// Session state, owned by this instance.
	token  string
	siteID string
	memo   map[string]any
}

// Option defines a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets a custom structured logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks, called once per HTTP round trip.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Client) {
		c.hooks = hooks
	}
}

// WithPageSize sets the workbook page size. Non-positive values are ignored.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a client. No network call is made until Authenticate.
func NewClient(creds Credentials, deployment Deployment, opts ...Option) *Client {
	c := &Client{
		creds:      creds,
		deployment: deployment,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.NewNop(),
		pageSize:   DefaultPageSize,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate signs in with a fresh connected-app JWT. Calling it again replaces the
// current session and drops every memoized response.
func (c *Client) Authenticate(ctx context.Context) error {
	jwtToken, err := c.creds.signJWT(c.now())
	if err != nil {
		return &domain.AuthenticationError{Op: "signin", Err: err}
	}

	body := signInRequest{}
	body.Credentials.JWT = jwtToken
	body.Credentials.Site.ContentURL = c.creds.SiteName

	var resp signInResponse
	endpoint := c.deployment.RESTBaseURL() + "/auth/signin"
	if err := c.do(ctx, "signin", http.MethodPost, endpoint, body, false, &resp); err != nil {
		return err
	}
	if resp.Credentials.Token == "" || resp.Credentials.Site.ID == "" {
		return &domain.RemoteAPIError{
			Op: "signin", Method: http.MethodPost, URL: endpoint,
			Err: errors.New("response is missing the session token or site id"),
		}
	}

	c.token = resp.Credentials.Token
	c.siteID = resp.Credentials.Site.ID
	c.memo = make(map[string]any)
	c.logger.Debug("Signed in", "site", c.creds.SiteName, "site_id", c.siteID)
	return nil
}

// Authenticated reports whether a session is open.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// ListContainers returns every workbook id of the site, following pagination.
func (c *Client) ListContainers(ctx context.Context) ([]string, error) {
	if err := c.requireSession("list workbooks"); err != nil {
		return nil, err
	}
	if cached, ok := c.memo[memoWorkbooks].([]string); ok {
		return append([]string(nil), cached...), nil
	}

	var ids []string
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s/sites/%s/workbooks?pageSize=%d&pageNumber=%d",
			c.deployment.RESTBaseURL(), url.PathEscape(c.siteID), c.pageSize, page)

		var resp workbooksResponse
		if err := c.do(ctx, "list workbooks", http.MethodGet, endpoint, nil, true, &resp); err != nil {
			return nil, err
		}
		for i, wb := range resp.Workbooks.Workbook {
			if wb.ID == "" {
				return nil, &domain.RemoteAPIError{
					Op: "list workbooks", Method: http.MethodGet, URL: endpoint,
					Err: fmt.Errorf("workbook[%d] has no id", i),
				}
			}
			ids = append(ids, wb.ID)
		}

		if len(resp.Workbooks.Workbook) == 0 || len(ids) >= int(resp.Pagination.TotalAvailable) {
			break
		}
	}

	c.memo[memoWorkbooks] = ids
	c.logger.Debug("Listed workbooks", "count", len(ids))
	return append([]string(nil), ids...), nil
}

// GetContainerDetail fetches a workbook with its sheets and data sources through the
// Metadata API. The returned map must be treated as read-only.
func (c *Client) GetContainerDetail(ctx context.Context, id string) (map[string]any, error) {
	if err := c.requireSession("get workbook"); err != nil {
		return nil, err
	}
	memoKey := "workbook:" + id
	if cached, ok := c.memo[memoKey].(map[string]any); ok {
		return cached, nil
	}

	req := graphQLRequest{
		Query:     workbookQuery,
		Variables: map[string]any{"luid": id},
	}
	var resp workbookQueryResponse
	endpoint := c.deployment.MetadataURL()
	if err := c.do(ctx, "get workbook", http.MethodPost, endpoint, req, true, &resp); err != nil {
		return nil, err
	}

	if len(resp.Errors) > 0 {
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.Message
		}
		return nil, &domain.RemoteAPIError{
			Op: "get workbook", Method: http.MethodPost, URL: endpoint,
			Err: fmt.Errorf("graphql: %s", strings.Join(msgs, "; ")),
		}
	}
	if len(resp.Data.Workbooks) == 0 || resp.Data.Workbooks[0] == nil {
		return nil, &domain.RemoteAPIError{
			Op: "get workbook", Method: http.MethodPost, URL: endpoint,
			Err: fmt.Errorf("workbook %q not found", id),
		}
	}

	detail := resp.Data.Workbooks[0]
	c.memo[memoKey] = detail
	return detail, nil
}

// EndSession signs out. The local session and memo are cleared even if the remote call
// fails. Without an open session it does nothing.
func (c *Client) EndSession(ctx context.Context) error {
	if c.token == "" {
		return nil
	}
	err := c.do(ctx, "signout", http.MethodPost, c.deployment.RESTBaseURL()+"/auth/signout", nil, true, nil)

	c.token = ""
	c.siteID = ""
	c.memo = nil
	if err != nil {
		return err
	}
	c.logger.Debug("Signed out", "site", c.creds.SiteName)
	return nil
}

func (c *Client) requireSession(op string) error {
	if c.token == "" {
		return &domain.AuthenticationError{Op: op, Err: domain.ErrNotAuthenticated}
	}
	return nil
}

// do performs one JSON round trip. A nil out skips response decoding.
func (c *Client) do(ctx context.Context, op, method, endpoint string, in any, withAuth bool, out any) (err error) {
	start := time.Now()
	status := 0
	defer func() {
		c.hooks.EmitRequest(ctx, &domain.RequestEvent{
			EventBase:  domain.EventBase{Timestamp: start, Type: domain.EventRequest},
			Op:         op,
			Method:     method,
			URL:        endpoint,
			StatusCode: status,
			Duration:   time.Since(start),
			Err:        err,
		})
	}()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &domain.RemoteAPIError{Op: op, Method: method, URL: endpoint, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &domain.RemoteAPIError{Op: op, Method: method, URL: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if withAuth {
		req.Header.Set(authHeader, c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.RemoteAPIError{Op: op, Method: method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("Tableau request failed", "op", op, "status", resp.StatusCode)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return &domain.AuthenticationError{
				Op:  op,
				Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
			}
		}
		return &domain.RemoteAPIError{
			Op: op, Method: method, URL: endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &domain.RemoteAPIError{Op: op, Method: method, URL: endpoint, StatusCode: status, Err: fmt.Errorf("read body: %w", err)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.RemoteAPIError{Op: op, Method: method, URL: endpoint, StatusCode: status, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

// flexInt accepts both JSON numbers and numeric strings; the REST API sends
// pagination counters as strings.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %q", s)
	}
	*n = flexInt(v)
	return nil
}
