package rowstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"admin-dashboard/internal/domain"
)

// Compile-time check.
var _ domain.RowStore = (*RESTStore)(nil)

// Option configures the REST clients.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient overrides the HTTP client (default http.DefaultClient).
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

func buildOptions(opts []Option) clientOptions {
	o := clientOptions{httpClient: http.DefaultClient, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = http.DefaultClient
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// RESTStore reads row collections through the backend's REST interface
// (PostgREST conventions: /rest/v1/<collection>?select=..&order=..).
// It holds no per-query state and is safe for concurrent use.
type RESTStore struct {
	baseURL    string
	apiKey     string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRESTStore creates a client authenticated with apiKey. Until
// WithAccessToken is used, requests run with the key's own role.
func NewRESTStore(baseURL, apiKey string, opts ...Option) (*RESTStore, error) {
	base, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, domain.ErrConfig("BACKEND_ANON_KEY", "API key is required")
	}
	o := buildOptions(opts)
	return &RESTStore{
		baseURL:    base,
		apiKey:     apiKey,
		httpClient: o.httpClient,
		logger:     o.logger,
	}, nil
}

// NewServiceStore creates the privileged client that bypasses row-level
// security. A missing service-role key is a configuration error.
func NewServiceStore(baseURL, serviceRoleKey string, opts ...Option) (*RESTStore, error) {
	if serviceRoleKey == "" {
		return nil, domain.ErrConfig("BACKEND_SERVICE_ROLE_KEY", "service-role key is required for the privileged client")
	}
	return NewRESTStore(baseURL, serviceRoleKey, opts...)
}

// WithAccessToken returns a copy of the store that sends the signed-in user's
// access token, so the backend applies that user's row-level security.
func (s *RESTStore) WithAccessToken(token string) *RESTStore {
	cp := *s
	cp.token = token
	return &cp
}

// Select decodes every matching row into dest, which must point to a slice.
func (s *RESTStore) Select(ctx context.Context, q domain.Query, dest any) error {
	if err := q.Validate(); err != nil {
		return &QueryError{Kind: KindQuery, Collection: q.Collection, Message: err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(q), nil)
	if err != nil {
		return classify(ctx, q.Collection, err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.bearer())
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return classify(ctx, q.Collection, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	s.logger.Debug("row store select", "collection", q.Collection, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(q.Collection, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return classify(ctx, q.Collection, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// SelectOne decodes the first matching row into dest. found is false when no
// row matched.
func (s *RESTStore) SelectOne(ctx context.Context, q domain.Query, dest any) (bool, error) {
	q.Limit = 1
	var rows []json.RawMessage
	if err := s.Select(ctx, q, &rows); err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(rows[0], dest); err != nil {
		return false, &QueryError{Kind: KindUnknown, Collection: q.Collection, Message: "decode row: " + err.Error(), Err: err}
	}
	return true, nil
}

func (s *RESTStore) bearer() string {
	if s.token != "" {
		return s.token
	}
	return s.apiKey
}

func (s *RESTStore) endpoint(q domain.Query) string {
	v := url.Values{}
	sel := "*"
	if len(q.Fields) > 0 {
		sel = strings.Join(q.Fields, ",")
	}
	v.Set("select", sel)
	if q.OrderBy != "" {
		dir := "desc"
		if q.Ascending {
			dir = "asc"
		}
		v.Set("order", q.OrderBy+"."+dir)
	}
	for _, f := range q.Filters {
		if f.Op != domain.OpAny {
			v.Add(f.Column, string(f.Op)+"."+restValue(f))
			continue
		}
		parts := make([]string, 0, len(f.Any))
		for _, m := range f.Any {
			parts = append(parts, m.Column+"."+string(m.Op)+"."+quoteGroupValue(restValue(m)))
		}
		v.Add("or", "("+strings.Join(parts, ",")+")")
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return s.baseURL + "/rest/v1/" + q.Collection + "?" + v.Encode()
}

// restValue renders a filter value in PostgREST syntax, where * is the
// ILike wildcard. Escaped percent signs stay literal.
func restValue(f domain.Filter) string {
	if f.Op != domain.OpILike {
		return f.Value
	}
	var b strings.Builder
	escaped := false
	for _, r := range f.Value {
		switch {
		case escaped:
			escaped = false
		case string(r) == domain.LikeEscape:
			escaped = true
		case r == '%':
			r = '*'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// quoteGroupValue quotes a value inside an or=(...) group so commas and
// parentheses in it are not read as syntax.
func quoteGroupValue(v string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v) + `"`
}

// apiErrorBody covers both the REST and the auth error payload shapes.
type apiErrorBody struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Code             any    `json:"code"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (b apiErrorBody) text() string {
	for _, s := range []string{b.Message, b.Msg, b.ErrorDescription, b.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func apiError(collection string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var parsed apiErrorBody
	_ = json.Unmarshal(body, &parsed)

	msg := parsed.text()
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	code := ""
	if parsed.Code != nil {
		code = fmt.Sprint(parsed.Code)
	}

	qe := &QueryError{
		Kind:       KindQuery,
		Collection: collection,
		Status:     resp.StatusCode,
		Code:       code,
		Message:    msg,
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		qe.Err = domain.ErrAccessDenied("%s", msg)
	}
	return qe
}

func normalizeBaseURL(raw string) (string, error) {
	if raw == "" {
		return "", domain.ErrConfig("BACKEND_URL", "backend URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", domain.ErrConfig("BACKEND_URL", "invalid backend URL %q", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}
