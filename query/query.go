package query

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// QueryError is the value object data-API failures surface as. Message is
// the backend's own message when one is present.
type QueryError struct {
	StatusCode int
	Message    string
	Code       string
}

// Error describes the error operation and its observable behavior.
func (e *QueryError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

// TokenSource yields the bearer token for the next request. Returning an
// empty token with a nil error sends the request anonymously.
type TokenSource func(ctx context.Context) (string, error)

// Client defines a public type used by tramite APIs.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Client struct {
	baseURL string
	anonKey string
	token   TokenSource
	http    *http.Client
}

// New creates a data-API [Client]. token may be nil for anonymous access;
// httpClient nil uses a 15s-timeout default.
func New(baseURL, anonKey string, token TokenSource, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("query: baseURL is required")
	}
	if anonKey == "" {
		return nil, errors.New("query: anonKey is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		token:   token,
		http:    httpClient,
	}, nil
}

// From starts a request builder against a table or view.
func (c *Client) From(table string) *Builder {
	return &Builder{client: c, table: table, params: url.Values{}}
}

// Rpc calls a stored procedure with args as its JSON body and decodes the
// result into out (which may be nil when the result is discarded).
func (c *Client) Rpc(ctx context.Context, name string, args, out any) error {
	if args == nil {
		args = map[string]any{}
	}
	return c.do(ctx, http.MethodPost, "/rest/v1/rpc/"+name, nil, args, out, false)
}

// Builder accumulates filters and modifiers for a single table request.
// It is not safe for concurrent use; build and fire on one goroutine.
type Builder struct {
	client *Client
	table  string
	params url.Values
}

// Select sets the column list for reads and the returned representation for
// writes. Defaults to "*".
func (b *Builder) Select(columns string) *Builder {
	b.params.Set("select", columns)
	return b
}

// Eq filters rows where column equals value.
func (b *Builder) Eq(column, value string) *Builder {
	b.params.Set(column, "eq."+value)
	return b
}

// Order sorts by column; descending when desc is true.
func (b *Builder) Order(column string, desc bool) *Builder {
	dir := "asc"
	if desc {
		dir = "desc"
	}
	b.params.Set("order", column+"."+dir)
	return b
}

// Limit caps the number of returned rows.
func (b *Builder) Limit(n int) *Builder {
	b.params.Set("limit", strconv.Itoa(n))
	return b
}

// Get executes the read and decodes the row array into out.
func (b *Builder) Get(ctx context.Context, out any) error {
	if b.params.Get("select") == "" {
		b.params.Set("select", "*")
	}
	return b.client.do(ctx, http.MethodGet, "/rest/v1/"+b.table, b.params, nil, out, false)
}

// Insert writes row (a struct or map, or a slice for bulk inserts). When out
// is non-nil the inserted representation is requested and decoded into it.
func (b *Builder) Insert(ctx context.Context, row, out any) error {
	return b.client.do(ctx, http.MethodPost, "/rest/v1/"+b.table, b.params, row, out, out != nil)
}

// Update patches the rows matched by the accumulated filters.
func (b *Builder) Update(ctx context.Context, changes, out any) error {
	return b.client.do(ctx, http.MethodPatch, "/rest/v1/"+b.table, b.params, changes, out, out != nil)
}

// Delete removes the rows matched by the accumulated filters.
func (b *Builder) Delete(ctx context.Context) error {
	return b.client.do(ctx, http.MethodDelete, "/rest/v1/"+b.table, b.params, nil, nil, false)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any, wantRepresentation bool) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &QueryError{Message: err.Error()}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &QueryError{Message: err.Error()}
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if wantRepresentation {
		req.Header.Set("Prefer", "return=representation")
	}
	if c.token != nil {
		tok, err := c.token(ctx)
		if err != nil {
			return &QueryError{Message: "token source failed: " + err.Error()}
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &QueryError{Message: "falha de rede: " + err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &QueryError{Message: "falha de rede: " + err.Error()}
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 && resp.StatusCode != http.StatusNoContent {
		if err := json.Unmarshal(data, out); err != nil {
			return &QueryError{Message: "resposta inválida da API de dados"}
		}
	}
	return nil
}

func decodeError(status int, body []byte) *QueryError {
	var payload struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Hint    string `json:"hint"`
	}
	qe := &QueryError{StatusCode: status}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		qe.Message = payload.Message
		qe.Code = payload.Code
		return qe
	}
	qe.Message = fmt.Sprintf("data API error (HTTP %d)", status)
	return qe
}
