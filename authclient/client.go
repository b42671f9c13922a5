package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// AuthError is the value object every auth operation fails with. It crosses
// the oracle boundary instead of transport-level errors so callers can print
// Message inline without unwrapping.
type AuthError struct {
	Message string
}

// Error describes the error operation and its observable behavior.
func (e *AuthError) Error() string {
	return e.Message
}

// Options configures a [Client].
type Options struct {
	// URL is the project base URL of the hosted auth service.
	URL string
	// AnonKey is the public API key sent with every request.
	AnonKey string
	// Storage holds the token pair. Required.
	Storage TokenStorage
	// AutoRefresh exchanges the refresh token when the access token has
	// expired during GetSession. The recovery client runs with this off.
	AutoRefresh bool
	// HTTPClient overrides the transport; nil uses a 15s-timeout default.
	HTTPClient *http.Client
}

// Client defines a public type used by tramite APIs.
//
// Client instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Client struct {
	baseURL     string
	anonKey     string
	http        *http.Client
	storage     TokenStorage
	autoRefresh bool

	mu      sync.Mutex
	current *Session

	listeners *listenerSet

	// now is swapped in tests to pin expiry arithmetic.
	now func() time.Time
}

// New creates a [Client] for the hosted auth service.
func New(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("authclient: URL is required")
	}
	if opts.AnonKey == "" {
		return nil, errors.New("authclient: AnonKey is required")
	}
	if opts.Storage == nil {
		return nil, errors.New("authclient: Storage is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		baseURL:     strings.TrimRight(opts.URL, "/"),
		anonKey:     opts.AnonKey,
		http:        httpClient,
		storage:     opts.Storage,
		autoRefresh: opts.AutoRefresh,
		listeners:   newListenerSet(),
		now:         time.Now,
	}, nil
}

// NewRecoveryClient creates the isolated secondary client used by the
// password-set flow: session persistence off, automatic token refresh off,
// session detection from the URL off, and a token store that lives only in
// process memory. Constructing it never touches the primary session.
func NewRecoveryClient(baseURL, anonKey string) (*Client, error) {
	return New(Options{
		URL:         baseURL,
		AnonKey:     anonKey,
		Storage:     NewMemoryStorage(),
		AutoRefresh: false,
	})
}

// OnAuthStateChange registers cb for sign-in, sign-out, token-refresh, and
// recovery-exchange events. The returned func unsubscribes.
func (c *Client) OnAuthStateChange(cb func(Event)) (unsubscribe func()) {
	return c.listeners.add(cb)
}

// GetSession returns the current session or (nil, nil) when none exists.
// A non-nil error means session resolution itself failed (storage or network)
// and the caller decides the policy; the coordinator reads it as "no session".
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	cached := c.current
	c.mu.Unlock()

	if cached != nil && !cached.Expired(c.now()) {
		return cached, nil
	}

	if cached == nil {
		stored, err := c.storage.Load(ctx)
		if err != nil {
			return nil, err
		}
		if stored == nil {
			return nil, nil
		}
		sess, err := sessionFromTokens(stored.AccessToken, stored.RefreshToken)
		if err != nil {
			// Undecodable stored token: treat as absent, clear the residue.
			_ = c.storage.Clear(ctx)
			return nil, nil
		}
		cached = sess
		c.mu.Lock()
		c.current = sess
		c.mu.Unlock()
	}

	if !cached.Expired(c.now()) {
		return cached, nil
	}

	if !c.autoRefresh || cached.RefreshToken == "" {
		return nil, nil
	}
	return c.refresh(ctx, cached.RefreshToken)
}

// SignInWithPassword authenticates with email and password. On success the
// session is committed to storage before the SIGNED_IN event fires.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	var resp tokenResponse
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", "", body, &resp); err != nil {
		return nil, err
	}

	sess, err := c.commit(ctx, resp)
	if err != nil {
		return nil, err
	}
	c.listeners.emit(Event{Kind: EventSignedIn, Session: sess})
	return sess, nil
}

// SetSession exchanges a token pair (extracted from a recovery or invite
// link) for an established session on this client. The access token's claims
// are decoded locally; no network round-trip is needed unless it has already
// expired, in which case the refresh token is spent.
func (c *Client) SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	sess, err := sessionFromTokens(accessToken, refreshToken)
	if err != nil {
		return nil, err
	}

	if sess.Expired(c.now()) {
		if refreshToken == "" {
			return nil, &AuthError{Message: "access token expired and no refresh token provided"}
		}
		var resp tokenResponse
		body := map[string]string{"refresh_token": refreshToken}
		if err := c.post(ctx, "/auth/v1/token?grant_type=refresh_token", "", body, &resp); err != nil {
			return nil, err
		}
		sess, err = c.commit(ctx, resp)
		if err != nil {
			return nil, err
		}
		c.listeners.emit(Event{Kind: EventRecoveryExchanged, Session: sess})
		return sess, nil
	}

	if err := c.persist(ctx, sess); err != nil {
		return nil, err
	}
	c.listeners.emit(Event{Kind: EventRecoveryExchanged, Session: sess})
	return sess, nil
}

// SignOut revokes the session best-effort and always discards local token
// state, so a failed revoke still leaves this client signed out. The
// SIGNED_OUT event fires after local state is cleared.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	sess := c.current
	c.current = nil
	c.mu.Unlock()

	var revokeErr error
	if sess != nil && sess.AccessToken != "" {
		revokeErr = c.post(ctx, "/auth/v1/logout", sess.AccessToken, nil, nil)
	}
	_ = c.storage.Clear(ctx)

	c.listeners.emit(Event{Kind: EventSignedOut, Session: nil})
	return revokeErr
}

// ResetPasswordForEmail asks the auth service to send a recovery email whose
// link lands on redirectTo.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	path := "/auth/v1/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return c.post(ctx, path, "", map[string]string{"email": email}, nil)
}

// UpdateUser sets a new password for the session currently held by this
// client. It is the submission path of the set-password flow and therefore
// normally runs on the recovery client.
func (c *Client) UpdateUser(ctx context.Context, newPassword string) error {
	c.mu.Lock()
	sess := c.current
	c.mu.Unlock()

	if sess == nil {
		return &AuthError{Message: "nenhuma sessão ativa para alterar a senha"}
	}

	body := map[string]string{"password": newPassword}
	return c.do(ctx, http.MethodPut, "/auth/v1/user", sess.AccessToken, body, nil)
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var resp tokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.post(ctx, "/auth/v1/token?grant_type=refresh_token", "", body, &resp); err != nil {
		return nil, err
	}

	sess, err := c.commit(ctx, resp)
	if err != nil {
		return nil, err
	}
	c.listeners.emit(Event{Kind: EventTokenRefreshed, Session: sess})
	return sess, nil
}

// commit decodes the token response, stores it, and swaps the in-memory
// session. Events are emitted by the caller after commit returns.
func (c *Client) commit(ctx context.Context, resp tokenResponse) (*Session, error) {
	sess, err := sessionFromTokens(resp.AccessToken, resp.RefreshToken)
	if err != nil {
		return nil, err
	}
	if sess.ExpiresAt.IsZero() && resp.ExpiresIn > 0 {
		sess.ExpiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	if err := c.persist(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (c *Client) persist(ctx context.Context, sess *Session) error {
	if err := c.storage.Store(ctx, &StoredSession{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
	}); err != nil {
		return err
	}

	c.mu.Lock()
	c.current = sess
	c.mu.Unlock()
	return nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (c *Client) post(ctx context.Context, path, bearer string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, bearer, body, out)
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &AuthError{Message: err.Error()}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &AuthError{Message: err.Error()}
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &AuthError{Message: "falha de rede: " + err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &AuthError{Message: "falha de rede: " + err.Error()}
	}

	if resp.StatusCode >= 400 {
		return &AuthError{Message: serviceErrorMessage(resp.StatusCode, data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return &AuthError{Message: "resposta inválida do serviço de autenticação"}
		}
	}
	return nil
}

// serviceErrorMessage digs a human-readable message out of the auth
// service's error body, which varies by endpoint generation.
func serviceErrorMessage(status int, body []byte) string {
	var payload struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorField       string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, m := range []string{payload.ErrorDescription, payload.Msg, payload.Message, payload.ErrorField} {
			if m != "" {
				return m
			}
		}
	}
	return fmt.Sprintf("auth service error (HTTP %d)", status)
}
