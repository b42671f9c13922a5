package adminapi

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

var (
	// ErrUserNotFound is an exported constant or variable used by the administration API.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is an exported constant or variable used by the administration API.
	ErrEmailTaken = errors.New("email already registered")
	// ErrBackendUnavailable is an exported constant or variable used by the administration API.
	ErrBackendUnavailable = errors.New("user backend unavailable")
)

// User is one managed account.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Papel    string `json:"papel"`
	CriadoEm string `json:"criado_em,omitempty"`
}

// CreateUser is the payload for account creation. All fields are required.
type CreateUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Papel    string `json:"papel"`
}

// UpdateUser is the payload for account updates. Nil fields are untouched.
type UpdateUser struct {
	Email *string `json:"email"`
	Papel *string `json:"papel"`
}

// Store is the account backend the handler drives.
type Store interface {
	List(ctx context.Context, page, size int) ([]User, int, error)
	Create(ctx context.Context, u CreateUser) (*User, error)
	Update(ctx context.Context, id string, u UpdateUser) (*User, error)
	Delete(ctx context.Context, id string) error
	ResetPassword(ctx context.Context, id string) error
}

// BackendStore implements [Store] against the hosted auth service's admin
// endpoints, authenticated with the service token.
type BackendStore struct {
	baseURL      string
	serviceToken string
	http         *http.Client
}

// NewBackendStore creates a [BackendStore]. httpClient nil uses a
// 15s-timeout default.
func NewBackendStore(baseURL, serviceToken string, httpClient *http.Client) (*BackendStore, error) {
	if baseURL == "" {
		return nil, errors.New("adminapi: baseURL is required")
	}
	if serviceToken == "" {
		return nil, errors.New("adminapi: serviceToken is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &BackendStore{
		baseURL:      strings.TrimRight(baseURL, "/"),
		serviceToken: serviceToken,
		http:         httpClient,
	}, nil
}

// adminUser is the auth service's wire shape for an account.
type adminUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	CreatedAt   string `json:"created_at"`
	AppMetadata struct {
		Role string `json:"role"`
	} `json:"app_metadata"`
}

func (u adminUser) toUser() User {
	return User{ID: u.ID, Email: u.Email, Papel: u.AppMetadata.Role, CriadoEm: u.CreatedAt}
}

// List describes the list operation and its observable behavior.
func (s *BackendStore) List(ctx context.Context, page, size int) ([]User, int, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(size))

	var resp struct {
		Users []adminUser `json:"users"`
		Total int         `json:"total"`
	}
	if err := s.do(ctx, http.MethodGet, "/auth/v1/admin/users?"+q.Encode(), nil, &resp); err != nil {
		return nil, 0, err
	}
	users := make([]User, 0, len(resp.Users))
	for _, u := range resp.Users {
		users = append(users, u.toUser())
	}
	return users, resp.Total, nil
}

// Create describes the create operation and its observable behavior.
func (s *BackendStore) Create(ctx context.Context, u CreateUser) (*User, error) {
	body := map[string]any{
		"email":         u.Email,
		"password":      u.Password,
		"email_confirm": true,
		"app_metadata":  map[string]string{"role": u.Papel},
	}
	var created adminUser
	if err := s.do(ctx, http.MethodPost, "/auth/v1/admin/users", body, &created); err != nil {
		return nil, err
	}
	out := created.toUser()
	return &out, nil
}

// Update describes the update operation and its observable behavior.
func (s *BackendStore) Update(ctx context.Context, id string, u UpdateUser) (*User, error) {
	body := map[string]any{}
	if u.Email != nil {
		body["email"] = *u.Email
	}
	if u.Papel != nil {
		body["app_metadata"] = map[string]string{"role": *u.Papel}
	}
	var updated adminUser
	if err := s.do(ctx, http.MethodPut, "/auth/v1/admin/users/"+url.PathEscape(id), body, &updated); err != nil {
		return nil, err
	}
	out := updated.toUser()
	return &out, nil
}

// Delete describes the delete operation and its observable behavior.
func (s *BackendStore) Delete(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+url.PathEscape(id), nil, nil)
}

// ResetPassword asks the auth service to email a recovery link. The email
// is looked up first because the recover endpoint is keyed by address.
func (s *BackendStore) ResetPassword(ctx context.Context, id string) error {
	var u adminUser
	if err := s.do(ctx, http.MethodGet, "/auth/v1/admin/users/"+url.PathEscape(id), nil, &u); err != nil {
		return err
	}
	return s.do(ctx, http.MethodPost, "/auth/v1/recover", map[string]string{"email": u.Email}, nil)
}

func (s *BackendStore) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceToken)
	req.Header.Set("apikey", s.serviceToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrUserNotFound
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusConflict:
		return ErrEmailTaken
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: HTTP %d", ErrBackendUnavailable, resp.StatusCode)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: undecodable response", ErrBackendUnavailable)
		}
	}
	return nil
}
