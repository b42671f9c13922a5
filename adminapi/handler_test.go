package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var testSecret = []byte("admin-api-test-secret")

func mintAdminToken(t *testing.T, role string, key []byte) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":          "u-admin",
		"app_metadata": map[string]any{"role": role},
		"exp":          time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

// stubStore is an in-memory Store for handler tests.
type stubStore struct {
	users   map[string]User
	nextID  int
	resets  []string
	listErr error
}

func newStubStore() *stubStore {
	return &stubStore{users: map[string]User{}, nextID: 1}
}

func (s *stubStore) List(_ context.Context, page, size int) ([]User, int, error) {
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, len(s.users), nil
}

func (s *stubStore) Create(_ context.Context, in CreateUser) (*User, error) {
	for _, u := range s.users {
		if u.Email == in.Email {
			return nil, ErrEmailTaken
		}
	}
	u := User{ID: "u-" + strconv.Itoa(s.nextID), Email: in.Email, Papel: in.Papel}
	s.nextID++
	s.users[u.ID] = u
	return &u, nil
}

func (s *stubStore) Update(_ context.Context, id string, in UpdateUser) (*User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Papel != nil {
		u.Papel = *in.Papel
	}
	s.users[id] = u
	return &u, nil
}

func (s *stubStore) Delete(_ context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *stubStore) ResetPassword(_ context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return ErrUserNotFound
	}
	s.resets = append(s.resets, id)
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *stubStore) {
	t.Helper()
	store := newStubStore()
	h, err := New(store, testSecret, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h, store
}

func doRequest(t *testing.T, h *Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMissingTokenIs401(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestWrongKeyIs401(t *testing.T) {
	h, _ := newTestHandler(t)
	token := mintAdminToken(t, "Administrador", []byte("some-other-key"))
	rec := doRequest(t, h, http.MethodGet, "/", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, forged token must not verify", rec.Code)
	}
}

func TestNonAdministratorIs403(t *testing.T) {
	h, _ := newTestHandler(t)
	token := mintAdminToken(t, "Analista", testSecret)
	rec := doRequest(t, h, http.MethodGet, "/", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	token := mintAdminToken(t, "Administrador", testSecret)

	rec := doRequest(t, h, http.MethodPost, "/", token, map[string]string{"email": "x@y.z"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, missing fields must be 400", rec.Code)
	}
}

func TestCreateListUpdateDeleteRoundTrip(t *testing.T) {
	h, store := newTestHandler(t)
	token := mintAdminToken(t, "Administrador", testSecret)

	rec := doRequest(t, h, http.MethodPost, "/", token, CreateUser{
		Email: "ana@tramite.dev", Password: "s3cret", Papel: "Analista",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created User
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	rec = doRequest(t, h, http.MethodGet, "/?page=1&size=10", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed struct {
		Users []User `json:"users"`
		Total int    `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if listed.Total != 1 || len(listed.Users) != 1 {
		t.Fatalf("list = %+v", listed)
	}

	papel := "Administrador"
	rec = doRequest(t, h, http.MethodPatch, "/"+created.ID, token, UpdateUser{Papel: &papel})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d", rec.Code)
	}
	if store.users[created.ID].Papel != "Administrador" {
		t.Fatalf("papel not updated: %+v", store.users[created.ID])
	}

	rec = doRequest(t, h, http.MethodDelete, "/"+created.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if len(store.users) != 0 {
		t.Fatalf("user not deleted")
	}
}

func TestUpdateUnknownUserIs404(t *testing.T) {
	h, _ := newTestHandler(t)
	token := mintAdminToken(t, "Administrador", testSecret)

	email := "novo@tramite.dev"
	rec := doRequest(t, h, http.MethodPut, "/u-missing", token, UpdateUser{Email: &email})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestResetAction(t *testing.T) {
	h, store := newTestHandler(t)
	token := mintAdminToken(t, "Administrador", testSecret)

	rec := doRequest(t, h, http.MethodPost, "/", token, CreateUser{
		Email: "rui@tramite.dev", Password: "pw", Papel: "Analista",
	})
	var created User
	_ = json.Unmarshal(rec.Body.Bytes(), &created)

	rec = doRequest(t, h, http.MethodPost, "/"+created.ID+"?action=reset", token, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("reset status = %d", rec.Code)
	}
	if len(store.resets) != 1 || store.resets[0] != created.ID {
		t.Fatalf("resets = %v", store.resets)
	}
}

func TestUnmatchedRouteIs404(t *testing.T) {
	h, _ := newTestHandler(t)
	token := mintAdminToken(t, "Administrador", testSecret)

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/u-1"},
		{http.MethodPost, "/u-1"},
		{http.MethodDelete, "/u-1/extra"},
	} {
		rec := doRequest(t, h, tc.method, tc.target, token, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s %s: status = %d, want 404", tc.method, tc.target, rec.Code)
		}
	}
}

func TestWrongMethodOnCollectionIs405(t *testing.T) {
	h, _ := newTestHandler(t)
	token := mintAdminToken(t, "Administrador", testSecret)

	rec := doRequest(t, h, http.MethodDelete, "/", token, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestBadPaginationIs400(t *testing.T) {
	h, _ := newTestHandler(t)
	token := mintAdminToken(t, "Administrador", testSecret)

	for _, target := range []string{"/?page=0", "/?size=0", "/?size=1000", "/?page=abc"} {
		rec := doRequest(t, h, http.MethodGet, target, token, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", target, rec.Code)
		}
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doRequest(t, h, http.MethodGet, "/", "", nil)
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing X-Request-Id header")
	}
}

func TestBackendStoreMapsStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/admin/users":
			if r.Method == http.MethodPost {
				w.WriteHeader(http.StatusUnprocessableEntity)
				return
			}
			_, _ = w.Write([]byte(`{"users":[{"id":"u-1","email":"a@b.c","app_metadata":{"role":"Analista"}}],"total":1}`))
		case "/auth/v1/admin/users/u-missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	store, err := NewBackendStore(srv.URL, "service-token", nil)
	if err != nil {
		t.Fatalf("NewBackendStore: %v", err)
	}

	users, total, err := store.List(context.Background(), 1, 25)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].Papel != "Analista" {
		t.Fatalf("List = %+v total=%d", users, total)
	}

	if _, err := store.Create(context.Background(), CreateUser{Email: "a@b.c", Password: "x", Papel: "Analista"}); err != ErrEmailTaken {
		t.Fatalf("Create err = %v, want ErrEmailTaken", err)
	}
	if err := store.Delete(context.Background(), "u-missing"); err != ErrUserNotFound {
		t.Fatalf("Delete err = %v, want ErrUserNotFound", err)
	}
}
