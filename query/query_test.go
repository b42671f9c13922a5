package query

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

type capturedRequest struct {
	method string
	path   string
	query  string
	bearer string
	prefer string
	body   []byte
}

func newCapturingClient(t *testing.T, status int, response string) (*Client, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		captured.query = r.URL.RawQuery
		captured.bearer = r.Header.Get("Authorization")
		captured.prefer = r.Header.Get("Prefer")
		captured.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "anon-key", func(context.Context) (string, error) {
		return "bearer-token", nil
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, captured
}

func TestGetBuildsFilteredRequest(t *testing.T) {
	c, captured := newCapturingClient(t, http.StatusOK, `[{"id":"p-1","status":"em_analise"}]`)

	var rows []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	err := c.From("processos").
		Select("id,status").
		Eq("status", "em_analise").
		Order("criado_em", true).
		Limit(50).
		Get(context.Background(), &rows)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if captured.method != http.MethodGet || captured.path != "/rest/v1/processos" {
		t.Fatalf("request = %s %s", captured.method, captured.path)
	}
	if captured.bearer != "Bearer bearer-token" {
		t.Fatalf("bearer = %q", captured.bearer)
	}
	for _, want := range []string{"select=id%2Cstatus", "status=eq.em_analise", "order=criado_em.desc", "limit=50"} {
		if !containsParam(captured.query, want) {
			t.Fatalf("query %q missing %q", captured.query, want)
		}
	}
	if len(rows) != 1 || rows[0].ID != "p-1" {
		t.Fatalf("rows = %+v", rows)
	}
}

func containsParam(rawQuery, param string) bool {
	for _, p := range splitQuery(rawQuery) {
		if p == param {
			return true
		}
	}
	return false
}

func splitQuery(raw string) []string {
	var out []string
	for len(raw) > 0 {
		i := 0
		for i < len(raw) && raw[i] != '&' {
			i++
		}
		out = append(out, raw[:i])
		if i == len(raw) {
			break
		}
		raw = raw[i+1:]
	}
	return out
}

func TestInsertRequestsRepresentation(t *testing.T) {
	c, captured := newCapturingClient(t, http.StatusCreated, `[{"id":"p-9"}]`)

	var created []struct {
		ID string `json:"id"`
	}
	err := c.From("processos").Insert(context.Background(), map[string]string{
		"titulo": "Novo processo",
	}, &created)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if captured.method != http.MethodPost {
		t.Fatalf("method = %s", captured.method)
	}
	if captured.prefer != "return=representation" {
		t.Fatalf("Prefer = %q", captured.prefer)
	}
	var sent map[string]string
	if err := json.Unmarshal(captured.body, &sent); err != nil || sent["titulo"] != "Novo processo" {
		t.Fatalf("body = %s", captured.body)
	}
	if len(created) != 1 || created[0].ID != "p-9" {
		t.Fatalf("created = %+v", created)
	}
}

func TestUpdateUsesPatchWithFilter(t *testing.T) {
	c, captured := newCapturingClient(t, http.StatusNoContent, "")

	err := c.From("tarefas").Eq("id", "t-3").Update(context.Background(), map[string]bool{
		"concluida": true,
	}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if captured.method != http.MethodPatch || !containsParam(captured.query, "id=eq.t-3") {
		t.Fatalf("request = %s %s?%s", captured.method, captured.path, captured.query)
	}
	if captured.prefer != "" {
		t.Fatalf("Prefer should be absent when out is nil, got %q", captured.prefer)
	}
}

func TestRpcPostsArgs(t *testing.T) {
	c, captured := newCapturingClient(t, http.StatusOK, `{"total":12}`)

	var result struct {
		Total int `json:"total"`
	}
	err := c.Rpc(context.Background(), "painel_resumo", map[string]string{"periodo": "30d"}, &result)
	if err != nil {
		t.Fatalf("Rpc: %v", err)
	}
	if captured.path != "/rest/v1/rpc/painel_resumo" {
		t.Fatalf("path = %q", captured.path)
	}
	if result.Total != 12 {
		t.Fatalf("result = %+v", result)
	}
}

func TestErrorDecodesBackendMessage(t *testing.T) {
	c, _ := newCapturingClient(t, http.StatusConflict, `{"message":"duplicate key","code":"23505"}`)

	err := c.From("usuarios").Insert(context.Background(), map[string]string{"email": "x"}, nil)
	qe, ok := err.(*QueryError)
	if !ok {
		t.Fatalf("expected *QueryError, got %T (%v)", err, err)
	}
	if qe.StatusCode != http.StatusConflict || qe.Message != "duplicate key" || qe.Code != "23505" {
		t.Fatalf("QueryError = %+v", qe)
	}
}

func TestTokenSourceFailureStopsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("request should not reach the server")
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, "anon-key", func(context.Context) (string, error) {
		return "", context.DeadlineExceeded
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := c.From("processos").Get(context.Background(), nil); err == nil {
		t.Fatalf("expected error from token source")
	}
}
