package views

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/tramite-hq/tramite"
	"github.com/tramite-hq/tramite/query"
)

type fakeDataAPI struct {
	mu sync.Mutex

	// responses by path; a missing entry answers 404.
	responses map[string]string
	// status overrides by path.
	statuses map[string]int

	requests []string
	patches  []string
}

func (f *fakeDataAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPatch {
			f.patches = append(f.patches, r.URL.RawQuery)
		}
		body, ok := f.responses[r.URL.Path]
		status := f.statuses[r.URL.Path]
		f.mu.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"message":"procedure not found"}`))
			return
		}
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"not found"}`))
			return
		}
		_, _ = w.Write([]byte(body))
	})
}

func newTestQueryClient(t *testing.T, api *fakeDataAPI) *query.Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	c, err := query.New(srv.URL, "anon-key", nil, nil)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return c
}

type fakeContainer struct {
	content string
}

func (f *fakeContainer) SetContent(html string) { f.content = html }

func TestDashboardUsesServerAggregate(t *testing.T) {
	api := &fakeDataAPI{responses: map[string]string{
		"/rest/v1/rpc/painel_resumo": `[{"status":"recebido","total":3},{"status":"em_analise","total":1}]`,
	}}
	d := NewDashboard(newTestQueryClient(t, api), zap.NewNop())

	counts, err := d.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if len(counts) != 2 || counts[0].Status != "em_analise" || counts[1].Total != 3 {
		t.Fatalf("counts = %+v", counts)
	}
}

func TestDashboardFallsBackToClientAggregation(t *testing.T) {
	api := &fakeDataAPI{
		statuses: map[string]int{"/rest/v1/rpc/painel_resumo": http.StatusNotFound},
		responses: map[string]string{
			"/rest/v1/processos": `[{"status":"recebido"},{"status":"recebido"},{"status":"deferido"}]`,
		},
	}
	d := NewDashboard(newTestQueryClient(t, api), zap.NewNop())

	counts, err := d.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	want := map[string]int{"recebido": 2, "deferido": 1}
	if len(counts) != 2 {
		t.Fatalf("counts = %+v", counts)
	}
	for _, c := range counts {
		if want[c.Status] != c.Total {
			t.Fatalf("counts = %+v", counts)
		}
	}
}

func TestDashboardRenderShowsOpenTasks(t *testing.T) {
	api := &fakeDataAPI{responses: map[string]string{
		"/rest/v1/rpc/painel_resumo": `[{"status":"recebido","total":2}]`,
		"/rest/v1/tarefas":           `[{"id":"t-1"},{"id":"t-2"},{"id":"t-3"}]`,
	}}
	d := NewDashboard(newTestQueryClient(t, api), zap.NewNop())

	c := &fakeContainer{}
	d.Render(c)
	if !strings.Contains(c.content, "Tarefas abertas: 3") {
		t.Fatalf("rendered dashboard missing open-task count: %q", c.content)
	}
}

func TestDashboardRenderError(t *testing.T) {
	api := &fakeDataAPI{statuses: map[string]int{
		"/rest/v1/rpc/painel_resumo": http.StatusInternalServerError,
		"/rest/v1/processos":         http.StatusInternalServerError,
	}}
	d := NewDashboard(newTestQueryClient(t, api), zap.NewNop())

	c := &fakeContainer{}
	d.Render(c)
	if !strings.Contains(c.content, "erro-carregamento") {
		t.Fatalf("expected error screen, got %q", c.content)
	}
}

func TestProcessosListAndRender(t *testing.T) {
	api := &fakeDataAPI{responses: map[string]string{
		"/rest/v1/processos": `[{"id":"p-1","numero":"2026/0001","titulo":"Alvará de funcionamento","status":"em_analise","criado_em":"2026-08-01T10:00:00Z"}]`,
	}}
	p := NewProcessos(newTestQueryClient(t, api), zap.NewNop())

	c := &fakeContainer{}
	p.Render(c)
	for _, want := range []string{"2026/0001", "Alvará de funcionamento", "em_analise", `data-acao="avancar"`} {
		if !strings.Contains(c.content, want) {
			t.Fatalf("rendered list missing %q: %q", want, c.content)
		}
	}
}

func TestProcessosAdvanceStatusCallsProcedure(t *testing.T) {
	api := &fakeDataAPI{responses: map[string]string{
		"/rest/v1/rpc/avancar_status": `{}`,
	}}
	p := NewProcessos(newTestQueryClient(t, api), zap.NewNop())

	if err := p.AdvanceStatus(context.Background(), "p-1"); err != nil {
		t.Fatalf("AdvanceStatus: %v", err)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.requests) != 1 || api.requests[0] != "POST /rest/v1/rpc/avancar_status" {
		t.Fatalf("requests = %v", api.requests)
	}
}

func TestProcessosCreateReturnsRepresentation(t *testing.T) {
	api := &fakeDataAPI{responses: map[string]string{
		"/rest/v1/processos": `[{"id":"p-9","numero":"2026/0009","titulo":"Novo","status":"recebido"}]`,
	}}
	p := NewProcessos(newTestQueryClient(t, api), zap.NewNop())

	created, err := p.Create(context.Background(), "2026/0009", "Novo")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "p-9" || created.Status != "recebido" {
		t.Fatalf("created = %+v", created)
	}
}

func TestTarefasToggleFiltersById(t *testing.T) {
	api := &fakeDataAPI{responses: map[string]string{
		"/rest/v1/tarefas": `[]`,
	}}
	tf := NewTarefas(newTestQueryClient(t, api), zap.NewNop())

	if err := tf.Toggle(context.Background(), "t-7", true); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.patches) != 1 || !strings.Contains(api.patches[0], "id=eq.t-7") {
		t.Fatalf("patches = %v", api.patches)
	}
}

func TestUsuariosRenderListsAccounts(t *testing.T) {
	api := &fakeDataAPI{responses: map[string]string{
		"/rest/v1/usuarios": `[{"id":"u-1","email":"ana@tramite.dev","papel":"Administrador","criado_em":"2026-01-01T00:00:00Z"}]`,
	}}
	u := NewUsuarios(newTestQueryClient(t, api), zap.NewNop())

	c := &fakeContainer{}
	u.Render(c)
	if !strings.Contains(c.content, "ana@tramite.dev") || !strings.Contains(c.content, "Administrador") {
		t.Fatalf("rendered list = %q", c.content)
	}
}

func TestProviderModuleSet(t *testing.T) {
	api := &fakeDataAPI{}
	modules := Provider(zap.NewNop())(newTestQueryClient(t, api))

	routes := map[string]tramite.Module{}
	for _, m := range modules {
		routes[m.Route] = m
	}
	for _, want := range []string{"/painel", "/processos", "/tarefas", "/usuarios"} {
		if _, ok := routes[want]; !ok {
			t.Fatalf("module set missing %s", want)
		}
	}
	if routes["/usuarios"].VisibleTo("Analista") {
		t.Fatalf("usuarios must be administrator-only")
	}
	if !routes["/painel"].VisibleTo("Analista") {
		t.Fatalf("painel must be visible to every role")
	}
}
