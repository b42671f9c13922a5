package views

import (
	"context"
	"html"
	"time"

	"go.uber.org/zap"

	"github.com/tramite-hq/tramite"
	"github.com/tramite-hq/tramite/query"
)

// fetchTimeout bounds every data-API read a screen performs while rendering.
const fetchTimeout = 10 * time.Second

// Provider returns the module set for [tramite.Builder.WithModuleProvider]:
// dashboard, processos, tarefas, and the administrator-only usuarios screen.
func Provider(log *zap.Logger) func(*query.Client) []tramite.Module {
	return func(data *query.Client) []tramite.Module {
		if log == nil {
			log = zap.NewNop()
		}
		dashboard := NewDashboard(data, log)
		processos := NewProcessos(data, log)
		tarefas := NewTarefas(data, log)
		usuarios := NewUsuarios(data, log)

		return []tramite.Module{
			{Route: "/painel", Title: "Painel", Handler: dashboard.Render},
			{Route: "/processos", Title: "Processos", Handler: processos.Render},
			{Route: "/tarefas", Title: "Tarefas", Handler: tarefas.Render},
			{Route: "/usuarios", Title: "Usuários", Roles: []string{tramite.RoleAdministrator}, Handler: usuarios.Render},
		}
	}
}

func fetchContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), fetchTimeout)
}

func esc(s string) string {
	return html.EscapeString(s)
}

func errorContent(title string, err error) string {
	return `<section class="erro-carregamento"><h1>` + esc(title) + `</h1>` +
		`<p class="erro">Não foi possível carregar os dados: ` + esc(err.Error()) + `</p></section>`
}
