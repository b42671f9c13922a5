package views

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/tramite-hq/tramite/query"
	"github.com/tramite-hq/tramite/router"
)

// Tarefa is one checklist item attached to a processo.
type Tarefa struct {
	ID         string `json:"id"`
	ProcessoID string `json:"processo_id"`
	Descricao  string `json:"descricao"`
	Concluida  bool   `json:"concluida"`
}

// Tarefas renders the /tarefas screen: the pending-work checklist across
// all processos the session may see.
type Tarefas struct {
	data *query.Client
	log  *zap.Logger
}

// NewTarefas creates a [Tarefas] over the given data client.
func NewTarefas(data *query.Client, log *zap.Logger) *Tarefas {
	return &Tarefas{data: data, log: log}
}

// Render describes the render operation and its observable behavior.
func (t *Tarefas) Render(c router.Container) {
	ctx, cancel := fetchContext()
	defer cancel()

	rows, err := t.List(ctx)
	if err != nil {
		c.SetContent(errorContent("Tarefas", err))
		return
	}
	c.SetContent(t.content(rows))
}

// List returns open tasks first, then completed ones.
func (t *Tarefas) List(ctx context.Context) ([]Tarefa, error) {
	var rows []Tarefa
	err := t.data.From("tarefas").
		Select("id,processo_id,descricao,concluida").
		Order("concluida", false).
		Limit(500).
		Get(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Toggle flips a task's completion flag.
func (t *Tarefas) Toggle(ctx context.Context, tarefaID string, concluida bool) error {
	return t.data.From("tarefas").
		Eq("id", tarefaID).
		Update(ctx, map[string]bool{"concluida": concluida}, nil)
}

func (t *Tarefas) content(rows []Tarefa) string {
	var b strings.Builder
	b.WriteString(`<section class="tarefas"><h1>Tarefas</h1>`)
	if len(rows) == 0 {
		b.WriteString(`<p class="vazio">Nenhuma tarefa pendente.</p>`)
	} else {
		b.WriteString(`<ul class="lista-tarefas">`)
		for _, row := range rows {
			b.WriteString(`<li data-id="` + esc(row.ID) + `">` +
				`<input type="checkbox" data-acao="concluir" data-id="` + esc(row.ID) + `"` +
				checked(row.Concluida) + `>` +
				`<span>` + esc(row.Descricao) + `</span>` +
				`</li>`)
		}
		b.WriteString(`</ul>`)
	}
	b.WriteString(`</section>`)
	return b.String()
}

func checked(v bool) string {
	if v {
		return ` checked`
	}
	return ""
}
