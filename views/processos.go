package views

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/tramite-hq/tramite/query"
	"github.com/tramite-hq/tramite/router"
)

// Processo is one case file as the list screen sees it.
type Processo struct {
	ID       string `json:"id"`
	Numero   string `json:"numero"`
	Titulo   string `json:"titulo"`
	Status   string `json:"status"`
	CriadoEm string `json:"criado_em"`
}

// Processos renders the /processos screen: the case-file list, newest
// first, with the advance-status action per row.
type Processos struct {
	data *query.Client
	log  *zap.Logger
}

// NewProcessos creates a [Processos] over the given data client.
func NewProcessos(data *query.Client, log *zap.Logger) *Processos {
	return &Processos{data: data, log: log}
}

// Render describes the render operation and its observable behavior.
func (p *Processos) Render(c router.Container) {
	ctx, cancel := fetchContext()
	defer cancel()

	rows, err := p.List(ctx)
	if err != nil {
		c.SetContent(errorContent("Processos", err))
		return
	}
	c.SetContent(p.content(rows))
}

// List returns the newest 200 processos.
func (p *Processos) List(ctx context.Context) ([]Processo, error) {
	var rows []Processo
	err := p.data.From("processos").
		Select("id,numero,titulo,status,criado_em").
		Order("criado_em", true).
		Limit(200).
		Get(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a new processo and returns it as the backend stored it.
func (p *Processos) Create(ctx context.Context, numero, titulo string) (*Processo, error) {
	var created []Processo
	err := p.data.From("processos").Insert(ctx, map[string]string{
		"numero": numero,
		"titulo": titulo,
	}, &created)
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, &query.QueryError{Message: "inserção não retornou o registro"}
	}
	return &created[0], nil
}

// AdvanceStatus moves a processo to its next tramitation status. The
// transition table lives in the avancar_status procedure so every client
// and the backend agree on the allowed moves.
func (p *Processos) AdvanceStatus(ctx context.Context, processoID string) error {
	return p.data.Rpc(ctx, "avancar_status", map[string]string{"processo_id": processoID}, nil)
}

func (p *Processos) content(rows []Processo) string {
	var b strings.Builder
	b.WriteString(`<section class="processos"><h1>Processos</h1>`)
	if len(rows) == 0 {
		b.WriteString(`<p class="vazio">Nenhum processo cadastrado.</p>`)
	} else {
		b.WriteString(`<table><thead><tr><th>Número</th><th>Título</th><th>Status</th><th></th></tr></thead><tbody>`)
		for _, row := range rows {
			b.WriteString(`<tr data-id="` + esc(row.ID) + `">` +
				`<td>` + esc(row.Numero) + `</td>` +
				`<td>` + esc(row.Titulo) + `</td>` +
				`<td>` + esc(row.Status) + `</td>` +
				`<td><button data-acao="avancar" data-id="` + esc(row.ID) + `">Avançar</button></td>` +
				`</tr>`)
		}
		b.WriteString(`</tbody></table>`)
	}
	b.WriteString(`<form data-acao="novo-processo">` +
		`<label>Número<input name="numero" required></label>` +
		`<label>Título<input name="titulo" required></label>` +
		`<button type="submit">Cadastrar</button></form>`)
	b.WriteString(`</section>`)
	return b.String()
}
