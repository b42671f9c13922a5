package views

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/tramite-hq/tramite/query"
	"github.com/tramite-hq/tramite/router"
)

// Usuario is one account row of the administration screen.
type Usuario struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Papel    string `json:"papel"`
	CriadoEm string `json:"criado_em"`
}

// Usuarios renders the /usuarios screen. The coordinator registers it for
// administrators only; write operations go through the user-administration
// API, not the data API, and are out of this screen's hands.
type Usuarios struct {
	data *query.Client
	log  *zap.Logger
}

// NewUsuarios creates a [Usuarios] over the given data client.
func NewUsuarios(data *query.Client, log *zap.Logger) *Usuarios {
	return &Usuarios{data: data, log: log}
}

// Render describes the render operation and its observable behavior.
func (u *Usuarios) Render(c router.Container) {
	ctx, cancel := fetchContext()
	defer cancel()

	rows, err := u.List(ctx)
	if err != nil {
		c.SetContent(errorContent("Usuários", err))
		return
	}
	c.SetContent(u.content(rows))
}

// List returns every account, oldest first.
func (u *Usuarios) List(ctx context.Context) ([]Usuario, error) {
	var rows []Usuario
	err := u.data.From("usuarios").
		Select("id,email,papel,criado_em").
		Order("criado_em", false).
		Get(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (u *Usuarios) content(rows []Usuario) string {
	var b strings.Builder
	b.WriteString(`<section class="usuarios"><h1>Usuários</h1>`)
	if len(rows) == 0 {
		b.WriteString(`<p class="vazio">Nenhum usuário cadastrado.</p>`)
	} else {
		b.WriteString(`<table><thead><tr><th>E-mail</th><th>Papel</th><th></th></tr></thead><tbody>`)
		for _, row := range rows {
			b.WriteString(`<tr data-id="` + esc(row.ID) + `">` +
				`<td>` + esc(row.Email) + `</td>` +
				`<td>` + esc(row.Papel) + `</td>` +
				`<td>` +
				`<button data-acao="redefinir-senha" data-id="` + esc(row.ID) + `">Redefinir senha</button> ` +
				`<button data-acao="remover" data-id="` + esc(row.ID) + `">Remover</button>` +
				`</td></tr>`)
		}
		b.WriteString(`</tbody></table>`)
	}
	b.WriteString(`<form data-acao="novo-usuario">` +
		`<label>E-mail<input type="email" name="email" required></label>` +
		`<label>Senha<input type="password" name="senha" required></label>` +
		`<label>Papel<select name="papel">` +
		`<option>Analista</option><option>Administrador</option>` +
		`</select></label>` +
		`<button type="submit">Criar</button></form>`)
	b.WriteString(`</section>`)
	return b.String()
}
