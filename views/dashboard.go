package views

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/tramite-hq/tramite/query"
	"github.com/tramite-hq/tramite/router"
)

// StatusCount is one dashboard row: how many processos sit in a status.
type StatusCount struct {
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// Dashboard renders the /painel screen: processo counts by status plus the
// number of tarefas still open.
//
// The counts come from the painel_resumo stored procedure. Older backends
// do not have it, so a failed call falls back to fetching the status column
// and aggregating client-side; the screen looks the same either way.
type Dashboard struct {
	data *query.Client
	log  *zap.Logger
}

// NewDashboard creates a [Dashboard] over the given data client.
func NewDashboard(data *query.Client, log *zap.Logger) *Dashboard {
	return &Dashboard{data: data, log: log}
}

// Render describes the render operation and its observable behavior.
func (d *Dashboard) Render(c router.Container) {
	ctx, cancel := fetchContext()
	defer cancel()

	counts, err := d.Counts(ctx)
	if err != nil {
		c.SetContent(errorContent("Painel", err))
		return
	}
	open, err := d.OpenTasks(ctx)
	if err != nil {
		c.SetContent(errorContent("Painel", err))
		return
	}
	c.SetContent(d.content(counts, open))
}

// Counts returns processo totals by status, preferring the server-side
// aggregate and falling back to a client-side count.
func (d *Dashboard) Counts(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	err := d.data.Rpc(ctx, "painel_resumo", nil, &counts)
	if err == nil {
		sortCounts(counts)
		return counts, nil
	}
	d.log.Debug("painel_resumo unavailable, aggregating client-side", zap.Error(err))

	var rows []struct {
		Status string `json:"status"`
	}
	if err := d.data.From("processos").Select("status").Get(ctx, &rows); err != nil {
		return nil, err
	}
	byStatus := make(map[string]int, len(rows))
	for _, r := range rows {
		byStatus[r.Status]++
	}
	counts = make([]StatusCount, 0, len(byStatus))
	for status, total := range byStatus {
		counts = append(counts, StatusCount{Status: status, Total: total})
	}
	sortCounts(counts)
	return counts, nil
}

// OpenTasks returns how many tarefas are still pending across all processos.
func (d *Dashboard) OpenTasks(ctx context.Context) (int, error) {
	var rows []struct {
		ID string `json:"id"`
	}
	if err := d.data.From("tarefas").Select("id").Eq("concluida", "false").Get(ctx, &rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func sortCounts(counts []StatusCount) {
	sort.Slice(counts, func(i, j int) bool { return counts[i].Status < counts[j].Status })
}

func (d *Dashboard) content(counts []StatusCount, openTasks int) string {
	var b strings.Builder
	b.WriteString(`<section class="painel"><h1>Painel</h1>`)
	if len(counts) == 0 {
		b.WriteString(`<p class="vazio">Nenhum processo cadastrado.</p>`)
	} else {
		b.WriteString(`<table><thead><tr><th>Status</th><th>Total</th></tr></thead><tbody>`)
		for _, row := range counts {
			b.WriteString(`<tr><td>` + esc(row.Status) + `</td><td>` + strconv.Itoa(row.Total) + `</td></tr>`)
		}
		b.WriteString(`</tbody></table>`)
	}
	b.WriteString(`<p class="tarefas-abertas">Tarefas abertas: ` + strconv.Itoa(openTasks) + `</p>`)
	b.WriteString(`</section>`)
	return b.String()
}
