package router

import (
	"errors"
	"strings"
	"testing"

	"github.com/tramite-hq/tramite/urlstate"
)

type recordingContainer struct {
	contents []string
}

func (c *recordingContainer) SetContent(html string) {
	c.contents = append(c.contents, html)
}

func (c *recordingContainer) last() string {
	if len(c.contents) == 0 {
		return ""
	}
	return c.contents[len(c.contents)-1]
}

func newTestRouter(hash string) (*Router, *urlstate.MemoryLocation) {
	loc := urlstate.NewMemoryLocation("https://tramite.example/admin" + hash)
	return New(loc, "/painel"), loc
}

func TestRegisterLastWins(t *testing.T) {
	r, _ := newTestRouter("#/processos")

	r.Register("/processos", func(c Container) { c.SetContent("first") })
	r.Register("/processos", func(c Container) { c.SetContent("second") })

	c := &recordingContainer{}
	stop, err := r.Start(c)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stop()

	if c.last() != "second" {
		t.Fatalf("expected last registration to win, rendered %q", c.last())
	}
}

func TestStartRendersExactlyOnceSynchronously(t *testing.T) {
	r, _ := newTestRouter("#/processos")
	r.Register("/processos", func(c Container) { c.SetContent("processos") })

	c := &recordingContainer{}
	stop, err := r.Start(c)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stop()

	if len(c.contents) != 1 {
		t.Fatalf("expected exactly one synchronous render, got %d", len(c.contents))
	}
}

func TestStartWhileStartedDoesNotDoubleSubscribe(t *testing.T) {
	r, loc := newTestRouter("#/processos")

	fired := 0
	r.Register("/processos", func(c Container) { fired++; c.SetContent("ok") })
	r.Register("/tarefas", func(c Container) { fired++; c.SetContent("ok") })

	c := &recordingContainer{}
	stop, err := r.Start(c)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stop()
	fired = 0

	if _, err := r.Start(c); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}

	loc.SetHash("#/tarefas")
	loc.SetHash("#/processos")
	if fired != 2 {
		t.Fatalf("expected handlers to fire exactly twice after two navigations, got %d", fired)
	}
}

func TestStopCapabilityIsIdempotent(t *testing.T) {
	r, loc := newTestRouter("#/processos")
	r.Register("/processos", func(c Container) { c.SetContent("ok") })

	c := &recordingContainer{}
	stop, err := r.Start(c)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	stop()
	stop()
	if r.Started() {
		t.Fatal("router should be stopped")
	}

	rendered := len(c.contents)
	loc.SetHash("#/painel")
	if len(c.contents) != rendered {
		t.Fatal("stopped router must not render on navigation")
	}

	// A stopped router can be started again.
	stop2, err := r.Start(c)
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	stop2()
}

func TestUnknownRouteRendersPlaceholder(t *testing.T) {
	r, _ := newTestRouter("#/inexistente")

	c := &recordingContainer{}
	stop, err := r.Start(c)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stop()

	if c.last() == "" {
		t.Fatal("container must never be left blank")
	}
	if !strings.Contains(c.last(), "/inexistente") {
		t.Fatalf("placeholder must name the unmatched route, got %q", c.last())
	}
}

func TestEmptyHashRendersHomeRoute(t *testing.T) {
	r, _ := newTestRouter("")
	r.Register("/painel", func(c Container) { c.SetContent("painel") })

	c := &recordingContainer{}
	stop, err := r.Start(c)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stop()

	if c.last() != "painel" {
		t.Fatalf("expected home route render, got %q", c.last())
	}
}
