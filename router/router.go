package router

import (
	"errors"
	"html"
	"strings"
	"sync"

	"github.com/tramite-hq/tramite/urlstate"
)

// ErrAlreadyStarted is returned by [Router.Start] while a previous start is
// still live. The caller must invoke the stop capability first.
var ErrAlreadyStarted = errors.New("router already started")

// Container is the render sink a view writes into. The HTTP bridge backs it
// with the page body; tests back it with a recording buffer.
type Container interface {
	SetContent(html string)
}

// Handler renders one route into the container.
type Handler func(c Container)

// Router defines a public type used by tramite APIs.
//
// Router instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Router struct {
	mu        sync.Mutex
	loc       urlstate.Location
	homeRoute string
	routes    map[string]Handler
	started   bool
	observer  func(route string, matched bool)
}

// New creates a [Router] reading navigation state from loc. homeRoute is the
// canonical route rendered when the hash is empty (e.g. "/painel").
func New(loc urlstate.Location, homeRoute string) *Router {
	return &Router{
		loc:       loc,
		homeRoute: homeRoute,
		routes:    map[string]Handler{},
	}
}

// Register upserts the handler for route. The last registration for a given
// route string wins.
func (r *Router) Register(route string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[route] = h
}

// SetObserver installs an optional callback invoked after every render pass
// with the resolved route and whether a handler matched. Used for metrics.
func (r *Router) SetObserver(fn func(route string, matched bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = fn
}

// Started reports whether a navigation listener is currently registered.
func (r *Router) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// Start performs one synchronous render pass for the current hash, then
// subscribes to navigation changes for subsequent renders. It returns a stop
// capability that unsubscribes and marks the router stopped; invoking the
// capability more than once is a no-op after the first call.
//
// Start returns [ErrAlreadyStarted] instead of registering a second listener.
func (r *Router) Start(c Container) (stop func(), err error) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	r.started = true
	r.mu.Unlock()

	r.render(c)

	cancel := r.loc.Watch(func() {
		r.render(c)
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			r.mu.Lock()
			r.started = false
			r.mu.Unlock()
		})
	}, nil
}

func (r *Router) render(c Container) {
	route := r.currentRoute()

	r.mu.Lock()
	h, ok := r.routes[route]
	observer := r.observer
	r.mu.Unlock()

	if ok {
		h(c)
	} else {
		c.SetContent(notFoundContent(route))
	}

	if observer != nil {
		observer(route, ok)
	}
}

// currentRoute resolves the hash to an exact route string. An empty hash
// falls back to the canonical home route.
func (r *Router) currentRoute() string {
	hash := r.loc.Hash()
	if hash == "" {
		return r.homeRoute
	}
	return strings.TrimPrefix(hash, "#")
}

func notFoundContent(route string) string {
	return `<section class="rota-desconhecida"><h2>Página não encontrada</h2>` +
		`<p>Rota desconhecida: <code>` + html.EscapeString(route) + `</code></p></section>`
}
