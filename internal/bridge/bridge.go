// Package bridge adapts the per-browser-session coordinator to plain HTTP.
// Each browser session gets its own coordinator, keyed by a session cookie;
// the bridge translates requests into location changes and form actions and
// replies with the container's current HTML.
package bridge

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	tramite "github.com/tramite-hq/tramite"
	"github.com/tramite-hq/tramite/query"
	"github.com/tramite-hq/tramite/urlstate"
)

// SessionCookie names the cookie that keys one coordinator per browser
// session.
const SessionCookie = "tramite_sessao"

// Options configures a [Bridge].
type Options struct {
	// Config is handed to every coordinator the bridge builds.
	Config tramite.Config
	// BaseURL is the external origin of the admin UI, used to rebuild the
	// browser-style href the coordinator classifies.
	BaseURL string
	// Modules provides the routed screens (see tramite.Builder.WithModuleProvider).
	Modules func(*query.Client) []tramite.Module
	// Redis backs shared token storage; nil falls back to per-process memory.
	Redis redis.UniversalClient
	// HTTPClient overrides the coordinators' transport.
	HTTPClient *http.Client
	Log        *zap.Logger
}

// Bridge defines a public type used by tramite APIs.
//
// Bridge instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Bridge struct {
	opts Options
	log  *zap.Logger

	mu   sync.Mutex
	apps map[string]*app
}

type app struct {
	coord     *tramite.Coordinator
	loc       *urlstate.MemoryLocation
	container *captureContainer
}

// captureContainer retains the last rendered HTML so the bridge can reply
// with it after the coordinator and router have done their work.
type captureContainer struct {
	mu   sync.Mutex
	html string
}

func (c *captureContainer) SetContent(html string) {
	c.mu.Lock()
	c.html = html
	c.mu.Unlock()
}

func (c *captureContainer) current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.html
}

// New creates a [Bridge].
func New(opts Options) (*Bridge, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8080/"
	}
	return &Bridge{
		opts: opts,
		log:  opts.Log,
		apps: map[string]*app{},
	}, nil
}

// ServeHTTP describes the servehttp operation and its observable behavior.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionKey := b.sessionKey(w, r)

	a, created, err := b.appFor(r.Context(), sessionKey, r)
	if err != nil {
		b.log.Error("coordinator build failed", zap.Error(err))
		http.Error(w, "erro interno", http.StatusInternalServerError)
		return
	}

	switch {
	case r.Method == http.MethodPost:
		b.handleAction(w, r, a)
		return
	case r.Method == http.MethodGet:
		if !created {
			a.loc.Navigate(b.hrefFor(r))
		}
		b.writePage(w, a)
	default:
		http.Error(w, "método não suportado", http.StatusMethodNotAllowed)
	}
}

func (b *Bridge) sessionKey(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	key := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return key
}

// hrefFor rebuilds the browser-style href from the request: the query
// string survives as-is (recovery links arrive through it) and the rota
// parameter becomes the hash fragment.
func (b *Bridge) hrefFor(r *http.Request) string {
	base := strings.TrimRight(b.opts.BaseURL, "/")

	q := r.URL.Query()
	rota := q.Get("rota")
	q.Del("rota")

	href := base
	if len(q) > 0 {
		href += "?" + q.Encode()
	}
	if rota != "" {
		if !strings.HasPrefix(rota, "/") {
			rota = "/" + rota
		}
		href += "#" + rota
	}
	return href
}

func (b *Bridge) appFor(ctx context.Context, sessionKey string, r *http.Request) (*app, bool, error) {
	b.mu.Lock()
	if a, ok := b.apps[sessionKey]; ok {
		b.mu.Unlock()
		return a, false, nil
	}
	b.mu.Unlock()

	loc := urlstate.NewMemoryLocation(b.hrefFor(r))
	container := &captureContainer{}

	builder := tramite.New().
		WithConfig(b.opts.Config).
		WithLocation(loc).
		WithContainer(container).
		WithSessionKey(sessionKey).
		WithLogger(b.log.With(zap.String("session", sessionKey))).
		WithModuleProvider(b.opts.Modules)
	if b.opts.Redis != nil {
		builder = builder.WithRedis(b.opts.Redis)
	}
	if b.opts.HTTPClient != nil {
		builder = builder.WithHTTPClient(b.opts.HTTPClient)
	}

	coord, err := builder.Build()
	if err != nil {
		return nil, false, err
	}
	if err := coord.Start(ctx); err != nil {
		return nil, false, err
	}

	a := &app{coord: coord, loc: loc, container: container}
	b.mu.Lock()
	b.apps[sessionKey] = a
	b.mu.Unlock()
	return a, true, nil
}

func (b *Bridge) handleAction(w http.ResponseWriter, r *http.Request, a *app) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "formulário inválido", http.StatusBadRequest)
		return
	}

	switch r.PostFormValue("acao") {
	case "entrar":
		_ = a.coord.SignIn(r.Context(), r.PostFormValue("email"), r.PostFormValue("senha"))
	case "sair":
		_ = a.coord.SignOut(r.Context())
	case "definir-senha":
		_ = a.coord.SubmitNewPassword(r.Context(), r.PostFormValue("senha"), r.PostFormValue("confirmacao"))
	case "recuperar":
		_ = a.coord.RequestPasswordReset(r.Context(), r.PostFormValue("email"))
	default:
		http.Error(w, "ação desconhecida", http.StatusBadRequest)
		return
	}

	// Action outcomes (validation errors included) are already rendered
	// into the container; a redirect shows them.
	http.Redirect(w, r, redirectTarget(r), http.StatusSeeOther)
}

func redirectTarget(r *http.Request) string {
	target := r.URL.Path
	if target == "" {
		target = "/"
	}
	if rota := r.URL.Query().Get("rota"); rota != "" {
		target += "?rota=" + url.QueryEscape(rota)
	}
	return target
}

// Metrics sums the counters of every live coordinator, so one exposition
// endpoint covers the whole process.
func (b *Bridge) Metrics() tramite.MetricsSnapshot {
	out := tramite.MetricsSnapshot{Counters: map[string]uint64{}}
	b.mu.Lock()
	apps := make([]*app, 0, len(b.apps))
	for _, a := range b.apps {
		apps = append(apps, a)
	}
	b.mu.Unlock()

	for _, a := range apps {
		for name, v := range a.coord.Metrics().Counters {
			out.Counters[name] += v
		}
	}
	return out
}

func (b *Bridge) writePage(w http.ResponseWriter, a *app) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<!doctype html><html lang="pt-BR"><head><meta charset="utf-8"><title>Trâmite</title></head><body><div id="app">`))
	_, _ = w.Write([]byte(a.container.current()))
	_, _ = w.Write([]byte(`</div></body></html>`))
}
