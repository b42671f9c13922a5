package tramite

import (
	"context"
	"html"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tramite-hq/tramite/authclient"
	"github.com/tramite-hq/tramite/query"
	"github.com/tramite-hq/tramite/router"
	"github.com/tramite-hq/tramite/urlstate"
)

// Coordinator defines a public type used by tramite APIs.
//
// Coordinator instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Coordinator struct {
	cfg       Config
	loc       urlstate.Location
	container router.Container
	primary   *authclient.Client
	recovery  *authclient.Client
	data      *query.Client
	modules   []Module
	log       *zap.Logger
	metrics   *metricsRegistry

	mu            sync.Mutex
	started       bool
	mode          UIMode
	flow          FlowType
	session       *authclient.Session
	role          string
	notice        string
	loginError    string
	recoveryReady bool
	router        *router.Router
	stopRouter    func()
	unsubscribe   func()
}

// Start performs the initial load: it classifies the current URL, resolves
// or repairs it, establishes the starting mode, and subscribes to auth
// events. Start must be called exactly once per Coordinator.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.mu.Unlock()

	class := urlstate.Classify(c.loc.Href())
	c.log.Info("initial load",
		zap.String("kind", class.Kind.String()),
		zap.String("route", class.Route))

	switch class.Kind {
	case urlstate.KindRecovery:
		c.metrics.inc(MetricRecoveryEntered)
		c.enterSetPassword(ctx, FlowRecovery)
	case urlstate.KindInvite:
		c.metrics.inc(MetricInviteEntered)
		c.enterSetPassword(ctx, FlowInvite)
	case urlstate.KindBad:
		c.metrics.inc(MetricBadURLSanitized)
		c.loc.Replace(urlstate.Sanitize(c.loc.Href()))
		c.resolveAndRoute(ctx)
	default:
		c.resolveAndRoute(ctx)
	}

	c.mu.Lock()
	c.unsubscribe = c.primary.OnAuthStateChange(c.handleAuthEvent)
	c.mu.Unlock()
	return nil
}

// Stop unsubscribes from auth events and stops the router if it is running.
// The Coordinator cannot be restarted.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	stop := c.stopRouter
	c.unsubscribe = nil
	c.stopRouter = nil
	c.router = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if stop != nil {
		stop()
	}
}

// Mode returns the current UI mode.
func (c *Coordinator) Mode() UIMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// RouterStarted reports whether the hash router currently holds its
// subscription. True exactly when the coordinator is in [ModeRouted].
func (c *Coordinator) RouterStarted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.router != nil && c.router.Started()
}

// Flow returns which set-password entry is active, [FlowNone] outside
// [ModeSetPassword].
func (c *Coordinator) Flow() FlowType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flow
}

// Role returns the resolved role of the routed session, or "" outside
// [ModeRouted].
func (c *Coordinator) Role() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

// Notice returns the pending one-time notice and clears it.
func (c *Coordinator) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.notice
	c.notice = ""
	return n
}

// Metrics returns a point-in-time copy of the coordinator's counters.
func (c *Coordinator) Metrics() MetricsSnapshot {
	return c.metrics.snapshot()
}

// SignIn authenticates with email and password. On success the auth event
// moves the coordinator into [ModeRouted]; on failure the logged-out screen
// re-renders with the service's message and the error is returned.
func (c *Coordinator) SignIn(ctx context.Context, email, password string) error {
	_, err := c.primary.SignInWithPassword(ctx, email, password)
	if err != nil {
		c.metrics.inc(MetricSignInFailure)
		c.mu.Lock()
		c.loginError = err.Error()
		c.mu.Unlock()
		c.renderLoggedOut()
		return err
	}
	c.metrics.inc(MetricSignInSuccess)
	return nil
}

// SignOut revokes the primary session. Local state is discarded even when
// the revoke round-trip fails; the auth event moves the coordinator to
// [ModeLoggedOut].
func (c *Coordinator) SignOut(ctx context.Context) error {
	err := c.primary.SignOut(ctx)
	c.metrics.inc(MetricSignOut)
	return err
}

// RequestPasswordReset asks the backend to email a recovery link pointing
// back at the configured redirect URL.
func (c *Coordinator) RequestPasswordReset(ctx context.Context, email string) error {
	return c.primary.ResetPasswordForEmail(ctx, email, c.cfg.Routes.RedirectTo)
}

// resolveAndRoute decides between LoggedOut and Routed from the primary
// session. Resolution failures (storage down, network down) read as no
// session; the user signs in again rather than staring at a broken screen.
func (c *Coordinator) resolveAndRoute(ctx context.Context) {
	sess, err := c.primary.GetSession(ctx)
	if err != nil {
		c.log.Warn("session resolution failed", zap.Error(err))
		sess = nil
	}
	if sess == nil {
		c.metrics.inc(MetricSessionAbsent)
		c.setLoggedOut()
		return
	}
	c.metrics.inc(MetricSessionResolved)
	c.enterRouted(ctx, sess)
}

// handleAuthEvent reacts to primary-client auth events. Events are ignored
// while the URL still classifies as a recovery or invite entry, so a
// background sign-in can never yank the user out of the set-password flow.
// A bad URL is repaired before the event is applied, the same way the
// initial load repairs it.
func (c *Coordinator) handleAuthEvent(e authclient.Event) {
	class := urlstate.Classify(c.loc.Href())
	if class.Kind == urlstate.KindRecovery || class.Kind == urlstate.KindInvite {
		c.log.Debug("auth event ignored during recovery entry", zap.String("event", string(e.Kind)))
		return
	}
	if class.Kind == urlstate.KindBad {
		c.metrics.inc(MetricBadURLSanitized)
		c.loc.Replace(urlstate.Sanitize(c.loc.Href()))
	}

	switch e.Kind {
	case authclient.EventSignedIn, authclient.EventTokenRefreshed:
		if e.Session == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		c.mu.Lock()
		alreadyRouted := c.mode == ModeRouted
		currentRole := c.role
		c.mu.Unlock()
		if alreadyRouted && e.Kind == authclient.EventTokenRefreshed {
			// The router keeps running across a refresh, but a refreshed
			// token may carry a new role, and the module set must follow it.
			role := c.resolveRole(ctx, e.Session)
			if role == currentRole {
				c.mu.Lock()
				c.session = e.Session
				c.mu.Unlock()
				return
			}
		}
		c.enterRouted(ctx, e.Session)
	case authclient.EventSignedOut:
		c.setLoggedOut()
	}
}

// enterRouted is the only place the router starts. It resolves the session's
// role, registers the modules that role may see, forces the hash onto a
// route when it names none, and hands the container to the router.
func (c *Coordinator) enterRouted(ctx context.Context, sess *authclient.Session) {
	role := c.resolveRole(ctx, sess)

	c.mu.Lock()
	if stop := c.stopRouter; stop != nil {
		c.stopRouter = nil
		c.mu.Unlock()
		stop()
		c.mu.Lock()
	}

	r := router.New(c.loc, c.cfg.Routes.HomeRoute)
	for _, m := range c.modules {
		if m.VisibleTo(role) {
			r.Register(m.Route, m.Handler)
		}
	}
	r.SetObserver(func(route string, matched bool) {
		if matched {
			c.metrics.inc(MetricRouteRendered)
		} else {
			c.metrics.inc(MetricRouteUnknown)
		}
	})

	c.forceRouteHashLocked()

	stop, err := r.Start(c.container)
	if err != nil {
		// Start only fails on a double start, which the stop above rules out.
		c.mu.Unlock()
		c.log.Error("router start failed", zap.Error(err))
		return
	}

	c.mode = ModeRouted
	c.flow = FlowNone
	c.session = sess
	c.role = role
	c.loginError = ""
	c.router = r
	c.stopRouter = stop
	c.mu.Unlock()

	c.log.Info("entered routed mode", zap.String("role", role))
}

// forceRouteHashLocked rewrites the hash to the home route when it does not
// name one, using a silent replace so the router's first render is the only
// render. Caller holds c.mu.
func (c *Coordinator) forceRouteHashLocked() {
	hash := c.loc.Hash()
	if strings.HasPrefix(hash, urlstate.RoutePrefix) {
		return
	}
	base, _ := splitOnce(c.loc.Href(), '#')
	c.loc.Replace(base + "#" + c.cfg.Routes.HomeRoute)
}

func splitOnce(s string, sep byte) (string, string) {
	if i := strings.IndexByte(s, sep); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// setLoggedOut stops the router if it is running and renders the sign-in
// screen.
func (c *Coordinator) setLoggedOut() {
	c.mu.Lock()
	stop := c.stopRouter
	c.stopRouter = nil
	c.router = nil
	c.mode = ModeLoggedOut
	c.flow = FlowNone
	c.session = nil
	c.role = ""
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
	c.renderLoggedOut()
}

func (c *Coordinator) renderLoggedOut() {
	c.mu.Lock()
	notice := c.notice
	c.notice = ""
	loginError := c.loginError
	c.mu.Unlock()

	var b strings.Builder
	b.WriteString(`<section class="tela-login"><h1>Entrar</h1>`)
	if notice != "" {
		b.WriteString(`<p class="aviso">` + html.EscapeString(notice) + `</p>`)
	}
	if loginError != "" {
		b.WriteString(`<p class="erro">` + html.EscapeString(loginError) + `</p>`)
	}
	b.WriteString(`<form data-acao="entrar">` +
		`<label>E-mail<input type="email" name="email" required></label>` +
		`<label>Senha<input type="password" name="senha" required></label>` +
		`<button type="submit">Entrar</button>` +
		`<a href="#" data-acao="esqueci-senha">Esqueci minha senha</a>` +
		`</form></section>`)
	c.container.SetContent(b.String())
}
