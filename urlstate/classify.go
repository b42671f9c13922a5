package urlstate

import (
	"net/url"
	"strings"
)

// RoutePrefix is the reserved fragment prefix that marks a navigable route.
const RoutePrefix = "#/"

// Kind defines a public type used by tramite APIs.
//
// Kind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Kind int

const (
	// KindNormal is an exported constant or variable used by the flow coordinator.
	KindNormal Kind = iota
	// KindRecovery is an exported constant or variable used by the flow coordinator.
	KindRecovery
	// KindInvite is an exported constant or variable used by the flow coordinator.
	KindInvite
	// KindBad is an exported constant or variable used by the flow coordinator.
	KindBad
)

// String describes the string operation and its observable behavior.
func (k Kind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindRecovery:
		return "recovery"
	case KindInvite:
		return "invite"
	case KindBad:
		return "bad"
	default:
		return "unknown"
	}
}

// Classification is the derived, never-persisted verdict over a location.
// It is recomputed from scratch on every navigation and auth event; callers
// must not cache one across suspension points.
type Classification struct {
	Kind         Kind
	Route        string // fragment route ("/processos") when the fragment begins with "/", else ""
	ErrorPresent bool
	StrayTokens  bool
}

const (
	flowRecovery = "recovery"
	flowInvite   = "invite"
)

// Classify inspects href and decides whether it is a normal route, an
// email-link flow (recovery or invite), or a bad leftover state.
//
// The error detection is a raw substring heuristic inherited from the shipped
// behavior: a route segment that happens to contain "error=" will
// false-positive and be sanitized away. That loss is accepted: sanitizing an
// innocent route costs one redirect to the home route, while missing a stale
// auth artifact costs a broken login screen.
//
// Classify is pure and idempotent.
func Classify(href string) Classification {
	frag := fragmentOf(href)

	c := Classification{
		ErrorPresent: hasErrorArtifacts(frag),
		StrayTokens:  hasStrayTokens(frag),
	}
	if strings.HasPrefix(frag, "/") {
		c.Route = routePortion(frag)
	}

	switch {
	case c.ErrorPresent:
		c.Kind = KindBad
	case flowParam(href, frag) == flowRecovery:
		c.Kind = KindRecovery
	case flowParam(href, frag) == flowInvite:
		c.Kind = KindInvite
	case c.StrayTokens:
		c.Kind = KindBad
	default:
		c.Kind = KindNormal
	}

	return c
}

// Sanitize strips query and fragment auth artifacts from href. A fragment that
// already begins with the route prefix keeps its route portion; everything
// else collapses to the bare origin+path. The caller applies the result via
// [Location.Replace] so no history entry or reload is produced.
func Sanitize(href string) string {
	base, frag := splitFragment(href)

	if i := strings.Index(base, "?"); i >= 0 {
		base = base[:i]
	}

	if strings.HasPrefix(frag, "/") {
		return base + "#" + routePortion(frag)
	}
	return base
}

// ExtractTokens reads access and refresh tokens from both the fragment and
// the query string, fragment values taking precedence. Both results are empty
// when the location carries no tokens.
func ExtractTokens(href string) (accessToken, refreshToken string) {
	frag := fragmentOf(href)
	fragVals := parseParams(paramsPortion(frag))

	var queryVals url.Values
	if u, err := url.Parse(href); err == nil {
		queryVals = u.Query()
	}

	accessToken = fragVals.Get("access_token")
	if accessToken == "" && queryVals != nil {
		accessToken = queryVals.Get("access_token")
	}
	refreshToken = fragVals.Get("refresh_token")
	if refreshToken == "" && queryVals != nil {
		refreshToken = queryVals.Get("refresh_token")
	}

	return accessToken, refreshToken
}

func hasErrorArtifacts(frag string) bool {
	return strings.HasPrefix(frag, "error") ||
		strings.Contains(frag, "error=") ||
		strings.Contains(frag, "error_code=") ||
		strings.Contains(frag, "error_description=")
}

func hasStrayTokens(frag string) bool {
	hasTokens := strings.Contains(frag, "access_token=") ||
		strings.Contains(frag, "refresh_token=")
	return hasTokens && !strings.HasPrefix(frag, "/")
}

func flowParam(href, frag string) string {
	if t := parseParams(paramsPortion(frag)).Get("type"); t != "" {
		return t
	}
	if u, err := url.Parse(href); err == nil {
		return u.Query().Get("type")
	}
	return ""
}

// fragmentOf returns the raw text after the first "#", unescaped exactly as
// the browser would hand it over. Substring checks run on the raw form on
// purpose: the shipped heuristic operated on location.hash, not on a parsed
// structure.
func fragmentOf(href string) string {
	if i := strings.Index(href, "#"); i >= 0 {
		return href[i+1:]
	}
	return ""
}

func splitFragment(href string) (base, frag string) {
	if i := strings.Index(href, "#"); i >= 0 {
		return href[:i], href[i+1:]
	}
	return href, ""
}

// routePortion cuts a route-prefixed fragment at the first parameter
// separator, dropping any auth artifacts appended after the route.
func routePortion(frag string) string {
	if i := strings.IndexAny(frag, "?&"); i >= 0 {
		return frag[:i]
	}
	return frag
}

// paramsPortion returns the parameter part of a fragment: the whole fragment
// for token-style fragments ("access_token=...&type=..."), or the text after
// "?" when the fragment is a route carrying trailing parameters.
func paramsPortion(frag string) string {
	if strings.HasPrefix(frag, "/") {
		if i := strings.Index(frag, "?"); i >= 0 {
			return frag[i+1:]
		}
		return ""
	}
	return frag
}

func parseParams(raw string) url.Values {
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return url.Values{}
	}
	return vals
}
