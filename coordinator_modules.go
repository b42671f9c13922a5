package tramite

import (
	"context"

	"go.uber.org/zap"

	"github.com/tramite-hq/tramite/authclient"
)

// resolveRole determines the session's role for module visibility. The
// perfis table is authoritative; the access token's role claim is the
// fallback when the profile row is missing or the data API is unreachable,
// so a degraded backend still yields a usable (if conservative) screen set.
func (c *Coordinator) resolveRole(ctx context.Context, sess *authclient.Session) string {
	var rows []struct {
		Papel string `json:"papel"`
	}
	err := c.data.From("perfis").
		Select("papel").
		Eq("usuario_id", sess.UserID).
		Limit(1).
		Get(ctx, &rows)
	if err != nil {
		c.log.Warn("profile lookup failed, falling back to token claim", zap.Error(err))
		return sess.Role
	}
	if len(rows) == 0 || rows[0].Papel == "" {
		return sess.Role
	}
	return rows[0].Papel
}

// VisibleModules returns the modules the given role may see, in
// registration order.
func (c *Coordinator) VisibleModules(role string) []Module {
	out := make([]Module, 0, len(c.modules))
	for _, m := range c.modules {
		if m.VisibleTo(role) {
			out = append(out, m)
		}
	}
	return out
}
