package tramite

import (
	"context"
	"html"
	"strings"

	"go.uber.org/zap"

	"github.com/tramite-hq/tramite/urlstate"
)

// enterSetPassword establishes the recovery session and shows the
// set-password screen. Everything here runs on the isolated recovery
// client; the primary session is never read or written. flow records which
// entry link brought the user here, recovery or invite.
//
// The session comes from, in order: a session the recovery client already
// holds (back navigation within the flow), the token pair carried in the
// entry URL, or nowhere, in which case the screen renders in its
// link-expired state and submission is refused.
func (c *Coordinator) enterSetPassword(ctx context.Context, flow FlowType) {
	ready := false

	if sess, err := c.recovery.GetSession(ctx); err == nil && sess != nil {
		ready = true
	} else {
		access, refresh := urlstate.ExtractTokens(c.loc.Href())
		if access != "" {
			if _, err := c.recovery.SetSession(ctx, access, refresh); err != nil {
				c.log.Warn("recovery token exchange failed", zap.Error(err))
			} else {
				ready = true
			}
		}
	}

	c.mu.Lock()
	c.mode = ModeSetPassword
	c.flow = flow
	c.recoveryReady = ready
	c.mu.Unlock()

	c.renderSetPassword(ready, "")
}

// SubmitNewPassword validates and applies the new password. Both fields
// must match and be non-empty. On success the entry URL is scrubbed of its
// tokens, the recovery session is discarded, and the coordinator lands on
// the sign-in screen with a confirmation notice. It never routes directly:
// the user proves the new password by using it.
func (c *Coordinator) SubmitNewPassword(ctx context.Context, password, confirmation string) error {
	c.mu.Lock()
	if c.mode != ModeSetPassword {
		c.mu.Unlock()
		return ErrWrongMode
	}
	ready := c.recoveryReady
	c.mu.Unlock()

	if password == "" {
		c.metrics.inc(MetricPasswordSetFailure)
		c.renderSetPassword(ready, "Informe a nova senha.")
		return ErrPasswordEmpty
	}
	if password != confirmation {
		c.metrics.inc(MetricPasswordSetFailure)
		c.renderSetPassword(ready, "As senhas não conferem.")
		return ErrPasswordMismatch
	}
	if !ready {
		c.metrics.inc(MetricPasswordSetFailure)
		c.renderSetPassword(false, "")
		return ErrNoRecoverySession
	}

	if err := c.recovery.UpdateUser(ctx, password); err != nil {
		c.metrics.inc(MetricPasswordSetFailure)
		c.renderSetPassword(true, err.Error())
		return err
	}
	c.metrics.inc(MetricPasswordSetSuccess)

	// Scrub the tokens out of the address bar before anything else can
	// observe them, then drop the recovery session.
	c.loc.Replace(urlstate.Sanitize(c.loc.Href()))
	if err := c.recovery.SignOut(ctx); err != nil {
		c.log.Warn("recovery sign-out failed", zap.Error(err))
	}

	c.mu.Lock()
	c.recoveryReady = false
	c.notice = "Senha definida com sucesso. Entre com a nova senha."
	c.mu.Unlock()

	c.setLoggedOut()
	return nil
}

func (c *Coordinator) renderSetPassword(ready bool, problem string) {
	var b strings.Builder
	b.WriteString(`<section class="tela-nova-senha"><h1>Definir nova senha</h1>`)
	if !ready {
		b.WriteString(`<p class="erro">Link inválido ou expirado. Solicite um novo link de recuperação.</p>`)
	}
	if problem != "" {
		b.WriteString(`<p class="erro">` + html.EscapeString(problem) + `</p>`)
	}
	b.WriteString(`<form data-acao="definir-senha">` +
		`<label>Nova senha<input type="password" name="senha" required></label>` +
		`<label>Confirme a senha<input type="password" name="confirmacao" required></label>` +
		`<button type="submit"`)
	if !ready {
		b.WriteString(` disabled`)
	}
	b.WriteString(`>Salvar</button></form></section>`)
	c.container.SetContent(b.String())
}
