package internaldefs

import (
	tramite "github.com/tramite-hq/tramite"
)

// CounterDef defines a public type used by tramite APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   tramite.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the metrics exporters.
var CounterDefs = []CounterDef{
	{ID: tramite.MetricSignInSuccess, Name: "tramite_sign_in_success_total", Help: "Successful sign-in attempts."},
	{ID: tramite.MetricSignInFailure, Name: "tramite_sign_in_failure_total", Help: "Failed sign-in attempts."},
	{ID: tramite.MetricSignOut, Name: "tramite_sign_out_total", Help: "Sign-out operations."},
	{ID: tramite.MetricSessionResolved, Name: "tramite_session_resolved_total", Help: "Initial loads that resolved an existing session."},
	{ID: tramite.MetricSessionAbsent, Name: "tramite_session_absent_total", Help: "Initial loads without a resolvable session."},
	{ID: tramite.MetricRecoveryEntered, Name: "tramite_recovery_entered_total", Help: "Entries through a password-recovery link."},
	{ID: tramite.MetricInviteEntered, Name: "tramite_invite_entered_total", Help: "Entries through an invite link."},
	{ID: tramite.MetricBadURLSanitized, Name: "tramite_bad_url_sanitized_total", Help: "Malformed entry URLs repaired on load."},
	{ID: tramite.MetricPasswordSetSuccess, Name: "tramite_password_set_success_total", Help: "Successful password-set submissions."},
	{ID: tramite.MetricPasswordSetFailure, Name: "tramite_password_set_failure_total", Help: "Rejected password-set submissions."},
	{ID: tramite.MetricRouteRendered, Name: "tramite_route_rendered_total", Help: "Route renders that matched a registered module."},
	{ID: tramite.MetricRouteUnknown, Name: "tramite_route_unknown_total", Help: "Route renders that fell through to the unknown-route screen."},
}
