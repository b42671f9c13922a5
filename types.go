package tramite

import "github.com/tramite-hq/tramite/router"

// UIMode defines a public type used by tramite APIs.
//
// UIMode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type UIMode int

const (
	// ModeLoggedOut is an exported constant or variable used by the coordinator.
	ModeLoggedOut UIMode = iota
	// ModeSetPassword is an exported constant or variable used by the coordinator.
	ModeSetPassword
	// ModeRouted is an exported constant or variable used by the coordinator.
	ModeRouted
)

// String describes the string operation and its observable behavior.
func (m UIMode) String() string {
	switch m {
	case ModeLoggedOut:
		return "logged_out"
	case ModeSetPassword:
		return "set_password"
	case ModeRouted:
		return "routed"
	default:
		return "unknown"
	}
}

// FlowType defines a public type used by tramite APIs.
//
// FlowType instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type FlowType int

const (
	// FlowNone is an exported constant or variable used by the coordinator.
	FlowNone FlowType = iota
	// FlowRecovery is an exported constant or variable used by the coordinator.
	FlowRecovery
	// FlowInvite is an exported constant or variable used by the coordinator.
	FlowInvite
)

// String describes the string operation and its observable behavior.
func (f FlowType) String() string {
	switch f {
	case FlowNone:
		return "none"
	case FlowRecovery:
		return "recovery"
	case FlowInvite:
		return "invite"
	default:
		return "unknown"
	}
}

// RoleAdministrator is the role whose sessions see every module, the user
// administration screen included.
const RoleAdministrator = "Administrador"

// Module is one registered screen of the admin front end. Route is the hash
// route without the "#" ("/processos"); Roles lists the roles allowed to see
// it, empty meaning every authenticated role.
type Module struct {
	Route   string
	Title   string
	Roles   []string
	Handler router.Handler
}

// VisibleTo reports whether a session with the given role may see the module.
func (m Module) VisibleTo(role string) bool {
	if len(m.Roles) == 0 {
		return true
	}
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}
