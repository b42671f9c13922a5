package tramite

import "errors"

var (
	// ErrPasswordEmpty is an exported constant or variable used by the coordinator.
	ErrPasswordEmpty = errors.New("password must not be empty")
	// ErrPasswordMismatch is an exported constant or variable used by the coordinator.
	ErrPasswordMismatch = errors.New("password fields do not match")
	// ErrNoRecoverySession is an exported constant or variable used by the coordinator.
	ErrNoRecoverySession = errors.New("no recovery session established")
	// ErrNotStarted is an exported constant or variable used by the coordinator.
	ErrNotStarted = errors.New("coordinator not started")
	// ErrAlreadyStarted is an exported constant or variable used by the coordinator.
	ErrAlreadyStarted = errors.New("coordinator already started")
	// ErrWrongMode is an exported constant or variable used by the coordinator.
	ErrWrongMode = errors.New("operation not valid in current mode")
	// ErrBackendUnavailable is an exported constant or variable used by the coordinator.
	ErrBackendUnavailable = errors.New("backend unavailable")
)
