package authclient

import (
	"sync"

	"github.com/google/uuid"
)

// EventKind defines a public type used by tramite APIs.
//
// EventKind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EventKind string

const (
	// EventSignedIn is an exported constant or variable used by the session oracle.
	EventSignedIn EventKind = "SIGNED_IN"
	// EventSignedOut is an exported constant or variable used by the session oracle.
	EventSignedOut EventKind = "SIGNED_OUT"
	// EventTokenRefreshed is an exported constant or variable used by the session oracle.
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
	// EventRecoveryExchanged is an exported constant or variable used by the session oracle.
	EventRecoveryExchanged EventKind = "RECOVERY_EXCHANGED"
)

// Event carries an auth-state transition and the session that resulted from
// it (nil after sign-out). Callbacks fire strictly after the underlying state
// is committed; ordering relative to in-flight GetSession calls is not
// guaranteed.
type Event struct {
	Kind    EventKind
	Session *Session
}

type listenerSet struct {
	mu        sync.Mutex
	listeners map[string]func(Event)
}

func newListenerSet() *listenerSet {
	return &listenerSet{listeners: map[string]func(Event){}}
}

func (l *listenerSet) add(fn func(Event)) (unsubscribe func()) {
	id := uuid.NewString()

	l.mu.Lock()
	l.listeners[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}
}

func (l *listenerSet) emit(ev Event) {
	l.mu.Lock()
	fns := make([]func(Event), 0, len(l.listeners))
	for _, fn := range l.listeners {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
