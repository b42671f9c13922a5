package urlstate

import "sync"

// Location is the minimal surface of a browser location the coordinator and
// router need: read the current href, replace it without a navigation event,
// or assign a new fragment and notify watchers (the hashchange analogue).
type Location interface {
	// Href returns the full current location.
	Href() string
	// Hash returns the current fragment including the leading "#", or ""
	// when the location carries no fragment.
	Hash() string
	// Replace swaps the current href in place: no new history entry, no
	// reload, and no watcher notification.
	Replace(href string)
	// SetHash assigns the fragment (expects the leading "#") and notifies
	// watchers, mirroring a hash navigation.
	SetHash(hash string)
	// Watch registers fn to run on every navigation. The returned cancel
	// func unregisters it and is safe to call more than once.
	Watch(fn func()) (cancel func())
}

// MemoryLocation is an in-process [Location]. It backs tests and the HTTP
// bridge, which drives one instance per browser session.
type MemoryLocation struct {
	mu       sync.Mutex
	href     string
	nextID   int
	watchers map[int]func()
}

// NewMemoryLocation creates a [MemoryLocation] positioned at href.
func NewMemoryLocation(href string) *MemoryLocation {
	return &MemoryLocation{
		href:     href,
		watchers: map[int]func(){},
	}
}

// Href describes the href operation and its observable behavior.
func (l *MemoryLocation) Href() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.href
}

// Hash describes the hash operation and its observable behavior.
func (l *MemoryLocation) Hash() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, frag := splitFragment(l.href)
	if frag == "" {
		return ""
	}
	return "#" + frag
}

// Replace describes the replace operation and its observable behavior.
func (l *MemoryLocation) Replace(href string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.href = href
}

// SetHash describes the sethash operation and its observable behavior.
func (l *MemoryLocation) SetHash(hash string) {
	l.mu.Lock()
	base, _ := splitFragment(l.href)
	l.href = base + hash
	fns := l.snapshotWatchers()
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Navigate assigns a full href and notifies watchers. The HTTP bridge uses it
// when a request arrives for a different location than the previous one.
func (l *MemoryLocation) Navigate(href string) {
	l.mu.Lock()
	l.href = href
	fns := l.snapshotWatchers()
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Watch describes the watch operation and its observable behavior.
func (l *MemoryLocation) Watch(fn func()) (cancel func()) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.watchers[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.watchers, id)
		l.mu.Unlock()
	}
}

func (l *MemoryLocation) snapshotWatchers() []func() {
	fns := make([]func(), 0, len(l.watchers))
	for _, fn := range l.watchers {
		fns = append(fns, fn)
	}
	return fns
}
