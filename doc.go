// Package tramite provides the session and navigation coordinator for the
// processo-tracking admin front end: hash-route dispatch, auth-session
// lifecycle, and the recovery password-set flow, wired to a hosted
// auth-and-data backend.
//
// The package is designed around one [Coordinator] per browser session,
// initialized through [Builder.Build]. Coordinator methods are safe to call
// from multiple goroutines after Start.
//
// # Architecture boundaries
//
// tramite is the coordination surface. It exposes [Coordinator], [Builder],
// [Config], and value types (UIMode, Module, MetricsSnapshot). URL analysis
// lives in package urlstate, route dispatch in package router, backend
// access in packages authclient and query; this package composes them and
// owns the mode state machine.
//
// # What this package must NOT do
//
//   - Expose the primary or recovery auth client in its public API.
//   - Render route content. Routed screens belong to the modules registered
//     through [Builder.WithModules]; the coordinator only renders the
//     logged-out and set-password screens.
//   - Run the router outside of Routed mode. The router is started on entry
//     to Routed and stopped on exit, never in any other mode.
package tramite
