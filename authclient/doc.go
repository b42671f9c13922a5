// Package authclient adapts the hosted auth service (GoTrue-style REST API)
// behind the session-oracle contract the coordinator consumes: current
// session or none, password sign-in, sign-out, recovery-token exchange, and
// auth-state-change subscriptions.
//
// Two client shapes exist. The primary client persists tokens in shared
// storage (Redis-backed in the server deployment, the analogue of browser
// storage shared across tabs) and refreshes them automatically. The recovery
// client built by [NewRecoveryClient] is fully isolated: persistence off,
// auto-refresh off, URL detection off, and a process-memory token store that
// is never shared with the primary session. Completing a password-set flow on
// the recovery client therefore cannot disturb the primary session.
//
// # Failure contract
//
// Operations fail with *[AuthError] value objects carrying a human-readable
// message; no call retries automatically. Storage failures are wrapped with
// [ErrStorageUnavailable] and read as "no session" by the coordinator.
package authclient
