// Package urlstate classifies and sanitizes browser-style locations carrying
// auth-link artifacts (recovery/invite tokens, error fragments) left behind by
// email-based authentication flows.
//
// # Architecture boundaries
//
// This package is pure string analysis over an href. It performs no I/O, keeps
// no state, and may be called any number of times on the same input. The one
// stateful type, [MemoryLocation], exists so the coordinator and router can be
// driven without a browser.
//
// # What this package must NOT do
//
//   - Decide UI modes (the coordinator owns that).
//   - Touch the network or any auth client.
//   - Mutate a location on its own. [Sanitize] returns a cleaned href and the
//     caller applies it via [Location.Replace].
package urlstate
