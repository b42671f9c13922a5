// Package adminapi exposes user administration over HTTP: list, create,
// update, and delete accounts, plus triggering a password reset. It is the
// privileged counterpart of the browser-side clients and runs server-side
// only, because it holds the service token.
//
// Authorization is a verified HS256 bearer token whose role claim must be
// Administrador. This is the one place in the system that verifies token
// signatures; browser-side code only decodes.
//
// # Failure contract
//
// Missing or unverifiable tokens answer 401. A verified token without the
// administrator role answers 403. Validation problems answer 400, unknown
// accounts 404. Bodies are JSON with a single "message" field.
//
// # What this package must NOT do
//
//   - Serve browser sessions. It has no cookies and no coordinator.
//   - Leak the service token into responses or logs.
package adminapi
