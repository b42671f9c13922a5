// Package views holds the routed screens of the admin front end: the
// dashboard, the processo list, the task checklist, and the user
// administration screen. Each screen is a [tramite.Module] whose handler
// reads the data API and writes HTML into the route container.
//
// # Architecture boundaries
//
// Screens read and write through the query client they are constructed
// with. Row-level security on the backend decides what a session may see;
// the only client-side gate is module visibility by role, and that gate is
// the coordinator's, not this package's.
//
// # What this package must NOT do
//
//   - Touch sessions or tokens. The query client carries authorization.
//   - Navigate. Screens render the route they were registered for.
package views
