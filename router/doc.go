// Package router dispatches hash-fragment routes to view render functions.
//
// The router is deliberately dumb: exact-match route table, one navigation
// listener, no history stack, no parameters, no guards. Access control lives
// one layer up in the coordinator, which starts the router only for an
// authenticated session and stops it before rendering any other UI mode.
//
// # What this package must NOT do
//
//   - Inspect sessions or roles.
//   - Sanitize or rewrite the location (urlstate + coordinator own that).
//   - Register more than one navigation listener per started router.
package router
