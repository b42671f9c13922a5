// Package query is a thin PostgREST-style client for the project's data API.
//
// It builds /rest/v1 requests (table reads and writes, stored-procedure
// calls) and decodes responses into caller-supplied values. Authorization is
// delegated: the caller supplies a token source and every request carries
// the anon API key plus whatever bearer token the source returns, so
// row-level security on the backend stays the single authority on data
// access.
//
// # Architecture boundaries
//
// This package speaks only to the data API. It knows nothing about
// sessions, routing, or rendering; those live in package authclient, the
// router, and package views respectively.
//
// # What this package must NOT do
//
//   - It must not cache or refresh tokens. The token source owns that.
//   - It must not retry failed requests.
//   - It must not interpret result rows. Decoding targets are the caller's.
package query
