// Package client talks to a DASISH annotation service over XML/HTTP.
//
// # Overview
//
// The package provides:
//  1. Session: a cookie based login (Login, Authenticate, Logout,
//     ReauthenticateInteractively) on one service, the authenticated
//     principal, and the TargetCache mapping a transcription to the
//     server's target for it.
//  2. Transport: GET, POST, PUT and DELETE exchanges that marshal request
//     Payloads (XML, Text, Raw, Multipart), decode XML responses and
//     classify status codes.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     CLI: an SQLite database with embedded goose migrations.
//
// # Error Handling
//
// Every response with a status of 400 or more becomes a *StatusError that
// unwraps to ErrUnauthorized (401), ErrForbidden (403), ErrNotFound (404) or
// ErrServer. A 401 also marks the Session logged out; 401 and 403 are
// reported to the Notifier. Encoding and decoding problems wrap
// ErrWireFormat. Login problems wrap ErrLoginFailed.
//
// # Concurrency
//
// A Session and its Transport serve a single caller. They keep no locks.
//
// See Also
//
//   - Session, Transport, TargetCache
//   - Notifier, CredentialProvider
//   - InitDatabase, RunMigrations
package client
