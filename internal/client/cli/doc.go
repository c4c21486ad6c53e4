// Package cli provides the interactive colsync command-line client.
//
// It wires configuration, the local comment store, the annotation service
// session and an interactive REPL. Typical flow: log in, pull the comments
// of the configured transcription, edit them locally, push.
//
// Key features:
//   - Login / Logout with a password prompt, and a new prompt when the
//     session expires
//   - Add, edit, delete, list and show comments locally
//   - Pull, push and sync with the annotation service
//   - Import / export comment files
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// The App also answers the session's callbacks: it prompts for a password
// when the service asks for a new login, and tells the user when the
// service refuses a request.
package cli
