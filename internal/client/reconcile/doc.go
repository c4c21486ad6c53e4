// Package reconcile keeps the comments of one transcription in step with an
// annotation service.
//
// # Overview
//
// Engine has three operations:
//
//   - Fetch lists the annotations the server holds for a transcription,
//     skips those whose server timestamp matches the local copy and
//     downloads the rest.
//   - Push creates or updates one comment on the server. A record deleted
//     on the server in the meantime is created again, once.
//   - Delete removes one comment from the server.
//
// The engine never touches the local store; callers merge FetchResult into
// their own state and persist envelopes after Push.
//
// # Identifiers
//
// A comment pushed for the first time has no server URL, and its
// transcription may have no target yet. The payload then carries fixed
// placeholder tokens which the server replaces with the identifiers it
// assigns, so the stored body is consistent without a second write.
//
// # Error Handling
//
//   - ErrUnknown: the annotation list could not be read. The caller must
//     not conclude the server has no comments.
//   - ErrReadOnly: the comment belongs to someone else; nothing was sent.
//   - ErrURLUnknown: the comment was never stored on the server.
//
// Transport failures wrap the client sentinels (client.ErrForbidden,
// client.ErrNotFound, ...), so errors.Is works on everything returned.
//
// # Concurrency
//
// An Engine shares its Session's target cache and cookies and must be used
// from one goroutine.
package reconcile
