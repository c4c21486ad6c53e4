// Package envelopes persists comment envelopes in the local SQLite store.
//
// Besides the comment itself the store keeps what the XML codecs leave out:
// the server timestamp and read-only flag used for freshness checks, the two
// pending-save flags, and a tombstone for comments deleted locally but not
// yet on the server.
//
// Repository describes the operations; SQLiteRepository implements them
// over a dbx.DBTX so the same code runs inside or outside a transaction.
package envelopes
