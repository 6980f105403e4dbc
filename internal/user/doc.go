// Package user persists halcyon accounts and their conversation
// history in the users table.
//
// Each account carries a bcrypt password digest, a session counter,
// and an ordered conversation log stored as a JSON text column. The
// log is append-only: exchanges are never updated or deleted, and
// message ids are dense and strictly increasing per user.
//
// Thread safety: Store is safe for concurrent use; each operation
// runs its own statements against the shared *sql.DB pool. The
// Session value is per-request state and must not be shared between
// concurrent requests.
package user
