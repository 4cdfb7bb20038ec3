// Package tokenstore persists the access/refresh credential pair and the cached
// user profile that belongs to it.
//
// # Invariants
//
// A store holds either both tokens or neither. [Store.Set] writes the pair as one
// unit and rejects a partial pair; [Store.Clear] removes both tokens together with the
// cached profile and may be called any number of times.
//
// # Architecture boundaries
//
// This package owns credential persistence only. It does NOT talk to the remote API
// or decode tokens. Ending a session is decided by the transport and the root client.
//
// # Backends
//
//   - [MemoryStore]: process-local, for tests and short-lived tools.
//   - [FileStore]: a single JSON document replaced atomically on every write, survives
//     restarts, isolated by file path.
//   - [RedisStore]: shared by processes that reach the same Redis, isolated by key prefix.
package tokenstore
