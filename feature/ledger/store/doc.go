// Package store holds the two tiers of the ledger.
//
// The local tier (LocalStore) is a JSON-per-collection cache on top of a
// kv.Store. It never fails for connectivity and also keeps the durable
// pending-write queue.
//
// The remote tier (RemoteStore) is the authoritative copy in a relational
// database, reached through gorm. RawClient is the minimal PostgREST-style
// fallback used when the typed client rejects a payload.
//
// Remote errors are classified into ErrUnavailable and ErrRejected so callers
// can pick the next step of the write chain with errors.Is.
package store
