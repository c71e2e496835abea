// Package kv provides the string-keyed durable store behind the local cache tier.
//
// The ledger serializes its own collections (games, transactions, players and
// the pending-write queue) and only needs Get and Set from a backend:
//
//   - Memory: in-process map, used in tests and with cache.driver=memory.
//   - GormStore: kv_entries table in a sqlite file (the default).
//   - ObjectStore: one object per key in the configured bucket.
package kv
