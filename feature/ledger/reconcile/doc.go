// Package reconcile merges the local and remote tiers into the canonical
// ledger view.
//
// A pass loads both tiers, repairs transaction linkage, unions games with
// the pending-write overlay, reconstructs games that no tier holds,
// recomputes balances and writes the result back to the local cache.
// Concurrent passes are coalesced with singleflight.
package reconcile
