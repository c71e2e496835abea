// Package integrity provides system health checks for the ledger.
//
// Unlike the 'ledger' package which reconciles ledger content, this package
// validates the infrastructure the ledger depends on.
//
// # Checks Provided
//
//   - Structure: Checks if the snapshot folders exist in the storage bucket.
//   - Schema: Validates that the remote database tables match the ledger row models (columns, types).
//   - Queue: Summarizes the pending-write queue and flags entries that keep failing.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/structure : Runs structure check (supports ?fix=true).
//   - GET /integrity/schema : Runs remote schema check.
//   - GET /integrity/queue : Summarizes the pending queue.
package integrity
