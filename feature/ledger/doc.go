// Package ledger exposes the reconciled ledger and its mutations over HTTP.
//
// Routes live under /ledger. Reads serve the last reconciled view, writes go
// through the mutation gateway and answer 202 Accepted when the write was
// only queued locally.
package ledger
