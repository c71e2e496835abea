// Package gateway is the only way the application mutates the ledger.
//
// Every write goes to the typed remote store first, then to the raw HTTP
// endpoint when the typed write was refused, and finally to the local cache
// plus a durable pending entry when the remote store cannot take it. Queued
// entries are replayed in order once the remote store answers again.
package gateway
