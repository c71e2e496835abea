// Package events is the in-process notification bus between the ledger and
// the rest of the application.
//
// The reconcile engine subscribes to TopicDataChanged and re-runs when
// anything else mutates ledger data; it publishes TopicLedgerChanged after
// every pass and every accepted mutation.
package events
