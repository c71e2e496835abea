// Package database handles the connection to the remote ledger database and
// schema inspection.
//
// It wraps GORM and selects the dialect from configuration: postgres (the
// hosted default), mysql, or sqlite for local development and tests.
//
// # Schema Inspection
//
// MissingColumns is used at startup to warn when the games, players or
// transactions tables lack a column the ledger reads or writes.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    // remote tier unavailable; the ledger runs degraded
//	}
package database
