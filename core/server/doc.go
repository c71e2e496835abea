// Package server holds the HTTP server configuration.
//
// The main entry point (cmd/start.go) handles the server startup; this package
// only defines the listen port and the optional API key protecting the ledger
// routes.
package server
