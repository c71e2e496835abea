// Package config provides configuration management for the party ledger.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Database: remote ledger database connection (postgres, mysql or sqlite)
//   - Storage: S3/MinIO credentials and bucket settings (snapshots, object cache)
//   - Cache: local durable cache backend
//   - Ledger: reconciliation and pending-write replay tuning
//   - Log: Logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Ledger.ProbeInterval)
package config
