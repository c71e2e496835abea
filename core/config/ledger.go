package config

import "time"

// LedgerConfig tunes the reconciliation engine and the mutation gateway.
type LedgerConfig struct {
	// RawURL is the base URL of the PostgREST-style endpoint used as the raw write fallback.
	// Leave empty to disable the raw path.
	RawURL string `mapstructure:"raw_url" default:""`
	// RawAPIKey is sent as both apikey and bearer token on raw requests.
	RawAPIKey string `mapstructure:"raw_api_key" default:""`
	// ProbeInterval is how often the gateway checks connectivity while writes are pending.
	ProbeInterval time.Duration `mapstructure:"probe_interval" default:"30s"`
	// ReplayAttemptTimeout bounds each queued write during replay.
	ReplayAttemptTimeout time.Duration `mapstructure:"replay_attempt_timeout" default:"10s"`
	// LinkWindow is the max distance between a transaction and a game end for linkage repair.
	LinkWindow time.Duration `mapstructure:"link_window" default:"60s"`
}
