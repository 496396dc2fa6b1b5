package testutil

import "github.com/roach88/possync/internal/pos"

// Settings returns a configured SyncConfig with the default sheet names.
func Settings() pos.SyncConfig {
	cfg := pos.DefaultSyncConfig()
	cfg.RemoteID = "sheet-test"
	cfg.Credential = "key-test"
	return cfg
}
