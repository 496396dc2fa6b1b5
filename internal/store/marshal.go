package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/possync/internal/pos"
)

// encodeSnapshot serializes each collection to its own JSON blob.
func encodeSnapshot(snap pos.Snapshot) (map[pos.Collection]string, error) {
	snap = snap.Clone()
	snap.Normalize()
	parts := map[pos.Collection]any{
		pos.CollectionTables:       snap.Tables,
		pos.CollectionMenu:         snap.Menu,
		pos.CollectionOrders:       snap.Tickets,
		pos.CollectionTransactions: snap.Transactions,
		pos.CollectionExpenses:     snap.Expenses,
	}
	out := make(map[pos.Collection]string, len(parts))
	for c, v := range parts {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", c, err)
		}
		out[c] = string(data)
	}
	return out, nil
}

// decodeSnapshot rebuilds a snapshot from whichever blobs exist. Missing or
// empty tables and menu fall back to the defaults; the other collections
// start empty.
func decodeSnapshot(blobs map[pos.Collection]string) (pos.Snapshot, error) {
	var snap pos.Snapshot
	targets := map[pos.Collection]any{
		pos.CollectionTables:       &snap.Tables,
		pos.CollectionMenu:         &snap.Menu,
		pos.CollectionOrders:       &snap.Tickets,
		pos.CollectionTransactions: &snap.Transactions,
		pos.CollectionExpenses:     &snap.Expenses,
	}
	for c, dst := range targets {
		data, ok := blobs[c]
		if !ok || data == "" {
			continue
		}
		if err := json.Unmarshal([]byte(data), dst); err != nil {
			return pos.Snapshot{}, fmt.Errorf("unmarshal %s: %w", c, err)
		}
	}
	if len(snap.Tables) == 0 {
		snap.Tables = pos.DefaultTables()
	}
	if len(snap.Menu) == 0 {
		snap.Menu = pos.DefaultMenu()
	}
	snap.Normalize()
	return snap, nil
}

func encodeSettings(cfg pos.SyncConfig) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal settings: %w", err)
	}
	return string(data), nil
}

func decodeSettings(data string) (pos.SyncConfig, error) {
	cfg := pos.DefaultSyncConfig()
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return pos.SyncConfig{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	cfg.Collections = cfg.Collections.WithDefaults()
	return cfg, nil
}
