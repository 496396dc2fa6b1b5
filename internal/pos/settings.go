package pos

import (
	"strconv"
	"strings"
	"time"
)

// CollectionNames maps each logical collection onto a remote sheet name.
type CollectionNames struct {
	Tables       string `json:"tables" yaml:"tables"`
	Menu         string `json:"menu" yaml:"menu"`
	Orders       string `json:"orders" yaml:"orders"`
	Transactions string `json:"transactions" yaml:"transactions"`
	Expenses     string `json:"expenses" yaml:"expenses"`
}

// DefaultCollectionNames returns Tables, Menu, Orders, Transactions, Expenses.
func DefaultCollectionNames() CollectionNames {
	return CollectionNames{
		Tables:       "Tables",
		Menu:         "Menu",
		Orders:       "Orders",
		Transactions: "Transactions",
		Expenses:     "Expenses",
	}
}

// Name returns the remote name of c.
func (n CollectionNames) Name(c Collection) string {
	switch c {
	case CollectionTables:
		return n.Tables
	case CollectionMenu:
		return n.Menu
	case CollectionOrders:
		return n.Orders
	case CollectionTransactions:
		return n.Transactions
	case CollectionExpenses:
		return n.Expenses
	}
	return ""
}

// WithDefaults fills blank names.
func (n CollectionNames) WithDefaults() CollectionNames {
	d := DefaultCollectionNames()
	fill := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}
	fill(&n.Tables, d.Tables)
	fill(&n.Menu, d.Menu)
	fill(&n.Orders, d.Orders)
	fill(&n.Transactions, d.Transactions)
	fill(&n.Expenses, d.Expenses)
	return n
}

// SyncConfig is the persisted remote sync configuration.
//
// Connected is an indicator only: it reflects the outcome of the last sync
// attempt and never gates the next one.
type SyncConfig struct {
	RemoteID    string          `json:"sheetId"`
	Credential  string          `json:"apiKey"`
	Collections CollectionNames `json:"sheetNames"`
	Connected   bool            `json:"connected"`
	LastSyncAt  *time.Time      `json:"lastSync,omitempty"`
}

// DefaultSyncConfig is the unconfigured state.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{Collections: DefaultCollectionNames()}
}

// Configured reports whether both remote id and credential are set.
func (c SyncConfig) Configured() bool {
	return strings.TrimSpace(c.RemoteID) != "" && strings.TrimSpace(c.Credential) != ""
}

// Freshness buckets how long ago the last successful sync happened.
type Freshness string

const (
	FreshnessNever Freshness = "never"
	FreshnessLive  Freshness = "live"
	FreshnessAging Freshness = "aging"
	FreshnessStale Freshness = "stale"
)

// FreshnessAt classifies last relative to now: under a minute is live,
// under five minutes aging, otherwise stale.
func FreshnessAt(last *time.Time, now time.Time) Freshness {
	if last == nil {
		return FreshnessNever
	}
	age := now.Sub(*last)
	switch {
	case age < time.Minute:
		return FreshnessLive
	case age < 5*time.Minute:
		return FreshnessAging
	default:
		return FreshnessStale
	}
}

// FreshnessLabel renders the indicator text: "Live", "3m ago" or "never".
func FreshnessLabel(last *time.Time, now time.Time) string {
	switch FreshnessAt(last, now) {
	case FreshnessNever:
		return "never"
	case FreshnessLive:
		return "Live"
	}
	return strconv.Itoa(int(now.Sub(*last)/time.Minute)) + "m ago"
}
