package pos

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncConfigConfigured(t *testing.T) {
	c := DefaultSyncConfig()
	assert.False(t, c.Configured())

	c.RemoteID = "sheet-1"
	assert.False(t, c.Configured())
	c.Credential = "  "
	assert.False(t, c.Configured())
	c.Credential = "key"
	assert.True(t, c.Configured())
}

func TestCollectionNamesWithDefaults(t *testing.T) {
	n := CollectionNames{Menu: "Carte"}.WithDefaults()
	assert.Equal(t, "Carte", n.Name(CollectionMenu))
	assert.Equal(t, "Tables", n.Name(CollectionTables))
	assert.Equal(t, "Orders", n.Name(CollectionOrders))
}

func TestFreshness(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time { v := now.Add(-d); return &v }

	assert.Equal(t, "never", FreshnessLabel(nil, now))
	assert.Equal(t, "Live", FreshnessLabel(at(30*time.Second), now))
	assert.Equal(t, "3m ago", FreshnessLabel(at(3*time.Minute+10*time.Second), now))
	assert.Equal(t, FreshnessAging, FreshnessAt(at(4*time.Minute), now))
	assert.Equal(t, FreshnessStale, FreshnessAt(at(5*time.Minute), now))
	assert.Equal(t, "12m ago", FreshnessLabel(at(12*time.Minute), now))
}

func TestSnowflakeIDsUnique(t *testing.T) {
	g, err := NewSnowflakeIDs(NodeFromUUID(uuid.New()))
	require.NoError(t, err)

	seen := map[int64]bool{}
	for i := 0; i < 1000; i++ {
		id := g.Next()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestSnowflakeBadNode(t *testing.T) {
	_, err := NewSnowflakeIDs(4096)
	assert.Error(t, err)
}

func TestSequenceIDs(t *testing.T) {
	g := NewSequenceIDs(100)
	assert.Equal(t, int64(101), g.Next())
	assert.Equal(t, int64(102), g.Next())
}
