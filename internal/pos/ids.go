package pos

import (
	"fmt"
	"sync/atomic"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// IDGenerator issues record ids for tables, menu items, tickets,
// transactions and expenses.
type IDGenerator interface {
	Next() int64
}

// SnowflakeIDs issues time-ordered ids that stay unique across clients as
// long as each client runs with its own node number.
type SnowflakeIDs struct {
	node *snowflake.Node
}

// NewSnowflakeIDs creates a generator for node (0..1023).
func NewSnowflakeIDs(node int64) (*SnowflakeIDs, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", node, err)
	}
	return &SnowflakeIDs{node: n}, nil
}

func (g *SnowflakeIDs) Next() int64 {
	return g.node.Generate().Int64()
}

// NodeFromUUID folds a client UUID into a snowflake node number.
func NodeFromUUID(id uuid.UUID) int64 {
	return int64(id[14]&0x03)<<8 | int64(id[15])
}

// SequenceIDs issues 1, 2, 3... Safe for concurrent use. Used by tests
// and scenario runs that need stable ids.
type SequenceIDs struct {
	seq atomic.Int64
}

// NewSequenceIDs starts the sequence after start.
func NewSequenceIDs(start int64) *SequenceIDs {
	g := &SequenceIDs{}
	g.seq.Store(start)
	return g
}

func (g *SequenceIDs) Next() int64 {
	return g.seq.Add(1)
}
