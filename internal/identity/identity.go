// Package identity allocates the record id shared by the relational row and
// the index document.
package identity

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

const (
	StrategyUUID      = "uuid"
	StrategySnowflake = "snowflake"
)

type Allocator struct {
	generate func() string
}

func NewUUID() *Allocator {
	return &Allocator{generate: func() string { return uuid.NewString() }}
}

// NewSnowflake returns time-ordered ids; node must be unique per process.
func NewSnowflake(node int64) (*Allocator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", node, err)
	}
	return &Allocator{generate: func() string { return n.Generate().String() }}, nil
}

func New(strategy string, node int64) (*Allocator, error) {
	switch strategy {
	case "", StrategyUUID:
		return NewUUID(), nil
	case StrategySnowflake:
		return NewSnowflake(node)
	}
	return nil, fmt.Errorf("unknown id strategy %q", strategy)
}

// Allocate returns supplied unchanged when non-empty, otherwise a fresh id.
func (a *Allocator) Allocate(supplied string) string {
	if supplied != "" {
		return supplied
	}
	return a.generate()
}
