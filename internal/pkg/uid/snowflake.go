package uid

import "github.com/bwmarrin/snowflake"

// Snowflake generates sortable 64-bit ids from a per-process node.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a generator for the given node number.
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: n}, nil
}

// Generate returns a new snowflake id.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
