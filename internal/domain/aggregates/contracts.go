package aggregates

import "slices"

// Contract names an aggregate and the tables it is the only writer of
// inside its transaction. Reads outside those writes go through table repos.
type Contract struct {
	Name   string
	Writes []string
	Notes  string
}

// Covers reports whether table is written by the aggregate.
func (c Contract) Covers(table string) bool {
	return slices.Contains(c.Writes, table)
}

type Aggregate interface {
	Contract() Contract
}
