// Package idgen provides deterministic sequential ID generators.
package idgen

import (
	"strconv"
	"sync/atomic"
)

// ID is a unique identifier represented as a uint64.
type ID uint64

// String returns the decimal form of the ID.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Generator produces unique identifiers.
type Generator interface {
	Generate() ID
}

// New returns a sequential generator whose first emitted ID is "1".
func New() Generator {
	return &sequentialGenerator{}
}

type sequentialGenerator struct {
	next uint64
}

func (g *sequentialGenerator) Generate() ID {
	return ID(atomic.AddUint64(&g.next, 1))
}

var defaultGenerator = New()

// Next returns an ID from the process-wide generator.
func Next() ID {
	return defaultGenerator.Generate()
}
