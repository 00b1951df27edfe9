package tracing

import (
	"sync"

	"github.com/sarchlab/middlesquare/hooking"
)

// DegeneracyCounter is a hook that counts how often each hook position is
// triggered, e.g. how many steps had a short extraction.
type DegeneracyCounter struct {
	lock sync.Mutex

	names  []string
	counts map[string]uint64
}

// NewDegeneracyCounter creates a new DegeneracyCounter.
func NewDegeneracyCounter() *DegeneracyCounter {
	return &DegeneracyCounter{
		counts: make(map[string]uint64),
	}
}

// Func counts the hook position of ctx.
func (c *DegeneracyCounter) Func(ctx hooking.HookCtx) {
	c.lock.Lock()
	defer c.lock.Unlock()

	_, ok := c.counts[ctx.Pos.Name]
	if !ok {
		c.names = append(c.names, ctx.Pos.Name)
	}

	c.counts[ctx.Pos.Name]++
}

// Names returns the hook position names seen, in order of first appearance.
func (c *DegeneracyCounter) Names() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	names := make([]string, len(c.names))
	copy(names, c.names)

	return names
}

// Count returns the number of times pos was triggered.
func (c *DegeneracyCounter) Count(pos *hooking.HookPos) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.counts[pos.Name]
}
