package generator

import (
	"fmt"
	"math/big"

	"github.com/sarchlab/middlesquare/hooking"
	"github.com/sarchlab/middlesquare/idgen"
)

// Builder can build middle-square generators.
type Builder struct {
	seed       *big.Int
	iterations int
	strict     bool
	hooks      []hooking.Hook
}

// MakeBuilder returns a Builder with no seed and zero iterations.
func MakeBuilder() Builder {
	return Builder{}
}

// WithSeed sets the initial seed. The seed is copied at Build time.
func (b Builder) WithSeed(seed *big.Int) Builder {
	b.seed = seed
	return b
}

// WithIterations sets the number of iterations the generator performs.
func (b Builder) WithIterations(n int) Builder {
	b.iterations = n
	return b
}

// WithStrictMode makes the generator stop with ErrDegenerateZeroSeed as soon
// as the seed collapses to zero.
func (b Builder) WithStrictMode(strict bool) Builder {
	b.strict = strict
	return b
}

// WithHook registers a hook on every generator built.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	hooks := make([]hooking.Hook, len(b.hooks), len(b.hooks)+1)
	copy(hooks, b.hooks)
	b.hooks = append(hooks, hook)

	return b
}

// Build validates the configuration and creates a generator. An empty name is
// replaced by a generated one.
func (b Builder) Build(name string) (*Generator, error) {
	if b.seed == nil {
		return nil, fmt.Errorf("%w: seed is required", ErrInvalidSeed)
	}

	if b.seed.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s is negative", ErrInvalidSeed, b.seed)
	}

	if b.iterations < 0 {
		return nil, fmt.Errorf("%w: %d is negative",
			ErrInvalidIterationCount, b.iterations)
	}

	if name == "" {
		name = "MiddleSquare[" + idgen.Next().String() + "]"
	}

	seed := new(big.Int).Set(b.seed)

	g := &Generator{
		name:       name,
		seed:       seed,
		digits:     len(seed.String()),
		iterations: b.iterations,
		strict:     b.strict,
	}

	for _, hook := range b.hooks {
		g.AcceptHook(hook)
	}

	return g, nil
}
