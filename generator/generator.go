// Package generator implements the middle-square method.
//
// Each iteration squares the seed, takes the middle Digits() decimal digits
// of the square as both the next seed and the emitted value, and renders the
// value in binary. The binary strings of all iterations form one continuous
// stream with no prefix and no separators.
//
// The method degenerates. A window near the edge of a short square holds
// fewer digits than the initial seed had, and once the seed reaches zero it
// stays zero and every later iteration emits "0". Both behaviours are kept
// as-is and reported through hooks.
package generator

import (
	"context"
	"io"
	"iter"
	"math/big"

	"github.com/sarchlab/middlesquare/hooking"
)

// Step is the record of one iteration.
type Step struct {
	// Index counts iterations from zero.
	Index int

	// Seed is the value that was squared.
	Seed *big.Int

	Square       *big.Int
	SquareDigits string

	// Offset is the signed start of the extraction window in SquareDigits.
	Offset int

	// Extracted is the digit window, leading zeros included.
	Extracted string

	// Result is Extracted parsed as a decimal integer. It is the next seed.
	Result *big.Int

	// Bits is Result in base 2 without a prefix.
	Bits string

	// Short is set when Extracted holds fewer than Digits() characters.
	Short bool

	// Zero is set when Result is zero.
	Zero bool
}

// Generator runs the middle-square method for a fixed number of iterations.
// It is not safe for concurrent use.
type Generator struct {
	hooking.HookableBase

	name       string
	seed       *big.Int
	digits     int
	iterations int
	completed  int
	strict     bool
	zeroLocked bool
	halted     bool
}

// New creates a generator that performs n iterations starting from seed.
func New(seed *big.Int, n int) (*Generator, error) {
	return MakeBuilder().
		WithSeed(seed).
		WithIterations(n).
		Build("")
}

// Name returns the name of the generator.
func (g *Generator) Name() string {
	return g.name
}

// Digits returns the digit length of the initial seed. It is the width of
// every extraction window and never changes.
func (g *Generator) Digits() int {
	return g.digits
}

// Seed returns a copy of the current seed.
func (g *Generator) Seed() *big.Int {
	return new(big.Int).Set(g.seed)
}

// Iterations returns the total number of iterations requested.
func (g *Generator) Iterations() int {
	return g.iterations
}

// Completed returns the number of iterations performed so far.
func (g *Generator) Completed() int {
	return g.completed
}

// Remaining returns the number of iterations not yet performed.
func (g *Generator) Remaining() int {
	return g.iterations - g.completed
}

// Strict tells if the generator stops when the seed collapses to zero.
func (g *Generator) Strict() bool {
	return g.strict
}

// Next performs one iteration.
//
// It returns ErrExhausted after all iterations are done. In strict mode, the
// iteration that collapses the seed to zero is returned together with
// ErrDegenerateZeroSeed, and every later call returns ErrDegenerateZeroSeed.
func (g *Generator) Next() (Step, error) {
	if g.halted {
		return Step{}, ErrDegenerateZeroSeed
	}

	if g.completed >= g.iterations {
		return Step{}, ErrExhausted
	}

	step := g.iterate()
	g.publish(step)

	if step.Zero && g.strict {
		g.halted = true
		return step, ErrDegenerateZeroSeed
	}

	return step, nil
}

func (g *Generator) iterate() Step {
	square := new(big.Int).Mul(g.seed, g.seed)
	squareDigits := square.String()
	offset, extracted := middleDigits(squareDigits, g.digits)

	// An empty window fails to parse and leaves result at zero.
	result, ok := new(big.Int).SetString(extracted, 10)
	if !ok {
		result = new(big.Int)
	}

	step := Step{
		Index:        g.completed,
		Seed:         g.seed,
		Square:       square,
		SquareDigits: squareDigits,
		Offset:       offset,
		Extracted:    extracted,
		Result:       new(big.Int).Set(result),
		Bits:         result.Text(2),
		Short:        len(extracted) < g.digits,
		Zero:         result.Sign() == 0,
	}

	g.seed = result
	g.completed++

	return step
}

func (g *Generator) publish(step Step) {
	g.InvokeHook(hooking.HookCtx{
		Domain: g,
		Pos:    HookPosStep,
		Item:   step,
	})

	if step.Short {
		g.InvokeHook(hooking.HookCtx{
			Domain: g,
			Pos:    HookPosShortExtraction,
			Item:   step,
		})
	}

	if step.Zero && !g.zeroLocked {
		g.zeroLocked = true
		g.InvokeHook(hooking.HookCtx{
			Domain: g,
			Pos:    HookPosZeroLock,
			Item:   step,
		})
	}
}

// Run performs all remaining iterations and writes the binary form of each
// result to w as soon as it is produced. The context is checked before every
// iteration; on cancellation Run returns ctx.Err() and the output written so
// far stays valid.
func (g *Generator) Run(ctx context.Context, w io.Writer) error {
	for g.Remaining() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		step, err := g.Next()
		if step.Bits != "" {
			if _, werr := io.WriteString(w, step.Bits); werr != nil {
				return werr
			}
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// Steps returns an iterator over the remaining iterations. Breaking out of
// the loop stops the generator; iteration also stops after the first error.
func (g *Generator) Steps() iter.Seq2[Step, error] {
	return func(yield func(Step, error) bool) {
		for g.Remaining() > 0 {
			step, err := g.Next()
			if !yield(step, err) || err != nil {
				return
			}
		}
	}
}
