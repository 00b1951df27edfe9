package generator

import (
	"context"
	"fmt"
	"math/big"
	"strings"
)

// ParseSeed parses a non-negative decimal literal.
func ParseSeed(s string) (*big.Int, error) {
	literal := strings.TrimSpace(s)
	if literal == "" {
		return nil, fmt.Errorf("%w: empty literal", ErrInvalidSeed)
	}

	seed, ok := new(big.Int).SetString(literal, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a decimal integer",
			ErrInvalidSeed, s)
	}

	if seed.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s is negative", ErrInvalidSeed, seed)
	}

	return seed, nil
}

// Generate runs n iterations from seed and returns the concatenated binary
// stream. On error, the stream produced up to the failure is returned along
// with the error.
func Generate(ctx context.Context, seed *big.Int, n int) (string, error) {
	g, err := New(seed, n)
	if err != nil {
		return "", err
	}

	var sb strings.Builder

	err = g.Run(ctx, &sb)

	return sb.String(), err
}
