// internal/reference/reference.go
package reference

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// Prefixes for the reference namespaces. Member and submission codes must
// never collide, so each namespace carries its own prefix.
const (
	MemberPrefix     = "BRS"
	SubmissionPrefix = "POP"
	ProofPrefix      = "PRF"
)

// Alphabet for random codes. 0/O and 1/I are excluded so a code read over
// the phone survives the trip.
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const defaultMaxAttempts = 5

var ErrGenerationExhausted = errors.New("reference generation exhausted retry attempts")

// Generator produces globally unique human-readable codes.
type Generator interface {
	Next(ctx context.Context) (string, error)
}

// Counter is an atomically incremented sequence, one per namespace.
type Counter interface {
	Next(ctx context.Context, namespace string) (int64, error)
}

// counterGenerator composes a fixed prefix with an atomic counter. Unique by
// construction; no collision check needed.
type counterGenerator struct {
	prefix  string
	counter Counter
}

func NewCounterGenerator(prefix string, counter Counter) Generator {
	return &counterGenerator{prefix: prefix, counter: counter}
}

func (g *counterGenerator) Next(ctx context.Context) (string, error) {
	n, err := g.counter.Next(ctx, g.prefix)
	if err != nil {
		return "", fmt.Errorf("advance %s counter: %w", g.prefix, err)
	}
	return fmt.Sprintf("%s-%04d", g.prefix, n), nil
}

// ExistsFunc reports whether a candidate code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// randomGenerator draws a random suffix and checks it against the store,
// retrying a bounded number of times before failing loudly.
type randomGenerator struct {
	prefix      string
	length      int
	exists      ExistsFunc
	maxAttempts int
}

func NewRandomGenerator(prefix string, length int, exists ExistsFunc) Generator {
	return &randomGenerator{
		prefix:      prefix,
		length:      length,
		exists:      exists,
		maxAttempts: defaultMaxAttempts,
	}
}

func (g *randomGenerator) Next(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		suffix, err := randomSuffix(g.length)
		if err != nil {
			return "", fmt.Errorf("draw random suffix: %w", err)
		}
		code := g.prefix + "-" + suffix

		taken, err := g.exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check reference collision: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrGenerationExhausted
}

func randomSuffix(length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
