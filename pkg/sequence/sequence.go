package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyPrefix      = errors.New("sequence prefix is required")
	ErrGeneratorFailure = errors.New("failed to generate sequence number")
)

// Generator produces the next document number for prefix on the day of at.
type Generator interface {
	Next(ctx context.Context, prefix string, at time.Time) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prefix string, at time.Time) (string, error)

func (f GeneratorFunc) Next(ctx context.Context, prefix string, at time.Time) (string, error) {
	return f(ctx, prefix, at)
}

// Format renders PREFIX-YYYYMMDD-NNNN; the counter widens past four digits as needed.
func Format(prefix string, at time.Time, n int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day(at), n)
}

func day(at time.Time) string {
	return at.UTC().Format("20060102")
}

// MemoryGenerator counts per prefix and day inside the current process.
type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{counters: make(map[string]int64)}
}

func (g *MemoryGenerator) Next(_ context.Context, prefix string, at time.Time) (string, error) {
	if prefix == "" {
		return "", ErrEmptyPrefix
	}
	key := prefix + ":" + day(at)

	g.mu.Lock()
	g.counters[key]++
	n := g.counters[key]
	g.mu.Unlock()

	return Format(prefix, at, n), nil
}

// RandomGenerator appends eight random hex characters instead of a counter.
type RandomGenerator struct{}

func NewRandomGenerator() RandomGenerator {
	return RandomGenerator{}
}

func (RandomGenerator) Next(_ context.Context, prefix string, at time.Time) (string, error) {
	if prefix == "" {
		return "", ErrEmptyPrefix
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Join(ErrGeneratorFailure, err)
	}
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, day(at), suffix), nil
}
