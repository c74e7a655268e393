package password

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Hasher performs one-way password hashing and verification. Hashing is the
// dominant CPU cost of the service, so concurrent hash operations are capped
// by a weighted semaphore to avoid starving request handling under load.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewHasher builds a Hasher with the given bcrypt cost and a cap on
// concurrent hash computations.
func NewHasher(cost, maxConcurrent int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Hasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Hash produces a salted digest of the plaintext. Each call yields a
// different digest for the same input.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Check reports whether plaintext matches digest. Comparison recomputes the
// digest at the stored cost, so it holds the same concurrency cap as Hash. A
// structurally invalid digest yields (false, nil) rather than an error;
// bcrypt's comparison does not short-circuit on the first differing byte.
func (h *Hasher) Check(ctx context.Context, plaintext, digest string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil, nil
}
