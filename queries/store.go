// Package queries loads request bodies and defines their traversal order.
package queries

import (
	"bytes"
	"math/rand/v2"
)

// Store is an immutable ordered set of request bodies.
type Store struct {
	bodies []string
}

// Parse splits newline-delimited data into a Store, empty lines are skipped.
func Parse(data []byte) *Store {
	return &Store{bodies: SplitLines(data)}
}

// New creates a Store from bodies.
func New(bodies []string) *Store {
	return &Store{bodies: append([]string(nil), bodies...)}
}

// SplitLines splits data by newline skipping empty lines.
func SplitLines(data []byte) []string {
	lines := make([]string, 0, bytes.Count(data, []byte{'\n'})+1)

	for _, l := range bytes.Split(data, []byte{'\n'}) {
		if len(l) == 0 {
			continue
		}

		lines = append(lines, string(l))
	}

	return lines
}

// Len returns number of queries.
func (s *Store) Len() int {
	return len(s.bodies)
}

// Body returns query body by its original index.
func (s *Store) Body(i int) string {
	return s.bodies[i]
}

// Bodies returns all bodies in original order, the result must not be modified.
func (s *Store) Bodies() []string {
	return s.bodies
}

// Shuffle returns a permutation of query indexes, identical for the same seed and size.
func (s *Store) Shuffle(seed uint64) []int {
	return Permutation(len(s.bodies), seed)
}

// Permutation returns a seeded pseudo-random permutation of [0, n).
func Permutation(n int, seed uint64) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	rnd := rand.New(rand.NewPCG(seed, seed))
	rnd.Shuffle(n, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	return order
}
