// Package nonce produces the random comment that is spliced into a protocol
// blob before each hash attempt.
package nonce

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"strconv"
)

const (
	// Digits is the fixed width of every nonce.
	Digits = 16

	// Max is the exclusive upper bound of a nonce value (10^16).
	Max uint64 = 10_000_000_000_000_000

	// Marker is the start of the nonce comment line. The insertion point of a
	// blob is the last occurrence of Marker.
	Marker = "(* Vanity nonce:"
)

// Source yields the digit string for the next attempt. A Source is owned by
// a single worker and need not be safe for concurrent use.
type Source interface {
	Digits() string
}

// Random draws nonces uniformly from [0, Max) with its own PCG state.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a Random seeded from crypto/rand.
func NewRandom() *Random {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// crypto/rand.Read does not fail on supported platforms
		panic("nonce: seeding from crypto/rand: " + err.Error())
	}
	return NewSeeded(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:]))
}

// NewSeeded returns a reproducible Random.
func NewSeeded(seed1, seed2 uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// Digits returns the next nonce as exactly 16 zero-padded decimal digits.
func (r *Random) Digits() string {
	return Format(r.rng.Uint64N(Max))
}

// Format zero-pads v to Digits decimal digits. v must be below Max.
func Format(v uint64) string {
	var buf [Digits]byte
	for i := range buf {
		buf[i] = '0'
	}
	s := strconv.AppendUint(nil, v%Max, 10)
	copy(buf[Digits-len(s):], s)
	return string(buf[:])
}

// Render embeds the digits in the comment line that is hashed.
func Render(digits string) string {
	return Marker + " " + digits + " *)\n"
}

// Fixed always returns the same digits.
type Fixed string

// Digits implements Source.
func (f Fixed) Digits() string { return string(f) }

// Sequence replays a list of digit strings, then repeats the last one.
type Sequence struct {
	values []string
	next   int
}

// NewSequence returns a Sequence over values. values must not be empty.
func NewSequence(values ...string) *Sequence {
	return &Sequence{values: values}
}

// Digits implements Source.
func (s *Sequence) Digits() string {
	v := s.values[s.next]
	if s.next < len(s.values)-1 {
		s.next++
	}
	return v
}
