package engine

import (
	"math"
	"math/rand/v2"
	"unicode/utf16"
)

const (
	// mulberryIncrement is the odd Weyl increment added to the state per draw.
	mulberryIncrement uint32 = 0x6d2b79f5
	twoPow32                 = 4294967296.0
)

// Generator produces a reproducible stream of floats in [0, 1) using the
// mulberry32 mixing function. A Generator is not safe for concurrent use;
// every simulation owns its own instance.
type Generator struct {
	state uint32
}

// NewGenerator creates a generator positioned at the start of the stream for seed.
func NewGenerator(seed uint32) *Generator {
	return &Generator{state: seed}
}

// Next advances the state and returns the next float in [0, 1).
func (g *Generator) Next() float64 {
	g.state += mulberryIncrement
	t := g.state
	r := (t ^ (t >> 15)) * (1 | t)
	r ^= r + (r^(r>>7))*(61|r)
	return float64(r^(r>>14)) / twoPow32
}

// NormalizeSeed reduces a seed to the unsigned 32-bit value that drives a
// Generator. Numbers are truncated and wrapped modulo 2^32, strings are hashed
// over their UTF-16 code units. An absent or non-finite seed yields a random
// value, so callers that need reproducibility must always supply one.
func NormalizeSeed(seed Seed) uint32 {
	switch seed.kind {
	case seedNumber:
		if !math.IsNaN(seed.num) && !math.IsInf(seed.num, 0) {
			return toUint32(seed.num)
		}
	case seedString:
		return hashString(seed.str)
	}
	return rand.Uint32()
}

// toUint32 mirrors the ECMAScript ToUint32 conversion.
func toUint32(f float64) uint32 {
	t := math.Mod(math.Trunc(f), twoPow32)
	if t < 0 {
		t += twoPow32
	}
	return uint32(t)
}

func hashString(s string) uint32 {
	var h uint32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + uint32(unit)
	}
	return h
}

// Pick draws one float from next and returns the element it selects. An empty
// list returns the zero value and consumes nothing from the stream.
func Pick[T any](list []T, next func() float64) (T, bool) {
	var zero T
	if len(list) == 0 {
		return zero, false
	}
	index := int(math.Floor(next() * float64(len(list))))
	if index >= len(list) {
		index = len(list) - 1
	}
	return list[index], true
}

// Floats generates count floats from the start of the stream for seed.
func Floats(seed uint32, count int) []float64 {
	return FloatsInto(nil, seed, count)
}

// FloatsInto fills dst with floats, avoiding allocation when dst is large enough.
func FloatsInto(dst []float64, seed uint32, count int) []float64 {
	if cap(dst) < count {
		dst = make([]float64, count)
	}
	dst = dst[:count]

	g := NewGenerator(seed)
	for i := range dst {
		dst[i] = g.Next()
	}
	return dst
}
