package engine

import (
	"bytes"
	"encoding/json"
	"strconv"
)

type seedKind uint8

const (
	seedAbsent seedKind = iota
	seedNumber
	seedString
)

// Seed is the caller-supplied seed: a number, a string, or absent.
// The zero value is an absent seed.
type Seed struct {
	kind seedKind
	num  float64
	str  string
}

// NumberSeed wraps a numeric seed.
func NumberSeed(n float64) Seed {
	return Seed{kind: seedNumber, num: n}
}

// StringSeed wraps a string seed.
func StringSeed(s string) Seed {
	return Seed{kind: seedString, str: s}
}

// ParseSeed interprets command-line input: anything that parses as a number is
// a numeric seed, everything else is a string seed, and "" is absent.
func ParseSeed(s string) Seed {
	if s == "" {
		return Seed{}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return NumberSeed(n)
	}
	return StringSeed(s)
}

// IsAbsent reports whether no seed was supplied.
func (s Seed) IsAbsent() bool {
	return s.kind == seedAbsent
}

// Value returns the seed as a plain value: float64, string, or nil when absent.
func (s Seed) Value() any {
	switch s.kind {
	case seedNumber:
		return s.num
	case seedString:
		return s.str
	default:
		return nil
	}
}

func (s Seed) String() string {
	switch s.kind {
	case seedNumber:
		return strconv.FormatFloat(s.num, 'f', -1, 64)
	case seedString:
		return strconv.Quote(s.str)
	default:
		return "<absent>"
	}
}

// MarshalJSON encodes the seed in its original form; absent seeds encode as null.
func (s Seed) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case seedNumber:
		return json.Marshal(s.num)
	case seedString:
		return json.Marshal(s.str)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a JSON number or string. Any other JSON value decodes
// as an absent seed rather than failing.
func (s *Seed) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = Seed{}
	if len(data) == 0 {
		return nil
	}
	switch {
	case data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = StringSeed(str)
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return nil
		}
		*s = NumberSeed(n)
	}
	return nil
}
