package engine

import (
	"encoding/json"
	"testing"
)

func TestSeedJSON(t *testing.T) {
	tests := []struct {
		in     string
		absent bool
		want   uint32
		out    string
	}{
		{`42`, false, 42, `42`},
		{`-1`, false, 4294967295, `-1`},
		{`"abc"`, false, 96354, `"abc"`},
		{`""`, false, 0, `""`},
		{`null`, true, 0, `null`},
		{`true`, true, 0, `null`},
		{`{"x":1}`, true, 0, `null`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var s Seed
			if err := json.Unmarshal([]byte(tt.in), &s); err != nil {
				t.Fatalf("Unmarshal(%s): %v", tt.in, err)
			}
			if s.IsAbsent() != tt.absent {
				t.Fatalf("IsAbsent = %v, want %v", s.IsAbsent(), tt.absent)
			}
			if !tt.absent && NormalizeSeed(s) != tt.want {
				t.Errorf("NormalizeSeed = %d, want %d", NormalizeSeed(s), tt.want)
			}
			out, err := json.Marshal(s)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(out) != tt.out {
				t.Errorf("Marshal = %s, want %s", out, tt.out)
			}
		})
	}
}

func TestSeedMissingField(t *testing.T) {
	var req struct {
		Seed Seed `json:"seed"`
	}
	if err := json.Unmarshal([]byte(`{}`), &req); err != nil {
		t.Fatal(err)
	}
	if !req.Seed.IsAbsent() {
		t.Error("Expected a missing seed to be absent")
	}
}

func TestParseSeed(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "<absent>"},
		{"1337", "1337"},
		{"-2.5", "-2.5"},
		{"abc", `"abc"`},
		{"12abc", `"12abc"`},
	}
	for _, tt := range tests {
		if got := ParseSeed(tt.in).String(); got != tt.want {
			t.Errorf("ParseSeed(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSeedValue(t *testing.T) {
	if v := (Seed{}).Value(); v != nil {
		t.Errorf("absent seed value = %v, want nil", v)
	}
	if v, ok := NumberSeed(7).Value().(float64); !ok || v != 7 {
		t.Errorf("number seed value = %v", NumberSeed(7).Value())
	}
	if v, ok := StringSeed("abc").Value().(string); !ok || v != "abc" {
		t.Errorf("string seed value = %v", StringSeed("abc").Value())
	}
}
