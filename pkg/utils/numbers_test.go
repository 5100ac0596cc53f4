package utils

import "testing"

func TestParseLeadingFloat(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"1.23", 1.23, true},
		{"  -0.75 ", -0.75, true},
		{"+2.5%", 2.5, true},
		{"−1.10", -1.10, true},
		{"12abc", 12, true},
		{".5", 0.5, true},
		{"3.", 3, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
		{"1e999", 0, false},
		{"NaN", 0, false},
		{"Infinity", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLeadingFloat(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseLeadingFloat(%q) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseLenientFloat(t *testing.T) {
	if got := ParseLenientFloat("n/a"); got != 0 {
		t.Errorf("ParseLenientFloat(n/a) = %v, want 0", got)
	}
	if got := ParseLenientFloat("42.1"); got != 42.1 {
		t.Errorf("ParseLenientFloat(42.1) = %v, want 42.1", got)
	}
}

func TestStripGrouping(t *testing.T) {
	if got := StripGrouping("1,234,567.8"); got != "1234567.8" {
		t.Errorf("StripGrouping = %q", got)
	}
}

func TestStripSpaces(t *testing.T) {
	if got := StripSpaces("7 123 456,45 "); got != "7123456,45" {
		t.Errorf("StripSpaces = %q", got)
	}
}
