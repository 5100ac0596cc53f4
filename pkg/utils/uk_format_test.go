package utils

import "testing"

func TestFormatGBP(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0, "£0.00"},
		{100, "£100.00"},
		{1000, "£1,000.00"},
		{12345, "£12,345.00"},
		{1234567, "£1,234,567.00"},
		{2847.50, "£2,847.50"},
		{-1234.56, "-£1,234.56"},
		{999.999, "£1,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatGBP(tt.input)
			if result != tt.expected {
				t.Errorf("FormatGBP(%f) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatGBPCompact(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{500, "£500.00"},
		{1500, "£1.5k"},
		{7000000, "£7m"},
		{123400000000, "£123.4bn"},
		{2e12, "£2tr"},
		{-8e6, "-£8m"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatGBPCompact(tt.input)
			if result != tt.expected {
				t.Errorf("FormatGBPCompact(%f) = %s, want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatPct(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{2.45, "+2.45%"},
		{-1.23, "-1.23%"},
		{0.0, "+0.00%"},
	}

	for _, tt := range tests {
		if got := FormatPct(tt.input); got != tt.expected {
			t.Errorf("FormatPct(%f) = %s, want %s", tt.input, got, tt.expected)
		}
	}
}

func TestFormatGrouped(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{7452.1, "7,452.10"},
		{6826.15, "6,826.15"},
		{0.5, "0.50"},
		{-12000, "-12,000.00"},
	}
	for _, tt := range tests {
		if got := FormatGrouped(tt.input); got != tt.expected {
			t.Errorf("FormatGrouped(%v) = %s, want %s", tt.input, got, tt.expected)
		}
	}
}
