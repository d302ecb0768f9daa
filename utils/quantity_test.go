package utils

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeQuantity(t *testing.T) {
	cases := []struct {
		in       any
		expected int
	}{
		{"1.234,5", 1234},
		{10, 10},
		{"0", 0},
		{"  42 ", 42},
		{"12,99", 12},
		{"1.000.000", 1000000},
		{"-1,5", -2},
		{7.9, 7},
		{int64(3), 3},
		{decimal.RequireFromString("5.5"), 5},
	}
	for _, tc := range cases {
		got, err := NormalizeQuantity(tc.in)
		if err != nil {
			t.Fatalf("NormalizeQuantity(%v) error: %v", tc.in, err)
		}
		if got != tc.expected {
			t.Fatalf("NormalizeQuantity(%v) expected %d, got %d", tc.in, tc.expected, got)
		}
	}
}

func TestNormalizeQuantityRejectsMalformed(t *testing.T) {
	for _, in := range []any{
		"", "abc", "1,2,3", "12 un", math.NaN(), math.Inf(1), true,
		"1e30", "2E3", "99.999.999.999.999.999.999", "-99.999.999.999.999.999.999",
		1e30, decimal.RequireFromString("1e40"),
	} {
		_, err := NormalizeQuantity(in)
		if err == nil {
			t.Fatalf("NormalizeQuantity(%v) expected error", in)
		}
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("NormalizeQuantity(%v) expected ErrInvalidQuantity, got %v", in, err)
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("NormalizeQuantity(%v) expected *ParseError, got %T", in, err)
		}
	}
}

func TestParseDecimalBR(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"1.234,50", "1234.5"},
		{"0,01", "0.01"},
		{"15", "15"},
	}
	for _, tc := range cases {
		d, err := ParseDecimalBR(tc.in)
		if err != nil {
			t.Fatalf("ParseDecimalBR(%q) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("ParseDecimalBR(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
	for _, in := range []string{"R$ 10", "1e3", "1,5E2"} {
		if _, err := ParseDecimalBR(in); !errors.Is(err, ErrInvalidNumber) {
			t.Fatalf("ParseDecimalBR(%q) expected ErrInvalidNumber, got %v", in, err)
		}
	}
}
