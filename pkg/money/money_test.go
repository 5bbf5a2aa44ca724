package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSumIsExact(t *testing.T) {
	total := Sum(0.1, 0.2)
	if !total.Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("expected 0.3, got %s", total)
	}
	if !Sum().IsZero() {
		t.Fatal("expected empty sum to be zero")
	}
}

func TestFormatUSD(t *testing.T) {
	cases := map[string]string{
		"35":                    "$35.00",
		"0":                     "$0.00",
		"12.5":                  "$12.50",
		"-4.25":                 "-$4.25",
		"1234.5":                "$1,234.50",
		// float64 holds 1234567.005 as ...004999, which would round down
		"1234567.005":           "$1,234,567.01",
		"0.005":                 "$0.01",
		"-0.001":                "$0.00",
		"100000000000000000000": "$100,000,000,000,000,000,000.00",
	}
	for in, want := range cases {
		if got := FormatUSD(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatUSD(%s) = %q want %q", in, got, want)
		}
	}
}
