package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestIsMoney(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"1.01", true},
		{"1.10", true},
		{"-25.50", true},
		{"9999999999999.99", true},
		{"1.005", false},
		{"0.001", false},
		{"10000000000000", false},
		{"-10000000000000.00", false},
	}
	for _, tt := range tests {
		if got := IsMoney(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("IsMoney(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
