package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToInt64(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{"int", 5, 5},
		{"float", float64(1700000000000), 1700000000000},
		{"string", "42", 42},
		{"float string", "42.9", 42},
		{"bytes", []byte("7"), 7},
		{"nil", nil, 0},
		{"garbage", "abc", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToInt64(tt.in))
		})
	}
}

func TestToDecimal(t *testing.T) {
	assert.True(t, decimal.NewFromInt(50).Equal(ToDecimal(50)))
	assert.True(t, decimal.RequireFromString("12.5").Equal(ToDecimal(12.5)))
	assert.True(t, decimal.RequireFromString("-3.25").Equal(ToDecimal(" -3.25 ")))
	assert.True(t, decimal.Zero.Equal(ToDecimal("n/a")))
	assert.True(t, decimal.Zero.Equal(ToDecimal(true)))
}

func TestToString(t *testing.T) {
	assert.Equal(t, "", ToString(nil))
	assert.Equal(t, "p1", ToString("p1"))
	assert.Equal(t, "12", ToString(float64(12)))
	assert.Equal(t, "7", ToString(7))
}
