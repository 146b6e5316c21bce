package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDollars(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"150.00", 15000},
		{"$150.00", 15000},
		{" 89.5 ", 8950},
		{"0", 0},
		{"19.999", 2000}, // rounds to the nearest cent
		{"0.01", 1},
	}
	for _, tc := range cases {
		got, err := ParseDollars(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseDollarsRejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "  ", "$", "abc", "-5", "$-5"} {
		_, err := ParseDollars(in)
		assert.Error(t, err, in)
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "$150.00", FormatCents(15000))
	assert.Equal(t, "$0.05", FormatCents(5))
	assert.Equal(t, "$89.50", FormatCents(8950))
	assert.Equal(t, "-$1.25", FormatCents(-125))
}

func TestDollarsRoundTrip(t *testing.T) {
	cents, err := ParseDollars("150.00")
	require.NoError(t, err)
	assert.Equal(t, "$150.00", FormatCents(cents))
}
