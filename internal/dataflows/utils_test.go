package dataflows

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	tcs := []struct {
		in, want string
	}{
		{"2024-06-01", "2024-06-01"},
		{" 2024-06-30 ", "2024-06-30"},
		{"2024-6-1", "2024-06-01"},
		{"01/06/2024", "2024-06-01"},
		{"30/06/2024", "2024-06-30"},
		{"1/6/2024", "2024-06-01"},
		{"2024-06-01T09:30:00+07:00", "2024-06-01"},
		{"2024-06-01 09:30:00", "2024-06-01"},
	}
	for _, tc := range tcs {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizeDate(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeDateRejects(t *testing.T) {
	for _, in := range []string{"", "yesterday", "06/30/2024", "2024-13-01", "32/01/2024", "June 1st"} {
		t.Run(in, func(t *testing.T) {
			_, err := NormalizeDate(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDate))
		})
	}
}

func TestFormatDateFallsBackToToday(t *testing.T) {
	now := time.Date(2024, 7, 15, 18, 0, 0, 0, time.UTC)

	assert.Equal(t, "2024-06-01", FormatDate("2024-06-01", now))
	assert.Equal(t, "2024-06-30", FormatDate("30/06/2024", now))

	for _, in := range []string{"", "not a date", "2024/06/01", "last week"} {
		got := FormatDate(in, now)
		assert.Equal(t, "2024-07-15", got, in)
		_, err := time.Parse(DateLayout, got)
		assert.NoError(t, err)
	}
}

func TestNormalizeDateRange(t *testing.T) {
	start, end, err := NormalizeDateRange("01/06/2024", "2024-06-30")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", start)
	assert.Equal(t, "2024-06-30", end)

	start, end, err = NormalizeDateRange("2024-06-03", "2024-06-03")
	require.NoError(t, err)
	assert.Equal(t, start, end)

	_, _, err = NormalizeDateRange("2024-06-30", "2024-06-01")
	assert.True(t, errors.Is(err, ErrInvalidDateRange))

	_, _, err = NormalizeDateRange("2024-06-01", "soon")
	assert.True(t, errors.Is(err, ErrInvalidDate))
	assert.Contains(t, err.Error(), "end_date")
}

func TestNormalizeSymbol(t *testing.T) {
	got, err := NormalizeSymbol(" bbca ")
	require.NoError(t, err)
	assert.Equal(t, "BBCA", got)

	_, err = NormalizeSymbol("   ")
	assert.True(t, errors.Is(err, ErrEmptySymbol))
}

func TestNormalizeTopN(t *testing.T) {
	n, err := NormalizeTopN(0, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = NormalizeTopN(3, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = NormalizeTopN(-1, 5)
	assert.True(t, errors.Is(err, ErrInvalidTopN))
}
