package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"full date", "25.12.2024", "2024-12-25"},
		{"two digit year", "1.4.25", "2025-04-01"},
		{"day and month", "25.12", "2024-12-25"},
		{"day and month already passed", "1.2", "2024-02-01"},
		{"day later this month", "20", "2024-03-20"},
		{"day today", "10", "2024-03-10"},
		{"day passed rolls to next month", "5", "2024-04-05"},
		{"trailing dot", "25.12.", "2024-12-25"},
		{"surrounding whitespace", "  7.8.2024 ", "2024-08-07"},
		{"leap day", "29.02.2024", "2024-02-29"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseInvalid(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 30, 0, 0, time.UTC)

	for _, in := range []string{"", "abc", "12.ab", "1.2.x", "31.02.2024", "29.02.2023", "0.1", "10.13", "32"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in, now)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParseDecemberRollsIntoNextYear(t *testing.T) {
	now := time.Date(2024, time.December, 20, 9, 0, 0, 0, time.UTC)

	got, err := Parse("3", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-03", got.String())
}

func TestParseDayMissingInInferredMonth(t *testing.T) {
	// 31 has not passed on Feb 10th, so February is assumed and rejected.
	now := time.Date(2023, time.February, 10, 9, 0, 0, 0, time.UTC)

	_, err := Parse("31", now)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestIsPast(t *testing.T) {
	now := time.Date(2024, time.March, 10, 23, 59, 0, 0, time.UTC)

	yesterday, err := Parse("9.3.2024", now)
	require.NoError(t, err)
	today, err := Parse("10.3.2024", now)
	require.NoError(t, err)
	tomorrow, err := Parse("11.3.2024", now)
	require.NoError(t, err)

	assert.True(t, IsPast(yesterday, now))
	assert.False(t, IsPast(today, now))
	assert.False(t, IsPast(tomorrow, now))
}
