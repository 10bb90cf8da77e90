package localday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addisAbaba(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Africa/Addis_Ababa")
	require.NoError(t, err)
	return loc
}

func TestNeedsReset_TableTests(t *testing.T) {
	loc := addisAbaba(t) // UTC+3

	ts := func(s string) *time.Time {
		v, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return &v
	}

	tests := []struct {
		name      string
		lastReset *time.Time
		now       time.Time
		want      bool
	}{
		{
			name:      "never reset",
			lastReset: nil,
			now:       *ts("2024-03-10T10:00:00Z"),
			want:      true,
		},
		{
			name:      "same local day",
			lastReset: ts("2024-03-10T06:00:00Z"),
			now:       *ts("2024-03-10T18:00:00Z"),
			want:      false,
		},
		{
			name:      "utc midnight passed but local day unchanged",
			lastReset: ts("2024-03-10T22:30:00Z"),
			now:       *ts("2024-03-11T00:30:00Z"),
			want:      false,
		},
		{
			name:      "local midnight passed before utc midnight",
			lastReset: ts("2024-03-10T20:30:00Z"),
			now:       *ts("2024-03-10T21:30:00Z"),
			want:      true,
		},
		{
			name:      "local midnight passed",
			lastReset: ts("2024-03-10T20:59:00Z"),
			now:       *ts("2024-03-10T21:01:00Z"),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsReset(tt.lastReset, tt.now, loc))
		})
	}
}

func TestStartAndNext(t *testing.T) {
	loc := addisAbaba(t)
	now := time.Date(2024, 3, 10, 22, 30, 0, 0, time.UTC) // 01:30 11 марта по местному

	start := Start(now, loc)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, loc), Next(now, loc))
	assert.Equal(t, "2024-03-11", Key(now, loc))
}
