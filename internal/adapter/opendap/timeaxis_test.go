package opendap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeUnits(t *testing.T) {
	tests := []struct {
		units string
		base  time.Time
		unit  time.Duration
	}{
		{"hours since 1900-01-01 00:00:00", time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), time.Hour},
		{"hours since 1900-01-01 00:00:0.0", time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), time.Hour},
		{"days since 1800-1-1", time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC), 24 * time.Hour},
		{"seconds since 1970-01-01T00:00:00Z", time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), time.Second},
		{"Minutes since 2000-06-15 12:30", time.Date(2000, 6, 15, 12, 30, 0, 0, time.UTC), time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.units, func(t *testing.T) {
			axis, err := ParseTimeUnits(tt.units)
			require.NoError(t, err)
			assert.Equal(t, tt.base, axis.Base)
			assert.Equal(t, tt.unit, axis.Unit)
		})
	}
}

func TestParseTimeUnits_Invalid(t *testing.T) {
	for _, units := range []string{"", "degC", "fortnights since 1900-01-01"} {
		_, err := ParseTimeUnits(units)
		assert.Error(t, err, units)
	}
}

func TestTimeAxis_DecodeAndIndexOf(t *testing.T) {
	axis, err := ParseTimeUnits("hours since 1900-01-01 00:00:00")
	require.NoError(t, err)

	base := time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	may8 := time.Date(2025, time.May, 8, 0, 0, 0, 0, time.UTC)
	h := may8.Sub(base).Hours()

	assert.Equal(t, may8, axis.Decode(h))
	assert.Equal(t, may8.Add(6*time.Hour), axis.Decode(h+6))

	coords := []float64{h - 48, h - 24, h, h + 24}
	idx, ok := axis.IndexOf(coords, may8)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = axis.IndexOf(coords, may8.AddDate(0, 0, 5))
	assert.False(t, ok)
}

func TestTimeAxis_DecodeDistantEpoch(t *testing.T) {
	axis, err := ParseTimeUnits("days since 0001-01-01 00:00:00")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), axis.Decode(730119))
}
