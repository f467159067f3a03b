package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "noaa-test-token"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.DryRun)
	assert.True(t, cfg.TargetDate.IsZero())
	assert.Empty(t, cfg.PushgatewayURL)

	assert.Empty(t, cfg.NOAAToken)
	assert.Equal(t, "https://www.ncei.noaa.gov/cdo-web/api/v2", cfg.CDOBaseURL)
	assert.Equal(t, 1000, cfg.CDOPageSize)
	assert.Equal(t, 30*time.Second, cfg.CDOTimeout)
	assert.Equal(t, 5.0, cfg.CDORateLimit)
	assert.Equal(t, "CITY", cfg.CDOLocationCategory)
	assert.Equal(t, "CITY:US", cfg.CDOCountryPrefix)
	assert.Equal(t, "GHCND", cfg.CDODataset)
	assert.Equal(t, 25, cfg.CDOMaxCities)
	assert.False(t, cfg.StationDigestPost)
	assert.Equal(t, 5, cfg.StationDigestSize)

	assert.Contains(t, cfg.CPCDailyURLTemplate, "tmax.%d.nc")
	assert.Contains(t, cfg.CPCClimatologyURL, "tmax.day.ltm.1981-2010.nc")
	assert.Equal(t, 5*time.Minute, cfg.OPeNDAPTimeout)

	assert.Equal(t, "tmax_anomaly.png", cfg.MapOutput)
	assert.Equal(t, 2930, cfg.MapWidth)
	assert.Equal(t, 1748, cfg.MapHeight)
	assert.Equal(t, 300.0, cfg.MapDPI)
	assert.Equal(t, "fixed", cfg.MapScale)
	assert.True(t, cfg.MapCityMarkers)
	assert.True(t, cfg.MapCityLabels)

	assert.Equal(t, "https://bsky.social", cfg.BskyHost)
	assert.Equal(t, "us-climate-bot.bsky.social", cfg.BskyHandle)
	assert.Empty(t, cfg.BskyPassword)
	assert.Equal(t, time.Duration(0), cfg.BskyTimeout)

	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "noaa-stations", cfg.KafkaStationsTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("NOAA_API", testToken)
	t.Setenv("BSKY_CLIMATE_BOT_PW", "app-password")
	t.Setenv("CDO_BASE_URL", "http://localhost:9999/api/")
	t.Setenv("CDO_PAGE_SIZE", "250")
	t.Setenv("CDO_TIMEOUT", "0")
	t.Setenv("CDO_COUNTRY_PREFIX", "CITY:CA")
	t.Setenv("CDO_MAX_CITIES", "0")
	t.Setenv("STATION_DIGEST_POST", "true")
	t.Setenv("TARGET_DATE", "2025-05-08")
	t.Setenv("DRY_RUN", "1")
	t.Setenv("MAP_SCALE", "data")
	t.Setenv("MAP_CITY_LABELS", "false")
	t.Setenv("BSKY_TIMEOUT", "45s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testToken, cfg.NOAAToken)
	assert.Equal(t, "app-password", cfg.BskyPassword)
	assert.Equal(t, "http://localhost:9999/api", cfg.CDOBaseURL)
	assert.Equal(t, 250, cfg.CDOPageSize)
	assert.Equal(t, time.Duration(0), cfg.CDOTimeout)
	assert.Equal(t, "CITY:CA", cfg.CDOCountryPrefix)
	assert.Equal(t, 0, cfg.CDOMaxCities)
	assert.True(t, cfg.StationDigestPost)
	assert.Equal(t, time.Date(2025, time.May, 8, 0, 0, 0, 0, time.UTC), cfg.TargetDate)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "data", cfg.MapScale)
	assert.False(t, cfg.MapCityLabels)
	assert.Equal(t, 45*time.Second, cfg.BskyTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_MissingCredentialsAreNotLoadErrors(t *testing.T) {
	t.Setenv("NOAA_API", "")
	t.Setenv("BSKY_CLIMATE_BOT_PW", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.NOAAToken)
	assert.Empty(t, cfg.BskyPassword)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"CDO_PAGE_SIZE", "0"},
		{"CDO_PAGE_SIZE", "1001"},
		{"CDO_PAGE_SIZE", "lots"},
		{"CDO_TIMEOUT", "soon"},
		{"CDO_TIMEOUT", "-1s"},
		{"CDO_RATE_LIMIT", "0"},
		{"CDO_MAX_CITIES", "-3"},
		{"STATION_DIGEST_SIZE", "0"},
		{"CPC_DAILY_URL_TEMPLATE", "https://example.com/tmax.nc"},
		{"OPENDAP_TIMEOUT", "x"},
		{"MAP_WIDTH", "-10"},
		{"MAP_DPI", "0"},
		{"MAP_SCALE", "log"},
		{"MAP_CITY_MARKERS", "maybe"},
		{"TARGET_DATE", "yesterday"},
		{"DRY_RUN", "yes please"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_ReportsAllErrors(t *testing.T) {
	t.Setenv("CDO_PAGE_SIZE", "0")
	t.Setenv("MAP_SCALE", "log")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CDO_PAGE_SIZE")
	assert.Contains(t, err.Error(), "MAP_SCALE")
}
