package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/kevinhicks7/noaa-api/internal/domain"
)

// Config holds all settings for both pipelines, populated from environment
// variables. Credentials may be empty here; the components that need them
// return a *domain.MissingCredentialError instead.
type Config struct {
	LogLevel       string
	LogFormat      string
	DryRun         bool
	TargetDate     time.Time // zero means yesterday
	PushgatewayURL string

	// NOAA Climate Data Online.
	NOAAToken           string
	CDOBaseURL          string
	CDOPageSize         int
	CDOTimeout          time.Duration
	CDORateLimit        float64
	CDOLocationCategory string
	CDOCountryPrefix    string
	CDODataset          string
	CDOMaxCities        int
	StationDigestPost   bool
	StationDigestSize   int

	// CPC gridded temperature over OPeNDAP.
	CPCDailyURLTemplate string
	CPCClimatologyURL   string
	OPeNDAPTimeout      time.Duration

	// Map rendering.
	MapOutput        string
	MapWidth         int
	MapHeight        int
	MapDPI           float64
	MapScale         string
	MapCityMarkers   bool
	MapCityLabels    bool
	MapCitiesFile    string
	MapLakesGeoJSON  string
	MapCoastGeoJSON  string
	MapBorderGeoJSON string
	MapStatesGeoJSON string

	// Bluesky.
	BskyHost     string
	BskyHandle   string
	BskyPassword string
	BskyTimeout  time.Duration

	// Optional Kafka sink for fetched station records.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaStationsTopic string
}

// Load reads configuration from environment variables (optionally .env),
// applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	var errs []error
	p := parser{errs: &errs}

	cfg := &Config{
		LogLevel:       sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		DryRun:         p.boolean("DRY_RUN", false),
		PushgatewayURL: strings.TrimSpace(os.Getenv("PUSHGATEWAY_URL")),

		NOAAToken:           strings.TrimSpace(os.Getenv("NOAA_API")),
		CDOBaseURL:          strings.TrimRight(sharedcfg.EnvOrDefault("CDO_BASE_URL", "https://www.ncei.noaa.gov/cdo-web/api/v2"), "/"),
		CDOPageSize:         p.integer("CDO_PAGE_SIZE", 1000),
		CDOTimeout:          p.duration("CDO_TIMEOUT", 30*time.Second),
		CDORateLimit:        p.float("CDO_RATE_LIMIT", 5),
		CDOLocationCategory: sharedcfg.EnvOrDefault("CDO_LOCATION_CATEGORY", "CITY"),
		CDOCountryPrefix:    sharedcfg.EnvOrDefault("CDO_COUNTRY_PREFIX", "CITY:US"),
		CDODataset:          sharedcfg.EnvOrDefault("CDO_DATASET", "GHCND"),
		CDOMaxCities:        p.integer("CDO_MAX_CITIES", 25),
		StationDigestPost:   p.boolean("STATION_DIGEST_POST", false),
		StationDigestSize:   p.integer("STATION_DIGEST_SIZE", 5),

		CPCDailyURLTemplate: sharedcfg.EnvOrDefault("CPC_DAILY_URL_TEMPLATE", "https://psl.noaa.gov/thredds/dodsC/Datasets/cpc_global_temp/tmax.%d.nc"),
		CPCClimatologyURL:   sharedcfg.EnvOrDefault("CPC_CLIMATOLOGY_URL", "https://psl.noaa.gov/thredds/dodsC/Datasets/cpc_global_temp/tmax.day.ltm.1981-2010.nc"),
		OPeNDAPTimeout:      p.duration("OPENDAP_TIMEOUT", 5*time.Minute),

		MapOutput:        sharedcfg.EnvOrDefault("MAP_OUTPUT", "tmax_anomaly.png"),
		MapWidth:         p.integer("MAP_WIDTH", 2930),
		MapHeight:        p.integer("MAP_HEIGHT", 1748),
		MapDPI:           p.float("MAP_DPI", 300),
		MapScale:         sharedcfg.EnvOrDefault("MAP_SCALE", "fixed"),
		MapCityMarkers:   p.boolean("MAP_CITY_MARKERS", true),
		MapCityLabels:    p.boolean("MAP_CITY_LABELS", true),
		MapCitiesFile:    os.Getenv("MAP_CITIES_FILE"),
		MapLakesGeoJSON:  os.Getenv("MAP_LAKES_GEOJSON"),
		MapCoastGeoJSON:  os.Getenv("MAP_COASTLINES_GEOJSON"),
		MapBorderGeoJSON: os.Getenv("MAP_BORDERS_GEOJSON"),
		MapStatesGeoJSON: os.Getenv("MAP_STATES_GEOJSON"),

		BskyHost:     strings.TrimRight(sharedcfg.EnvOrDefault("BSKY_HOST", "https://bsky.social"), "/"),
		BskyHandle:   sharedcfg.EnvOrDefault("BSKY_HANDLE", "us-climate-bot.bsky.social"),
		BskyPassword: os.Getenv("BSKY_CLIMATE_BOT_PW"),
		BskyTimeout:  p.duration("BSKY_TIMEOUT", 0),

		KafkaEnabled:       p.boolean("KAFKA_ENABLED", false),
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaStationsTopic: sharedcfg.EnvOrDefault("KAFKA_STATIONS_TOPIC", "noaa-stations"),
	}

	if v := strings.TrimSpace(os.Getenv("TARGET_DATE")); v != "" {
		d, err := domain.ParseDate(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid TARGET_DATE: %w", err))
		}
		cfg.TargetDate = d
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	if c.CDOPageSize < 1 || c.CDOPageSize > 1000 {
		errs = append(errs, errors.New("CDO_PAGE_SIZE must be between 1 and 1000"))
	}
	if c.CDORateLimit <= 0 {
		errs = append(errs, errors.New("CDO_RATE_LIMIT must be positive"))
	}
	if c.CDOMaxCities < 0 {
		errs = append(errs, errors.New("CDO_MAX_CITIES must not be negative"))
	}
	if c.StationDigestSize < 1 {
		errs = append(errs, errors.New("STATION_DIGEST_SIZE must be positive"))
	}
	if !strings.Contains(c.CPCDailyURLTemplate, "%d") {
		errs = append(errs, errors.New("CPC_DAILY_URL_TEMPLATE must contain %d for the year"))
	}
	if c.MapWidth <= 0 || c.MapHeight <= 0 {
		errs = append(errs, errors.New("MAP_WIDTH and MAP_HEIGHT must be positive"))
	}
	if c.MapDPI <= 0 {
		errs = append(errs, errors.New("MAP_DPI must be positive"))
	}
	if c.MapScale != "fixed" && c.MapScale != "data" {
		errs = append(errs, fmt.Errorf("MAP_SCALE must be fixed or data, got %q", c.MapScale))
	}
	if c.MapOutput == "" {
		errs = append(errs, errors.New("MAP_OUTPUT is required"))
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty"))
	}
	if c.KafkaEnabled && c.KafkaStationsTopic == "" {
		errs = append(errs, errors.New("KAFKA_STATIONS_TOPIC is required"))
	}
	return errs
}

// parser collects typed env lookups so every invalid variable is reported at once.
type parser struct {
	errs *[]error
}

func (p parser) lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func (p parser) integer(key string, def int) int {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return n
}

func (p parser) float(key string, def float64) float64 {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return f
}

// duration accepts "0" to disable a timeout.
func (p parser) duration(key string, def time.Duration) time.Duration {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		*p.errs = append(*p.errs, fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return d
}

func (p parser) boolean(key string, def bool) bool {
	v, ok := p.lookup(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("invalid %s: %q", key, v))
		return def
	}
	return b
}
