package shared

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	DataPath string
	WebRoot  string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	Provider string // google | osm
	Language string

	GoogleBase   string
	GoogleKey    string
	TextDelay    time.Duration
	DetailsDelay time.Duration
	PhotoDelay   time.Duration
	PageDelay    time.Duration
	MaxPages     int // 0 = unlimited

	NominatimBase string
	OverpassBase  string
	OSMDelay      time.Duration
	OverpassCap   int

	UserAgent string
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	ms := func(k string, def int) time.Duration {
		return time.Duration(atoi(k, def)) * time.Millisecond
	}
	return Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),

		DataPath: env("DATA_PATH", "src/data/cities.json"),
		WebRoot:  env("WEB_ROOT", "."),

		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,

		Provider: strings.ToLower(env("PLACES_PROVIDER", "google")),
		Language: env("PLACES_LANGUAGE", "fr"),

		GoogleBase:   env("GOOGLE_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		GoogleKey:    env("GOOGLE_API_KEY", ""),
		TextDelay:    ms("GOOGLE_TEXT_DELAY_MS", 1000),
		DetailsDelay: ms("GOOGLE_DETAILS_DELAY_MS", 1000),
		PhotoDelay:   ms("GOOGLE_PHOTO_DELAY_MS", 1500),
		PageDelay:    ms("GOOGLE_PAGE_DELAY_MS", 2000),
		MaxPages:     maxPages(os.Getenv("GOOGLE_MAX_PAGES"), 3),

		NominatimBase: env("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		OverpassBase:  env("OVERPASS_BASE_URL", "https://overpass-api.de/api/interpreter"),
		OSMDelay:      ms("OSM_DELAY_MS", 1000),
		OverpassCap:   atoi("OVERPASS_MAX_RESULTS", 60),

		UserAgent: env("SYNC_USER_AGENT", "escapedia-sync/1.0 (+github.com/matteolefer/escapedia)"),
	}
}

// maxPages parses the text-search page cap; a handful of spellings
// mean "no cap" and map to zero.
func maxPages(raw string, def int) int {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return def
	}
	switch s {
	case "0", "all", "inf", "infinite", "infinity", "unlimited":
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
