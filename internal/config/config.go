package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RefreshMode selects how the playlist is re-fetched after the initial load.
type RefreshMode int

const (
	RefreshDisabled   RefreshMode = iota // load once, never refresh
	RefreshRepeated                      // every RefreshIntervalMins
	RefreshOncePerDay                    // when the wall clock enters RefreshHour
)

// GroupFilter is the allow/deny policy applied to channel group names.
type GroupFilter int

const (
	GroupFilterAll GroupFilter = iota
	GroupFilterAllowlist
	GroupFilterBlocklist
)

// Config holds catalog + catchup + refresh settings.
// Load from env and/or a .env file (see LoadEnvFile).
type Config struct {
	// Playlist source: an http(s) URL or a local file path.
	M3ULocation string
	CacheDir    string // e.g. /var/cache/iptvcatalog
	UseM3UCache bool   // only honoured when RefreshMode is disabled
	LogoBaseURL string // prefix for non-absolute tvg-logo values

	// Refresh
	RefreshMode         RefreshMode
	RefreshIntervalMins int
	RefreshHour         int           // 0-23, used by RefreshOncePerDay
	TickInterval        time.Duration // refresh poll granularity

	// Catchup
	CatchupEnabled        bool
	CatchupDays           int // default replay window when the playlist gives none
	CatchupCorrectionSecs int // default timestamp correction
	CatchupPlayEpgAsLive  bool
	CatchupOnlyFinished   bool // only completed programmes are replayable

	// Catalog policies
	DefaultProviderName    string
	TVGroupFilter          GroupFilter
	TVGroupList            []string
	RadioGroupFilter       GroupFilter
	RadioGroupList         []string
	OnlyChannelsWithGroups bool
	NumberByOrderOnly      bool // ignore tvg-chno / channel-number attributes
	StartChannelNumber     int

	// Media / VOD
	MediaEnabled    bool
	VODAsRecordings bool // classify VOD playlist entries as media

	// Collaborators
	EPGDBPath  string // sqlite programme store; "" disables EPG lookups
	ListenAddr string // health + metrics + resolve endpoint
}

// Load reads config from environment. Call LoadEnvFile(".env") first to use a
// .env file. Unset values get defaults that make a read-only local run work.
func Load() *Config {
	c := &Config{
		M3ULocation:            os.Getenv("IPTV_CATALOG_M3U_LOCATION"),
		CacheDir:               getEnv("IPTV_CATALOG_CACHE_DIR", "/var/cache/iptvcatalog"),
		UseM3UCache:            getEnvBool("IPTV_CATALOG_USE_CACHE", true),
		LogoBaseURL:            os.Getenv("IPTV_CATALOG_LOGO_BASE_URL"),
		RefreshMode:            getEnvRefreshMode("IPTV_CATALOG_REFRESH_MODE", RefreshDisabled),
		RefreshIntervalMins:    getEnvInt("IPTV_CATALOG_REFRESH_INTERVAL_MINS", 60),
		RefreshHour:            getEnvInt("IPTV_CATALOG_REFRESH_HOUR", 4),
		TickInterval:           getEnvDuration("IPTV_CATALOG_TICK_INTERVAL", 10*time.Second),
		CatchupEnabled:         getEnvBool("IPTV_CATALOG_CATCHUP_ENABLED", false),
		CatchupDays:            getEnvInt("IPTV_CATALOG_CATCHUP_DAYS", 3),
		CatchupCorrectionSecs:  getEnvInt("IPTV_CATALOG_CATCHUP_CORRECTION_SECS", 0),
		CatchupPlayEpgAsLive:   getEnvBool("IPTV_CATALOG_CATCHUP_PLAY_EPG_AS_LIVE", false),
		CatchupOnlyFinished:    getEnvBool("IPTV_CATALOG_CATCHUP_ONLY_FINISHED", false),
		DefaultProviderName:    os.Getenv("IPTV_CATALOG_DEFAULT_PROVIDER"),
		TVGroupFilter:          getEnvGroupFilter("IPTV_CATALOG_TV_GROUP_MODE"),
		TVGroupList:            getEnvList("IPTV_CATALOG_TV_GROUPS"),
		RadioGroupFilter:       getEnvGroupFilter("IPTV_CATALOG_RADIO_GROUP_MODE"),
		RadioGroupList:         getEnvList("IPTV_CATALOG_RADIO_GROUPS"),
		OnlyChannelsWithGroups: getEnvBool("IPTV_CATALOG_ONLY_GROUPED_CHANNELS", false),
		NumberByOrderOnly:      getEnvBool("IPTV_CATALOG_NUMBER_BY_ORDER_ONLY", false),
		StartChannelNumber:     getEnvInt("IPTV_CATALOG_START_NUMBER", 1),
		MediaEnabled:           getEnvBool("IPTV_CATALOG_MEDIA_ENABLED", true),
		VODAsRecordings:        getEnvBool("IPTV_CATALOG_VOD_AS_RECORDINGS", true),
		EPGDBPath:              os.Getenv("IPTV_CATALOG_EPG_DB"),
		ListenAddr:             getEnv("IPTV_CATALOG_LISTEN_ADDR", ":5006"),
	}
	if c.RefreshIntervalMins <= 0 {
		c.RefreshIntervalMins = 60
	}
	if c.RefreshHour < 0 || c.RefreshHour > 23 {
		c.RefreshHour = 4
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 10 * time.Second
	}
	if c.StartChannelNumber < 1 {
		c.StartChannelNumber = 1
	}
	return c
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, _ := strconv.Atoi(v)
		return n
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvRefreshMode maps "disabled" | "interval" | "daily" (plus aliases).
func getEnvRefreshMode(key string, defaultVal RefreshMode) RefreshMode {
	switch strings.TrimSpace(strings.ToLower(os.Getenv(key))) {
	case "disabled", "off", "none":
		return RefreshDisabled
	case "interval", "repeated":
		return RefreshRepeated
	case "daily", "once-per-day":
		return RefreshOncePerDay
	}
	return defaultVal
}

// getEnvGroupFilter maps "all" | "allowlist" | "blocklist" (plus aliases).
func getEnvGroupFilter(key string) GroupFilter {
	switch strings.TrimSpace(strings.ToLower(os.Getenv(key))) {
	case "allowlist", "allow", "whitelist":
		return GroupFilterAllowlist
	case "blocklist", "block", "blacklist":
		return GroupFilterBlocklist
	}
	return GroupFilterAll
}

// getEnvList splits a comma-separated env value, trimming blanks.
func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
