package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.RefreshMode != RefreshDisabled {
		t.Errorf("RefreshMode = %v, want disabled", cfg.RefreshMode)
	}
	if cfg.CatchupDays != 3 || cfg.StartChannelNumber != 1 {
		t.Errorf("defaults: days %d start %d", cfg.CatchupDays, cfg.StartChannelNumber)
	}
	if cfg.TickInterval != 10*time.Second {
		t.Errorf("TickInterval = %v", cfg.TickInterval)
	}
	if !cfg.MediaEnabled || !cfg.VODAsRecordings {
		t.Error("media defaults should be enabled")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IPTV_CATALOG_M3U_LOCATION", "http://example.com/playlist.m3u")
	t.Setenv("IPTV_CATALOG_REFRESH_MODE", "interval")
	t.Setenv("IPTV_CATALOG_REFRESH_INTERVAL_MINS", "15")
	t.Setenv("IPTV_CATALOG_CATCHUP_ENABLED", "true")
	t.Setenv("IPTV_CATALOG_TV_GROUP_MODE", "allowlist")
	t.Setenv("IPTV_CATALOG_TV_GROUPS", "News, Sports")
	t.Setenv("IPTV_CATALOG_TICK_INTERVAL", "2s")

	cfg := Load()
	if cfg.M3ULocation != "http://example.com/playlist.m3u" {
		t.Errorf("M3ULocation = %q", cfg.M3ULocation)
	}
	if cfg.RefreshMode != RefreshRepeated || cfg.RefreshIntervalMins != 15 {
		t.Errorf("refresh = %v/%d", cfg.RefreshMode, cfg.RefreshIntervalMins)
	}
	if !cfg.CatchupEnabled {
		t.Error("CatchupEnabled not read")
	}
	if cfg.TVGroupFilter != GroupFilterAllowlist {
		t.Errorf("TVGroupFilter = %v", cfg.TVGroupFilter)
	}
	if len(cfg.TVGroupList) != 2 || cfg.TVGroupList[1] != "Sports" {
		t.Errorf("TVGroupList = %v", cfg.TVGroupList)
	}
	if cfg.TickInterval != 2*time.Second {
		t.Errorf("TickInterval = %v", cfg.TickInterval)
	}
}

func TestLoadClampsBadValues(t *testing.T) {
	t.Setenv("IPTV_CATALOG_REFRESH_INTERVAL_MINS", "-5")
	t.Setenv("IPTV_CATALOG_REFRESH_HOUR", "99")
	t.Setenv("IPTV_CATALOG_START_NUMBER", "0")

	cfg := Load()
	if cfg.RefreshIntervalMins != 60 || cfg.RefreshHour != 4 || cfg.StartChannelNumber != 1 {
		t.Errorf("clamps: interval %d hour %d start %d", cfg.RefreshIntervalMins, cfg.RefreshHour, cfg.StartChannelNumber)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nIPTV_TEST_KEY=plain\nIPTV_TEST_QUOTED=\"with spaces\"\n\nbroken-line\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("IPTV_TEST_KEY", "")
	t.Setenv("IPTV_TEST_QUOTED", "")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if got := os.Getenv("IPTV_TEST_KEY"); got != "plain" {
		t.Errorf("IPTV_TEST_KEY = %q", got)
	}
	if got := os.Getenv("IPTV_TEST_QUOTED"); got != "with spaces" {
		t.Errorf("IPTV_TEST_QUOTED = %q", got)
	}
}

func TestParseEnvLine(t *testing.T) {
	cases := []struct {
		line       string
		key, value string
		ok         bool
	}{
		{"IPTV_CATALOG_M3U_LOCATION=http://example.com/a.m3u", "IPTV_CATALOG_M3U_LOCATION", "http://example.com/a.m3u", true},
		{"  KEY = 'quoted value' ", "KEY", "quoted value", true},
		{"# IPTV_CATALOG_CACHE_DIR=/tmp", "", "", false},
		{"no-equals-here", "", "", false},
		{"=orphan-value", "", "", false},
		{"", "", "", false},
	}
	for _, c := range cases {
		key, value, ok := parseEnvLine(c.line)
		if key != c.key || value != c.value || ok != c.ok {
			t.Errorf("parseEnvLine(%q) = %q/%q/%v, want %q/%q/%v", c.line, key, value, ok, c.key, c.value, c.ok)
		}
	}
}

func TestLoadEnvFileMissingIsFine(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("missing env file should not error: %v", err)
	}
}
