package catchup

import (
	"fmt"
	"testing"
	"time"

	"github.com/snapetech/iptvcatalog/internal/catalog"
	"github.com/snapetech/iptvcatalog/internal/config"
	"github.com/snapetech/iptvcatalog/internal/epg"
)

var testNow = time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func testController(cfg *config.Config, guide epg.Source) *Controller {
	if cfg == nil {
		cfg = &config.Config{CatchupEnabled: true}
	}
	return NewController(cfg, guide, fixedNow)
}

func defaultChannel() catalog.Channel {
	return catalog.Channel{
		ID:          7,
		Name:        "Test",
		HasCatchup:  true,
		CatchupMode: catalog.CatchupDefault,
		CatchupDays: 2,
		StreamURL:   "http://host/stream",
	}
}

func TestEligibilityWindow(t *testing.T) {
	c := testController(nil, nil)
	ch := defaultChannel()

	start := testNow.Add(-24 * time.Hour)
	if !c.Eligible(ch, start, start.Add(time.Hour)) {
		t.Error("programme one day old inside a two day window must be playable")
	}

	start = testNow.Add(-3 * 24 * time.Hour)
	if c.Eligible(ch, start, start.Add(time.Hour)) {
		t.Error("programme three days old outside a two day window must not be playable")
	}

	start = testNow.Add(time.Hour)
	if c.Eligible(ch, start, start.Add(time.Hour)) {
		t.Error("future programme must not be playable")
	}
}

func TestEligibilityPolicies(t *testing.T) {
	ch := defaultChannel()
	start := testNow.Add(-30 * time.Minute)
	end := testNow.Add(30 * time.Minute)

	c := testController(&config.Config{CatchupEnabled: false}, nil)
	if c.Eligible(ch, start, end) {
		t.Error("catchup disabled globally must never be playable")
	}

	c = testController(&config.Config{CatchupEnabled: true, CatchupOnlyFinished: true}, nil)
	if c.Eligible(ch, start, end) {
		t.Error("running programme must not be playable under only-finished policy")
	}
	if !c.Eligible(ch, testNow.Add(-2*time.Hour), testNow.Add(-time.Hour)) {
		t.Error("finished programme must be playable under only-finished policy")
	}

	ch.HasCatchup = false
	c = testController(nil, nil)
	if c.Eligible(ch, start, end) {
		t.Error("channel without catchup must not be playable")
	}
}

func TestEligibilityIgnoreDaysNeedsCatchupID(t *testing.T) {
	ch := defaultChannel()
	ch.CatchupMode = catalog.CatchupVOD
	ch.CatchupDays = catalog.IgnoreCatchupDays

	// way outside any window; only the guide's catchup id matters
	start := testNow.Add(-365 * 24 * time.Hour)
	end := start.Add(time.Hour)

	guide := epg.NewMemory()
	c := testController(nil, guide)
	if c.Eligible(ch, start, end) {
		t.Error("no guide entry, must not be playable")
	}

	guide.Add(epg.Entry{ChannelID: ch.ID, Start: start, End: end, CatchupID: "vod-123"})
	if !c.Eligible(ch, start, end) {
		t.Error("guide entry with catchup id must be playable regardless of age")
	}
}

func TestDefaultModeURL(t *testing.T) {
	c := testController(nil, nil)
	ch := defaultChannel()
	start := testNow.Add(-2 * time.Hour)
	end := start.Add(time.Hour)

	res := c.ProcessEPGTagForPlayback(ch, start, end)
	if !res.Playable {
		t.Fatal("expected playable")
	}
	want := fmt.Sprintf("http://host/stream?utc=%d&lutc=%d", start.Unix(), testNow.Unix())
	if res.URL != want {
		t.Errorf("URL = %q, want %q", res.URL, want)
	}
}

func TestDefaultModeTemplate(t *testing.T) {
	c := testController(nil, nil)
	ch := defaultChannel()
	ch.CatchupSource = "http://archive/play?begin={utc}&len={duration}&off={offset}"
	start := testNow.Add(-2 * time.Hour)
	end := start.Add(time.Hour)

	res := c.ProcessEPGTagForPlayback(ch, start, end)
	want := fmt.Sprintf("http://archive/play?begin=%d&len=3600&off=%d", start.Unix(), testNow.Unix()-start.Unix())
	if res.URL != want {
		t.Errorf("URL = %q, want %q", res.URL, want)
	}
}

func TestAppendMode(t *testing.T) {
	c := testController(nil, nil)
	ch := defaultChannel()
	ch.CatchupMode = catalog.CatchupAppend
	ch.CatchupSource = "&cutv=${start}"
	start := testNow.Add(-2 * time.Hour)

	res := c.ProcessEPGTagForPlayback(ch, start, start.Add(time.Hour))
	want := fmt.Sprintf("http://host/stream&cutv=%d", start.Unix())
	if res.URL != want {
		t.Errorf("URL = %q, want %q", res.URL, want)
	}
}

func TestShiftModeQuerySeparator(t *testing.T) {
	c := testController(nil, nil)
	ch := defaultChannel()
	ch.CatchupMode = catalog.CatchupShift
	ch.StreamURL = "http://host/stream?token=abc"
	start := testNow.Add(-2 * time.Hour)

	res := c.ProcessEPGTagForPlayback(ch, start, start.Add(time.Hour))
	want := fmt.Sprintf("http://host/stream?token=abc&utc=%d&lutc=%d", start.Unix(), testNow.Unix())
	if res.URL != want {
		t.Errorf("URL = %q, want %q", res.URL, want)
	}
}

func TestCorrectionAppliesToStart(t *testing.T) {
	c := testController(nil, nil)
	ch := defaultChannel()
	ch.CatchupCorrectionSecs = 3600
	start := testNow.Add(-4 * time.Hour)

	res := c.ProcessEPGTagForPlayback(ch, start, start.Add(time.Hour))
	want := fmt.Sprintf("http://host/stream?utc=%d&lutc=%d", start.Unix()+3600, testNow.Unix())
	if res.URL != want {
		t.Errorf("URL = %q, want %q", res.URL, want)
	}
}

func TestFlussonicURLs(t *testing.T) {
	c := testController(nil, nil)
	ch := defaultChannel()
	ch.CatchupMode = catalog.CatchupFlussonic
	ch.StreamURL = "http://host/ch1/index.m3u8"
	start := testNow.Add(-2 * time.Hour)

	res := c.ProcessEPGTagForPlayback(ch, start, start.Add(time.Hour))
	want := fmt.Sprintf("http://host/ch1/video-%d-3600.m3u8", start.Unix())
	if res.URL != want {
		t.Errorf("hls URL = %q, want %q", res.URL, want)
	}

	ch.CatchupTSStream = true
	res = c.ProcessEPGTagForPlayback(ch, start, start.Add(time.Hour))
	want = fmt.Sprintf("http://host/ch1/timeshift_abs-%d.ts", start.Unix())
	if res.URL != want {
		t.Errorf("ts URL = %q, want %q", res.URL, want)
	}
}

func TestXtreamCodesURL(t *testing.T) {
	c := testController(nil, nil)
	ch := defaultChannel()
	ch.CatchupMode = catalog.CatchupXtreamCodes
	ch.StreamURL = "http://host:8080/live/user/pass/123.m3u8"
	start := testNow.Add(-2 * time.Hour)

	res := c.ProcessEPGTagForPlayback(ch, start, start.Add(90*time.Minute))
	stamp := start.UTC().Format("2006-01-02:15-04")
	want := fmt.Sprintf("http://host:8080/timeshift/user/pass/90/%s/123.m3u8", stamp)
	if res.URL != want {
		t.Errorf("URL = %q, want %q", res.URL, want)
	}
}

func TestXtreamCodesUsesGuideCatchupID(t *testing.T) {
	ch := defaultChannel()
	ch.CatchupMode = catalog.CatchupXtreamCodes
	ch.StreamURL = "http://host/user/pass/123"
	start := testNow.Add(-2 * time.Hour)
	end := start.Add(time.Hour)

	guide := epg.NewMemory()
	guide.Add(epg.Entry{ChannelID: ch.ID, Start: start, End: end, CatchupID: "999"})
	c := testController(nil, guide)

	res := c.ProcessEPGTagForPlayback(ch, start, end)
	stamp := start.UTC().Format("2006-01-02:15-04")
	want := fmt.Sprintf("http://host/timeshift/user/pass/60/%s/999.ts", stamp)
	if res.URL != want {
		t.Errorf("URL = %q, want %q", res.URL, want)
	}
}

func TestVODModeResolvesFromCatchupID(t *testing.T) {
	ch := defaultChannel()
	ch.CatchupMode = catalog.CatchupVOD
	ch.CatchupDays = catalog.IgnoreCatchupDays
	start := testNow.Add(-100 * 24 * time.Hour)
	end := start.Add(2 * time.Hour)

	guide := epg.NewMemory()
	guide.Add(epg.Entry{ChannelID: ch.ID, Start: start, End: end, CatchupID: "http://vod/movie.mp4"})
	c := testController(nil, guide)

	res := c.ProcessEPGTagForPlayback(ch, start, end)
	if !res.Playable || res.URL != "http://vod/movie.mp4" {
		t.Errorf("resolution = %+v, want the catchup id URL", res)
	}
}

func TestPlayAsLiveExtendsWindow(t *testing.T) {
	cfg := &config.Config{CatchupEnabled: true, CatchupPlayEpgAsLive: true}
	c := testController(cfg, nil)
	ch := defaultChannel()
	ch.CatchupMode = catalog.CatchupFlussonic
	ch.StreamURL = "http://host/ch1/index.m3u8"
	start := testNow.Add(-2 * time.Hour)

	// the live-anchored window runs from the tag start to now
	res := c.ProcessEPGTagForPlayback(ch, start, start.Add(time.Hour))
	want := fmt.Sprintf("http://host/ch1/video-%d-7200.m3u8", start.Unix())
	if res.URL != want {
		t.Errorf("URL = %q, want %q", res.URL, want)
	}
}

func TestLivePlaybackUsesPlainStreamURL(t *testing.T) {
	c := testController(nil, nil)
	ch := defaultChannel()
	ch.Props = map[string]string{"inputstream": "inputstream.adaptive"}

	res := c.ProcessChannelForPlayback(ch)
	if !res.Playable || res.URL != ch.StreamURL {
		t.Errorf("live resolution = %+v", res)
	}
	if res.Props["inputstream"] != "inputstream.adaptive" {
		t.Errorf("props not carried: %v", res.Props)
	}
}

func TestStateResetBetweenAttempts(t *testing.T) {
	c := testController(nil, nil)
	ch := defaultChannel()
	start := testNow.Add(-2 * time.Hour)

	if res := c.ProcessEPGTagForPlayback(ch, start, start.Add(time.Hour)); !res.Playable {
		t.Fatal("tag attempt not playable")
	}
	c.ResetState()
	if c.state.active {
		t.Error("state survived reset")
	}

	// a fresh live attempt must not inherit the previous tag's window
	if res := c.ProcessChannelForPlayback(ch); res.URL != ch.StreamURL {
		t.Errorf("live URL after tag attempt = %q", res.URL)
	}
	if !c.state.start.IsZero() {
		t.Error("previous tag window leaked into the live attempt")
	}
}

func TestIneligibleReturnsNotPlayable(t *testing.T) {
	c := testController(nil, nil)
	ch := defaultChannel()
	start := testNow.Add(-10 * 24 * time.Hour)

	res := c.ProcessEPGTagForPlayback(ch, start, start.Add(time.Hour))
	if res.Playable || res.URL != "" {
		t.Errorf("resolution = %+v, want not playable", res)
	}
}
