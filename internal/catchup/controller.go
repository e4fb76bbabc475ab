// Package catchup resolves time-shifted replay URLs. Given a channel's
// catchup mode and template plus a requested time window, it decides whether
// replay applies and computes the concrete playback URL and its auxiliary
// stream properties.
package catchup

import (
	"sync"
	"time"

	"github.com/snapetech/iptvcatalog/internal/catalog"
	"github.com/snapetech/iptvcatalog/internal/config"
	"github.com/snapetech/iptvcatalog/internal/epg"
)

// Resolution is the outcome of one playback request. Playable false means no
// catchup applies and the caller falls back to the plain stream URL.
type Resolution struct {
	Playable bool
	URL      string
	Props    map[string]string
}

// playbackState is what one playback attempt remembers between resolution
// and any follow-up queries. It must never leak into the next attempt.
type playbackState struct {
	active     bool
	start      time.Time
	end        time.Time
	catchupID  string
	playAsLive bool
}

// Controller is the stateful resolver. Call ResetState (or one of the
// Process methods, which reset implicitly) at the start of every independent
// playback attempt.
type Controller struct {
	cfg   *config.Config
	guide epg.Source
	now   func() time.Time

	mu    sync.Mutex
	state playbackState
}

// NewController wires the resolver to its config and guide source. guide may
// be nil when no EPG is available; nowFn defaults to time.Now.
func NewController(cfg *config.Config, guide epg.Source, nowFn func() time.Time) *Controller {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Controller{cfg: cfg, guide: guide, now: nowFn}
}

// ResetState clears any state left over from a previous playback attempt.
func (c *Controller) ResetState() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = playbackState{}
}

// ProcessChannelForPlayback prepares live playback of a channel. Live
// playback always resolves to the plain stream URL; the call exists to reset
// and seed the per-attempt state.
func (c *Controller) ProcessChannelForPlayback(ch catalog.Channel) Resolution {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = playbackState{active: true}
	return Resolution{Playable: true, URL: ch.StreamURL, Props: cloneProps(ch.Props)}
}

// ProcessEPGTagForPlayback resolves replay of the programme in [start, end)
// on the channel. When the play-as-live policy applies and the channel's mode
// can anchor a live-style stream in the past, the produced URL is anchored at
// the tag's start with a live window; otherwise it covers the tag only.
func (c *Controller) ProcessEPGTagForPlayback(ch catalog.Channel, start, end time.Time) Resolution {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = playbackState{}

	catchupID, ok := c.eligible(ch, start, end)
	if !ok {
		return Resolution{}
	}

	playAsLive := c.cfg.CatchupPlayEpgAsLive && ch.SupportsLiveTimeshift()
	c.state = playbackState{active: true, start: start, end: end, catchupID: catchupID, playAsLive: playAsLive}

	windowEnd := end
	if playAsLive {
		windowEnd = c.now()
	}
	url := c.catchupURL(ch, start, windowEnd, catchupID)
	if url == "" {
		return Resolution{}
	}
	return Resolution{Playable: true, URL: url, Props: cloneProps(ch.Props)}
}

// Eligible reports whether the programme in [start, end) is replayable on
// the channel right now. Exposed for guide listings that flag playable
// entries without resolving a URL.
func (c *Controller) Eligible(ch catalog.Channel, start, end time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.eligible(ch, start, end)
	return ok
}

// eligible also returns the guide's catchup id for the programme when one is
// known. Caller holds c.mu.
func (c *Controller) eligible(ch catalog.Channel, start, end time.Time) (string, bool) {
	if !c.cfg.CatchupEnabled || !ch.HasCatchup {
		return "", false
	}

	if ch.IgnoreDays() {
		// No age window: anything the guide has a catchup id for plays.
		if c.guide == nil {
			return "", false
		}
		entry, ok := c.guide.EntryAt(ch.ID, start)
		if !ok || entry.CatchupID == "" {
			return "", false
		}
		return entry.CatchupID, true
	}

	now := c.now()
	window := time.Duration(ch.CatchupDaysInSeconds()) * time.Second
	if start.Before(now.Add(-window)) || !start.Before(now) {
		return "", false
	}
	if c.cfg.CatchupOnlyFinished && !end.Before(now) {
		return "", false
	}

	if c.guide != nil {
		if entry, ok := c.guide.EntryAt(ch.ID, start); ok {
			return entry.CatchupID, true
		}
	}
	return "", true
}

func cloneProps(props map[string]string) map[string]string {
	out := make(map[string]string, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
