// Package playlist streams an M3U-family playlist into one catalog
// generation: channels, channel groups, providers and media entries. Parsing
// is line oriented and stateful; directive lines accumulate into a pending
// entry that the next plain URL line finalizes.
package playlist

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/snapetech/iptvcatalog/internal/catalog"
	"github.com/snapetech/iptvcatalog/internal/config"
)

// cacheFilename is the cache key handed to the content fetcher.
const cacheFilename = "playlist.m3u.cache"

var (
	// ErrNoLocation means no playlist location is configured.
	ErrNoLocation = errors.New("playlist location not configured")
	// ErrSourceUnavailable means the playlist could not be fetched or was empty.
	ErrSourceUnavailable = errors.New("playlist source unavailable")
)

// ContentFetcher returns the raw playlist text for a location, optionally
// serving a cached copy stored under cacheKey.
type ContentFetcher interface {
	Contents(cacheKey, location string, useCache bool) (string, error)
}

// Notifier receives one signal per catalog that changed after a successful
// reload.
type Notifier interface {
	ChannelsChanged()
	ChannelGroupsChanged()
	ProvidersChanged()
	MediaChanged()
}

// Catalogs bundles the four stores one load populates.
type Catalogs struct {
	Channels  *catalog.Channels
	Groups    *catalog.Groups
	Providers *catalog.Providers
	Media     *catalog.Media
}

// parseState tracks where the loader is in the playlist text.
type parseState int

const (
	stateAwaitingHeader parseState = iota // before the first non-empty line
	stateBody                             // accumulating directive lines
)

// entryKind is the classification decided at finalization.
type entryKind int

const (
	entryChannel entryKind = iota
	entryMedia
)

// entry is the accumulator filled across consecutive directive lines until a
// URL line finalizes it.
type entry struct {
	channel   catalog.Channel
	media     catalog.MediaEntry
	groupIDs  []int
	hadGroups bool
	realTime  bool
	mediaLine bool
	started   bool

	// catchupSource is the per-line value with the header fallback applied;
	// the channel's stored field deliberately keeps the raw per-line value.
	catchupSource string
}

// headerDefaults are the fallback values parsed once from the #EXTM3U line.
type headerDefaults struct {
	catchup       string
	catchupDays   string
	catchupSource string
}

// Stats summarizes one load.
type Stats struct {
	Channels  int
	Groups    int
	Providers int
	Media     int
	Elapsed   time.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("%d channels, %d groups, %d providers, %d media in %s",
		s.Channels, s.Groups, s.Providers, s.Media, s.Elapsed.Round(time.Millisecond))
}

// Loader parses the playlist into the catalog stores and drives full-catalog
// reloads.
type Loader struct {
	cfg    *config.Config
	fetch  ContentFetcher
	notify Notifier

	channels  *catalog.Channels
	groups    *catalog.Groups
	providers *catalog.Providers
	media     *catalog.Media

	// Per-load session defaults, reset at the start of every Load.
	header         headerDefaults
	epgURL         string
	xeevCatchup    bool
	epgShiftSecs   int
	correctionSecs int
}

// NewLoader wires a loader to its config, fetcher and catalog stores. notify
// may be nil when nobody listens for catalog-changed signals.
func NewLoader(cfg *config.Config, fetch ContentFetcher, notify Notifier, cats Catalogs) *Loader {
	return &Loader{
		cfg:       cfg,
		fetch:     fetch,
		notify:    notify,
		channels:  cats.Channels,
		groups:    cats.Groups,
		providers: cats.Providers,
		media:     cats.Media,
	}
}

// EPGURL returns the guide URL announced by the playlist header, if any.
func (l *Loader) EPGURL() string { return l.epgURL }

// Load fetches the playlist and parses it into the catalog stores. An empty
// parse result is not an error; a missing or empty source is.
func (l *Loader) Load() (Stats, error) {
	content, err := l.fetchContent()
	if err != nil {
		return Stats{}, err
	}
	return l.parse(content)
}

// fetchContent resolves the playlist text without touching the stores, so a
// failed fetch never costs the previous generation.
func (l *Loader) fetchContent() (string, error) {
	if l.cfg.M3ULocation == "" {
		return "", ErrNoLocation
	}

	// The cache would mask every refresh, so it is only honoured when
	// refreshing is off.
	useCache := l.cfg.UseM3UCache && l.cfg.RefreshMode == config.RefreshDisabled

	content, err := l.fetch.Contents(cacheFilename, l.cfg.M3ULocation, useCache)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, l.cfg.M3ULocation, err)
	}
	if content == "" {
		return "", fmt.Errorf("%w: %s: empty content", ErrSourceUnavailable, l.cfg.M3ULocation)
	}
	return content, nil
}

func (l *Loader) parse(content string) (Stats, error) {
	started := time.Now()

	l.header = headerDefaults{}
	l.epgURL = ""
	l.xeevCatchup = false
	l.epgShiftSecs = 0
	l.correctionSecs = l.cfg.CatchupCorrectionSecs

	state := stateAwaitingHeader
	cur := l.freshEntry()

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.Trim(sc.Text(), " \t\r\n")
		if line == "" {
			continue
		}

		if state == stateAwaitingHeader {
			state = stateBody
			line = strings.TrimPrefix(line, "\xEF\xBB\xBF")
			if strings.HasPrefix(line, startMarker) {
				l.parseHeader(line)
				continue
			}
			log.Printf("playlist: %q missing %s header on line 1, attempting to parse it anyway", l.cfg.M3ULocation, startMarker)
		}

		switch {
		case strings.HasPrefix(line, infoMarker):
			// Directives may precede the info line, so the accumulator is
			// only fully reset at finalization; here just the group list
			// clears and the playlist-order number is refreshed.
			cur.started = true
			cur.channel.Number = l.channels.CurrentNumber()
			cur.groupIDs = nil
			cur.mediaLine = strings.Contains(line, mediaMarker) ||
				strings.Contains(line, mediaDirMarker) ||
				strings.Contains(line, mediaSizeMarker)
			if groupNames := l.parseIntoChannel(line, cur); groupNames != "" {
				l.parseAndAddChannelGroups(groupNames, cur)
				cur.hadGroups = true
			}
		case strings.HasPrefix(line, kodiPropMarker):
			l.parseSingleProperty(line, kodiPropMarker, &cur.channel)
		case strings.HasPrefix(line, extVlcOptDashMarker):
			l.parseSingleProperty(line, extVlcOptDashMarker, &cur.channel)
		case strings.HasPrefix(line, extVlcOptMarker):
			l.parseSingleProperty(line, extVlcOptMarker, &cur.channel)
		case strings.HasPrefix(line, groupMarker):
			if groupNames := ReadMarkerValue(line, groupMarker); groupNames != "" {
				l.parseAndAddChannelGroups(groupNames, cur)
				cur.hadGroups = true
			}
		case strings.HasPrefix(line, playlistTypeMarker):
			if ReadMarkerValue(line, playlistTypeMarker) == "VOD" {
				cur.realTime = false
			}
		case line[0] != '#':
			l.finalize(cur, line)
			cur = l.freshEntry()
		}
	}
	if err := sc.Err(); err != nil {
		return Stats{}, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, l.cfg.M3ULocation, err)
	}

	stats := Stats{
		Channels:  l.channels.Amount(),
		Groups:    l.groups.Amount(),
		Providers: l.providers.Amount(),
		Media:     l.media.Amount(),
		Elapsed:   time.Since(started),
	}
	if stats.Channels == 0 && stats.Media == 0 {
		// An empty playlist parses fine, it is just not very useful.
		log.Printf("playlist: no channels or media loaded from %q", l.cfg.M3ULocation)
	}
	log.Printf("playlist: loaded %s", stats)
	return stats, nil
}

// freshEntry returns a reset accumulator with the playlist-order channel
// number preset.
func (l *Loader) freshEntry() *entry {
	e := &entry{realTime: true}
	e.channel.Number = l.channels.CurrentNumber()
	return e
}

// parseHeader reads the #EXTM3U line's session defaults.
func (l *Loader) parseHeader(line string) {
	if v := ReadMarkerValue(line, tvgShiftMarker); v != "" {
		l.epgShiftSecs = int(atofLoose(v) * 3600.0)
	}
	if v := ReadMarkerValue(line, catchupCorrectionMarker); v != "" {
		l.correctionSecs = int(atofLoose(v) * 3600.0)
	}

	l.header.catchup = ReadMarkerValue(line, catchupMarker)
	// xeev announces its shorthand name-prefix convention this way.
	if l.header.catchup == "xc" {
		l.xeevCatchup = true
	}
	if l.header.catchup == "" {
		l.header.catchup = ReadMarkerValue(line, catchupTypeMarker)
	}
	l.header.catchupDays = ReadMarkerValue(line, catchupDaysMarker)
	l.header.catchupSource = ReadMarkerValue(line, catchupSourceMarker)

	epgURL := ReadMarkerValue(line, tvgURLMarker)
	if epgURL == "" {
		epgURL = ReadMarkerValue(line, tvgURLOtherMarker)
	}
	l.epgURL = epgURL
}

// finalize classifies the accumulated entry and hands it to its store. An
// entry is media when its info line carried a media marker, or when it was
// flagged VOD and the media-as-recordings policy is on; everything else is a
// channel.
func (l *Loader) finalize(e *entry, streamURL string) {
	if !e.started {
		return
	}

	kind := entryChannel
	if e.mediaLine || (!e.realTime && l.cfg.MediaEnabled && l.cfg.VODAsRecordings) {
		kind = entryMedia
	}

	switch kind {
	case entryChannel:
		e.channel.SetProperty(propRealTimeStream, "true")
		e.channel.StreamURL = streamURL
		if !l.channels.Add(e.channel, e.groupIDs, l.groups, e.hadGroups) {
			log.Printf("playlist: not adding channel %q, rejected by grouping policy or duplicate", e.channel.Name)
		}
	case entryMedia:
		e.media.UpdateFrom(e.channel)
		e.media.StreamURL = streamURL
		if !l.media.Add(e.media) {
			log.Printf("playlist: not adding media entry %q, an entry with the same derived id already exists", e.media.Name)
		}
	}
}

// Reload replaces the current catalog generation with a fresh parse. The
// source is fetched before anything is cleared: when it is unreachable the
// prior generation stays intact and only the channel and group stores are
// flagged as load-failed. On success the per-catalog changed signals fire.
func (l *Loader) Reload() bool {
	content, err := l.fetchContent()
	if err != nil {
		log.Printf("playlist: reload failed: %v", err)
		l.channels.MarkLoadFailed()
		l.groups.MarkLoadFailed()
		return false
	}

	l.channels.Clear()
	l.groups.Clear()
	l.providers.Clear()
	l.media.Clear()

	if _, err := l.parse(content); err != nil {
		log.Printf("playlist: reload failed: %v", err)
		l.channels.MarkLoadFailed()
		l.groups.MarkLoadFailed()
		return false
	}

	if l.notify != nil {
		l.notify.ChannelsChanged()
		l.notify.ChannelGroupsChanged()
		l.notify.ProvidersChanged()
		l.notify.MediaChanged()
	}
	return true
}
