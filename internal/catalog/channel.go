// Package catalog holds one generation of the channel / group / provider /
// media catalog built from a playlist parse. A generation is replaced
// wholesale on reload; the stores are never mutated incrementally between
// loads.
package catalog

import "sync"

// CatchupMode classifies how a channel's time-shifted replay URL is built.
type CatchupMode int

const (
	CatchupDisabled CatchupMode = iota
	CatchupDefault
	CatchupAppend
	CatchupShift
	CatchupFlussonic
	CatchupXtreamCodes
	CatchupVOD
	CatchupTimeshift // legacy siptv timeshift="days" convention
)

func (m CatchupMode) String() string {
	switch m {
	case CatchupDefault:
		return "default"
	case CatchupAppend:
		return "append"
	case CatchupShift:
		return "shift"
	case CatchupFlussonic:
		return "flussonic"
	case CatchupXtreamCodes:
		return "xc"
	case CatchupVOD:
		return "vod"
	case CatchupTimeshift:
		return "timeshift"
	}
	return "disabled"
}

// IgnoreCatchupDays is the catchup-days sentinel meaning "no age limit":
// any programme with a catchup id is replayable regardless of how old it is.
const IgnoreCatchupDays = -1

// Channel is one live TV or radio channel parsed from the playlist.
type Channel struct {
	ID        int // stable id derived from name + stream URL
	TvgID     string
	TvgName   string
	Name      string
	Number    int
	SubNumber int
	Radio     bool
	IconPath  string

	// EPG shift in seconds (tvg-shift hours * 3600, or the header default).
	TvgShiftSecs int

	// Catchup fields; only meaningful when HasCatchup is true.
	HasCatchup            bool
	CatchupMode           CatchupMode
	CatchupSource         string // template as read from the playlist line
	CatchupDays           int
	CatchupCorrectionSecs int
	CatchupTSStream       bool // flussonic-ts / fs container variant

	ProviderID int // 0 = no provider

	// Props are arbitrary stream properties; last write wins per key.
	Props map[string]string

	StreamURL string
}

// SetProperty records a stream property, overwriting any prior value.
func (c *Channel) SetProperty(key, value string) {
	if c.Props == nil {
		c.Props = make(map[string]string)
	}
	c.Props[key] = value
}

// IgnoreDays reports whether the channel's replay window is unbounded.
func (c *Channel) IgnoreDays() bool { return c.CatchupDays == IgnoreCatchupDays }

// CatchupDaysInSeconds converts the replay window to seconds; 0 when unbounded.
func (c *Channel) CatchupDaysInSeconds() int {
	if c.CatchupDays <= 0 {
		return 0
	}
	return c.CatchupDays * 24 * 60 * 60
}

// SupportsLiveTimeshift reports whether the channel's catchup mode can anchor
// a live-style stream at an arbitrary past instant.
func (c *Channel) SupportsLiveTimeshift() bool {
	switch c.CatchupMode {
	case CatchupShift, CatchupTimeshift, CatchupFlussonic, CatchupXtreamCodes:
		return c.HasCatchup
	}
	return false
}

// channelID derives a stable channel id from identity fields. Same fold as
// media keys; masked positive so 0 stays "no channel".
func channelID(name, streamURL string) int {
	h := uint64(0)
	for _, c := range name {
		h = h*31 + uint64(c)
	}
	for _, c := range streamURL {
		h = h*31 + uint64(c)
	}
	id := int(h & 0x7fffffff)
	if id == 0 {
		id = 1
	}
	return id
}

// Channels is the channel store for one catalog generation.
type Channels struct {
	mu          sync.Mutex
	list        []Channel
	byID        map[int]int // channel id -> index into list
	nextNumber  int
	startNumber int
	onlyGrouped bool
	loadFailed  bool
}

// NewChannels returns an empty store. startNumber seeds playlist-order
// numbering; onlyGrouped rejects channels that carried no allowed group.
func NewChannels(startNumber int, onlyGrouped bool) *Channels {
	if startNumber < 1 {
		startNumber = 1
	}
	return &Channels{
		byID:        make(map[int]int),
		nextNumber:  startNumber,
		startNumber: startNumber,
		onlyGrouped: onlyGrouped,
	}
}

// CurrentNumber is the playlist-order number the next channel will get unless
// its line carries an explicit one.
func (c *Channels) CurrentNumber() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextNumber
}

// Add finalizes ch into the store and registers its group memberships.
// Returns false when the only-grouped policy rejects the channel; groups and
// providers already registered for the line are kept either way.
func (c *Channels) Add(ch Channel, groupIDs []int, groups *Groups, hadGroups bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.onlyGrouped && !hadGroups {
		return false
	}
	ch.ID = channelID(ch.Name, ch.StreamURL)
	if _, dup := c.byID[ch.ID]; dup {
		// Identical name+URL repeated in the playlist; keep the first.
		return false
	}
	c.byID[ch.ID] = len(c.list)
	c.list = append(c.list, ch)
	c.nextNumber++
	if groups != nil {
		for _, gid := range groupIDs {
			groups.AddMember(gid, ch.ID)
		}
	}
	return true
}

// Get returns the channel with the given id.
func (c *Channels) Get(id int) (Channel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.byID[id]
	if !ok {
		return Channel{}, false
	}
	return c.list[i], true
}

// All returns a copy of all channels in playlist order.
func (c *Channels) All() []Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Channel, len(c.list))
	copy(out, c.list)
	return out
}

// Amount returns the number of channels loaded.
func (c *Channels) Amount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.list)
}

// Clear drops the generation and resets numbering and the failed flag.
func (c *Channels) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = nil
	c.byID = make(map[int]int)
	c.nextNumber = c.startNumber
	c.loadFailed = false
}

// MarkLoadFailed flags the store after a failed reload so consumers can tell
// "empty" from "stale after failure".
func (c *Channels) MarkLoadFailed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadFailed = true
}

// LoadFailed reports whether the last reload failed.
func (c *Channels) LoadFailed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadFailed
}
