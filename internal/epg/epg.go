// Package epg exposes guide entries to the catchup resolver. The resolver
// only ever asks one question: which programme starts at this instant on this
// channel, and what is its provider-side catchup id.
package epg

import "time"

// Entry is one programme as far as catchup resolution cares.
type Entry struct {
	ChannelID int
	Start     time.Time
	End       time.Time
	Title     string
	CatchupID string
}

// Source looks up the programme starting at start on a channel. ok is false
// when the guide has no entry there.
type Source interface {
	EntryAt(channelID int, start time.Time) (Entry, bool)
}
