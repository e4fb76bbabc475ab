package catalog

import "sync"

// MediaEntry is an on-demand item (movie, recording-style VOD entry) parsed
// from the playlist.
type MediaEntry struct {
	ID         uint64 // derived, see mediaKey
	Name       string
	Directory  string
	SizeBytes  int64
	IconPath   string
	ProviderID int
	StreamURL  string
}

// UpdateFrom copies the shared fields out of the channel accumulator when an
// entry is finalized as media instead of a channel.
func (m *MediaEntry) UpdateFrom(ch Channel) {
	m.Name = ch.Name
	m.IconPath = ch.IconPath
	m.ProviderID = ch.ProviderID
}

// mediaKey derives the stable unique id for an entry from its identity
// fields. Two playlist lines producing the same name, directory and URL are
// the same entry.
func mediaKey(name, directory, streamURL string) uint64 {
	h := uint64(0)
	for _, c := range name {
		h = h*31 + uint64(c)
	}
	for _, c := range directory {
		h = h*31 + uint64(c)
	}
	for _, c := range streamURL {
		h = h*31 + uint64(c)
	}
	return h
}

// Media is the media store for one catalog generation.
type Media struct {
	mu   sync.Mutex
	list []MediaEntry
	byID map[uint64]bool
}

// NewMedia returns an empty store.
func NewMedia() *Media {
	return &Media{byID: make(map[uint64]bool)}
}

// Add stores the entry unless another entry already produced the same derived
// unique id. Returns false on a duplicate; the load continues either way.
func (m *Media) Add(entry MediaEntry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = mediaKey(entry.Name, entry.Directory, entry.StreamURL)
	if m.byID[entry.ID] {
		return false
	}
	m.byID[entry.ID] = true
	m.list = append(m.list, entry)
	return true
}

// All returns a copy of all entries in add order.
func (m *Media) All() []MediaEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MediaEntry, len(m.list))
	copy(out, m.list)
	return out
}

// Amount returns the number of media entries.
func (m *Media) Amount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.list)
}

// Clear drops the generation.
func (m *Media) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = nil
	m.byID = make(map[uint64]bool)
}
