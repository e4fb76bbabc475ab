package epg

import (
	"sync"
	"time"
)

type memoryKey struct {
	channelID int
	startUnix int64
}

// Memory is an in-memory Source, used when no guide database is configured
// and as a fixture in tests.
type Memory struct {
	mu      sync.Mutex
	entries map[memoryKey]Entry
}

// NewMemory returns an empty in-memory guide.
func NewMemory() *Memory {
	return &Memory{entries: make(map[memoryKey]Entry)}
}

// Add records one programme, replacing any entry with the same channel+start.
func (m *Memory) Add(e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[memoryKey{e.ChannelID, e.Start.Unix()}] = e
}

// EntryAt returns the programme starting exactly at start on the channel.
func (m *Memory) EntryAt(channelID int, start time.Time) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[memoryKey{channelID, start.Unix()}]
	return e, ok
}
