package catalog

import (
	"sync"

	"github.com/snapetech/iptvcatalog/internal/config"
)

// ChannelGroup is a named bucket of channels; TV and radio groups are
// distinct even when they share a name.
type ChannelGroup struct {
	ID    int
	Name  string
	Radio bool
}

type groupKey struct {
	name  string
	radio bool
}

// Groups is the register-or-fetch group store. Ids are stable integer
// handles assigned on first registration and never reused within a
// generation.
type Groups struct {
	mu      sync.Mutex
	byKey   map[groupKey]int
	list    []ChannelGroup
	members map[int][]int // group id -> channel ids in add order

	tvFilter    config.GroupFilter
	tvList      map[string]bool
	radioFilter config.GroupFilter
	radioList   map[string]bool

	loadFailed bool
}

// NewGroups returns an empty store with the given allow/deny policy.
func NewGroups(tvFilter config.GroupFilter, tvList []string, radioFilter config.GroupFilter, radioList []string) *Groups {
	return &Groups{
		byKey:       make(map[groupKey]int),
		members:     make(map[int][]int),
		tvFilter:    tvFilter,
		tvList:      toSet(tvList),
		radioFilter: radioFilter,
		radioList:   toSet(radioList),
	}
}

func toSet(list []string) map[string]bool {
	m := make(map[string]bool, len(list))
	for _, s := range list {
		m[s] = true
	}
	return m
}

// Allowed applies the group policy for the name + radio flag.
func (g *Groups) Allowed(name string, radio bool) bool {
	if name == "" {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	filter, set := g.tvFilter, g.tvList
	if radio {
		filter, set = g.radioFilter, g.radioList
	}
	switch filter {
	case config.GroupFilterAllowlist:
		return set[name]
	case config.GroupFilterBlocklist:
		return !set[name]
	}
	return true
}

// Add registers the group if new and returns its id. First registration wins;
// later adds of the same name+radio return the existing handle.
func (g *Groups) Add(name string, radio bool) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := groupKey{name: name, radio: radio}
	if id, ok := g.byKey[key]; ok {
		return id
	}
	id := len(g.list) + 1
	g.byKey[key] = id
	g.list = append(g.list, ChannelGroup{ID: id, Name: name, Radio: radio})
	return id
}

// AddMember appends a channel to a group's membership list.
func (g *Groups) AddMember(groupID, channelID int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[groupID] = append(g.members[groupID], channelID)
}

// Members returns a copy of the group's channel ids in add order.
func (g *Groups) Members(groupID int) []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	src := g.members[groupID]
	out := make([]int, len(src))
	copy(out, src)
	return out
}

// All returns a copy of all groups in registration order.
func (g *Groups) All() []ChannelGroup {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ChannelGroup, len(g.list))
	copy(out, g.list)
	return out
}

// Amount returns the number of registered groups.
func (g *Groups) Amount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.list)
}

// Clear drops the generation.
func (g *Groups) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.byKey = make(map[groupKey]int)
	g.list = nil
	g.members = make(map[int][]int)
	g.loadFailed = false
}

// MarkLoadFailed flags the store after a failed reload.
func (g *Groups) MarkLoadFailed() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loadFailed = true
}

// LoadFailed reports whether the last reload failed.
func (g *Groups) LoadFailed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loadFailed
}
