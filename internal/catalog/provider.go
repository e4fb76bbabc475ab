package catalog

import (
	"strings"
	"sync"
)

// ProviderType is the closed provider classification; anything unrecognized
// maps to ProviderUnknown.
type ProviderType int

const (
	ProviderUnknown ProviderType = iota
	ProviderAddon
	ProviderSatellite
	ProviderCable
	ProviderAerial
	ProviderIPTV
)

// ParseProviderType maps a provider-type attribute value, case-insensitively.
func ParseProviderType(s string) ProviderType {
	switch strings.ToLower(s) {
	case "addon":
		return ProviderAddon
	case "satellite":
		return ProviderSatellite
	case "cable":
		return ProviderCable
	case "aerial":
		return ProviderAerial
	case "iptv":
		return ProviderIPTV
	}
	return ProviderUnknown
}

// providerTokenSeparator splits provider-countries / provider-languages lists.
const providerTokenSeparator = ";"

// SplitProviderTokens splits a countries/languages attribute into its ordered
// parts, dropping empty segments.
func SplitProviderTokens(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, providerTokenSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Provider is a content provider referenced by channels. Name is its
// case-sensitive identity.
type Provider struct {
	ID        int
	Name      string
	Type      ProviderType
	typeSet   bool
	IconPath  string
	Countries []string
	Languages []string
}

// FillType sets the type once; later lines for the same provider cannot
// overwrite it.
func (p *Provider) FillType(t ProviderType) {
	if !p.typeSet {
		p.Type = t
		p.typeSet = true
	}
}

// FillIconPath sets the icon once.
func (p *Provider) FillIconPath(path string) {
	if p.IconPath == "" {
		p.IconPath = path
	}
}

// FillCountries sets the country list once.
func (p *Provider) FillCountries(countries []string) {
	if len(p.Countries) == 0 {
		p.Countries = countries
	}
}

// FillLanguages sets the language list once.
func (p *Provider) FillLanguages(languages []string) {
	if len(p.Languages) == 0 {
		p.Languages = languages
	}
}

// Providers is the register-or-fetch provider store keyed by exact name.
type Providers struct {
	mu     sync.Mutex
	byName map[string]*Provider
	list   []*Provider
}

// NewProviders returns an empty store.
func NewProviders() *Providers {
	return &Providers{byName: make(map[string]*Provider)}
}

// Register returns the provider for name, creating it with the next handle on
// first sight. Returns nil for an empty name (no provider for the line).
func (p *Providers) Register(name string) *Provider {
	if name == "" {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if prov, ok := p.byName[name]; ok {
		return prov
	}
	prov := &Provider{ID: len(p.list) + 1, Name: name}
	p.byName[name] = prov
	p.list = append(p.list, prov)
	return prov
}

// All returns copies of all providers in registration order.
func (p *Providers) All() []Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Provider, 0, len(p.list))
	for _, prov := range p.list {
		out = append(out, *prov)
	}
	return out
}

// Amount returns the number of registered providers.
func (p *Providers) Amount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.list)
}

// Clear drops the generation.
func (p *Providers) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byName = make(map[string]*Provider)
	p.list = nil
}
