// Package taxonomy maps display channels onto the category keywords stored
// with each article. The table is read once at start-up and never mutated.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed channels.yaml
var embeddedChannels []byte

// Channel is a filter button in the UI backed by a set of category keywords.
// An empty keyword set means "no filter".
type Channel struct {
	ID          string   `yaml:"id" json:"id"`
	DisplayName string   `yaml:"display_name" json:"displayName"`
	Name        string   `yaml:"name" json:"name"`
	Keywords    []string `yaml:"keywords" json:"keywords"`
	Hidden      bool     `yaml:"hidden" json:"-"`
}

// IsAll reports whether the channel is the unfiltered sentinel.
func (c Channel) IsAll() bool { return len(c.Keywords) == 0 }

type table struct {
	Default  string    `yaml:"default"`
	Channels []Channel `yaml:"channels"`
}

// Mapper resolves channel names to keyword lists.
type Mapper struct {
	channels   []Channel
	byKey      map[string]int
	byID       map[string]int
	byCategory map[string][]int
	defaultIdx int
}

// Embedded returns the mapper built from the table compiled into the binary.
func Embedded() (*Mapper, error) {
	return Parse(embeddedChannels)
}

// LoadFile parses a channel table from disk; an empty path falls back to the embedded table.
func LoadFile(path string) (*Mapper, error) {
	if strings.TrimSpace(path) == "" {
		return Embedded()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	return Parse(data)
}

// Parse builds a mapper from YAML.
func Parse(data []byte) (*Mapper, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if len(t.Channels) == 0 {
		return nil, fmt.Errorf("taxonomy has no channels")
	}

	m := &Mapper{
		channels:   make([]Channel, 0, len(t.Channels)),
		byKey:      make(map[string]int),
		byID:       make(map[string]int),
		byCategory: make(map[string][]int),
		defaultIdx: -1,
	}

	for _, ch := range t.Channels {
		ch.ID = strings.TrimSpace(ch.ID)
		ch.Name = strings.TrimSpace(ch.Name)
		if ch.ID == "" || ch.Name == "" {
			return nil, fmt.Errorf("channel entries need both id and name")
		}
		if ch.DisplayName == "" {
			ch.DisplayName = ch.Name
		}
		if _, dup := m.byID[ch.ID]; dup {
			return nil, fmt.Errorf("duplicate channel id %q", ch.ID)
		}
		ch.Keywords = dedupe(ch.Keywords)

		idx := len(m.channels)
		m.channels = append(m.channels, ch)
		m.byID[ch.ID] = idx
		for _, key := range []string{ch.Name, ch.DisplayName} {
			k := normalizeKey(key)
			if prev, dup := m.byKey[k]; dup && prev != idx {
				return nil, fmt.Errorf("channel name %q is used twice", key)
			}
			m.byKey[k] = idx
		}
		for _, kw := range ch.Keywords {
			m.byCategory[kw] = append(m.byCategory[kw], idx)
		}
		if ch.ID == t.Default {
			m.defaultIdx = idx
		}
	}

	if m.defaultIdx < 0 {
		m.defaultIdx = 0
	}
	return m, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (c Channel) clone() Channel {
	c.Keywords = append([]string(nil), c.Keywords...)
	return c
}

// Keywords returns the category keywords of the named channel. The "All"
// channel and unknown names both yield an empty list, which callers treat as
// "do not filter".
func (m *Mapper) Keywords(name string) []string {
	ch, ok := m.Channel(name)
	if !ok {
		return []string{}
	}
	return ch.Keywords
}

// Channel looks a channel up by name or display name, case-insensitively.
func (m *Mapper) Channel(name string) (Channel, bool) {
	idx, ok := m.byKey[normalizeKey(name)]
	if !ok {
		return Channel{}, false
	}
	return m.channels[idx].clone(), true
}

// ChannelByID looks a channel up by its stable id.
func (m *Mapper) ChannelByID(id string) (Channel, bool) {
	idx, ok := m.byID[strings.TrimSpace(id)]
	if !ok {
		return Channel{}, false
	}
	return m.channels[idx].clone(), true
}

// Resolve accepts an id, name or display name. An empty key gives the default
// channel; a key that matches nothing gives the unfiltered channel.
func (m *Mapper) Resolve(key string) Channel {
	if strings.TrimSpace(key) == "" {
		return m.Default()
	}
	if ch, ok := m.ChannelByID(key); ok {
		return ch
	}
	if ch, ok := m.Channel(key); ok {
		return ch
	}
	return m.All()
}

// All is the first channel without keywords, or a synthetic one when the
// table has none.
func (m *Mapper) All() Channel {
	for _, ch := range m.channels {
		if ch.IsAll() {
			return ch.clone()
		}
	}
	return Channel{ID: "all", Name: "All News", DisplayName: "All News", Keywords: []string{}}
}

// Default is the channel shown when a page is opened without a category.
func (m *Mapper) Default() Channel {
	return m.channels[m.defaultIdx].clone()
}

// Channels lists the visible channels in table order.
func (m *Mapper) Channels() []Channel {
	out := make([]Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		if ch.Hidden {
			continue
		}
		out = append(out, ch.clone())
	}
	return out
}

// ChannelsFor lists every channel whose keyword set contains category.
// Overlapping entries are intentional; one article may show up in several channels.
func (m *Mapper) ChannelsFor(category string) []Channel {
	idxs := m.byCategory[strings.TrimSpace(category)]
	out := make([]Channel, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, m.channels[idx].clone())
	}
	return out
}
