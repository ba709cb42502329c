package shaper

import (
	"strings"
)

const (
	SourceBloomberg = "Bloomberg"
	SourceFT        = "FT"
	SourceReuters   = "Reuters"
)

// Sources lists the brands shown side by side on the home page.
var Sources = []string{SourceBloomberg, SourceFT, SourceReuters}

var storeFields = fields{
	ID:        []string{"id"},
	Title:     []string{"title"},
	URL:       []string{"url"},
	Category:  []string{"category"},
	Published: []string{"publication_time_utc"},
	Original:  []string{"original_timestamp"},
}

// StoreAdapter reads rows of the aggregated news table whose source has no
// dedicated adapter.
func StoreAdapter() Adapter {
	return storeAdapter()
}

func storeAdapter() sourceAdapter {
	return sourceAdapter{source: "", fields: storeFields}
}

// BloombergAdapter reads lineup stories and Bloomberg store rows.
func BloombergAdapter() Adapter {
	return sourceAdapter{
		source: SourceBloomberg,
		host:   "https://www.bloomberg.com",
		fields: fields{
			ID:        []string{"id", "storyId"},
			Title:     []string{"headline", "title", "seoHeadline"},
			URL:       []string{"url", "link", "shortURL"},
			Category:  []string{"category", "primaryCategory", "brand"},
			Published: []string{"publication_time_utc", "publishedAt", "published_at", "updatedAt", "lastModified"},
			Original:  []string{"original_timestamp", "publishedAt", "lastModified"},
		},
	}
}

// FTAdapter reads FT article rows (page_url/headline/published_timestamp).
func FTAdapter() Adapter {
	return sourceAdapter{
		source: SourceFT,
		host:   "https://www.ft.com",
		fields: fields{
			ID:        []string{"id"},
			Title:     []string{"title", "headline", "page_title"},
			URL:       []string{"url", "page_url"},
			Category:  []string{"category"},
			Published: []string{"publication_time_utc", "publishedtimestamputc", "published_timestamp"},
			Original:  []string{"original_timestamp", "published_timestamp"},
		},
	}
}

// ReutersAdapter reads Reuters rows.
func ReutersAdapter() Adapter {
	return sourceAdapter{
		source: SourceReuters,
		host:   "https://www.reuters.com",
		fields: fields{
			ID:        []string{"id"},
			Title:     []string{"title", "headline", "basic_headline"},
			URL:       []string{"url", "canonical_url"},
			Category:  []string{"category", "section"},
			Published: []string{"publication_time_utc", "published_time", "display_time"},
			Original:  []string{"original_timestamp", "published_time", "display_time"},
		},
	}
}

// Registry selects an adapter by source tag.
type Registry struct {
	adapters map[string]Adapter
	fallback Adapter
}

// NewRegistry builds a registry; tags are matched case-insensitively.
func NewRegistry(fallback Adapter, adapters map[string]Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters)), fallback: fallback}
	for tag, a := range adapters {
		if a == nil {
			continue
		}
		r.adapters[normalizeTag(tag)] = a
	}
	return r
}

// DefaultRegistry knows the three brands of the article store.
func DefaultRegistry() *Registry {
	bloomberg, ft, reuters := BloombergAdapter(), FTAdapter(), ReutersAdapter()
	return NewRegistry(StoreAdapter(), map[string]Adapter{
		"bloomberg":       bloomberg,
		"ft":              ft,
		"financial times": ft,
		"reuters":         reuters,
	})
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// For returns the adapter registered for source, or the fallback.
func (r *Registry) For(source string) Adapter {
	if a, ok := r.adapters[normalizeTag(source)]; ok {
		return a
	}
	return r.fallback
}

// Normalize shapes one record.
func (r *Registry) Normalize(source string, rec Record) (Item, error) {
	return r.For(source).NormalizeToArticle(rec)
}

// NormalizeRow shapes a row of the article store. Rows are never dropped:
// an adapter that rejects the row is replaced by the lenient store adapter.
func (r *Registry) NormalizeRow(source string, rec Record) Item {
	a := r.For(source)
	if sa, ok := a.(sourceAdapter); ok {
		it, _ := sa.normalize(rec, false)
		return it
	}
	if it, err := a.NormalizeToArticle(rec); err == nil {
		return it
	}
	it, _ := storeAdapter().normalize(rec, false)
	return it
}
