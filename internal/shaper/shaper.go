// Package shaper turns source-specific news records into the single Item
// shape the pages and the JSON API render.
package shaper

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"newsdesk/internal/model"
)

// ErrIncomplete is returned when an upstream record has no title.
var ErrIncomplete = errors.New("record has no title")

// Item is the uniform display shape. Optional fields are pointers and are
// always serialized, as null when absent.
type Item struct {
	ID                 string     `json:"id"`
	Source             string     `json:"source"`
	Title              string     `json:"title"`
	URL                *string    `json:"url"`
	Category           *string    `json:"category"`
	PublicationTimeUTC *time.Time `json:"publication_time_utc"`
	OriginalTimestamp  *string    `json:"original_timestamp"`
}

// DisplayTime prefers the normalized publication time and falls back to the
// source-provided timestamp.
func (it Item) DisplayTime(layout string) string {
	if it.PublicationTimeUTC != nil {
		return it.PublicationTimeUTC.Format(layout)
	}
	if it.OriginalTimestamp != nil {
		return *it.OriginalTimestamp
	}
	return ""
}

// Record is a decoded source record: a store row or an upstream JSON object.
type Record map[string]any

// Adapter normalizes one source's records.
type Adapter interface {
	NormalizeToArticle(rec Record) (Item, error)
}

// fields lists, per Item field, the record keys to try in order. Dotted keys
// walk nested objects.
type fields struct {
	ID        []string
	Title     []string
	URL       []string
	Category  []string
	Published []string
	Original  []string
}

type sourceAdapter struct {
	source string
	host   string
	fields fields
}

// NormalizeToArticle implements Adapter.
func (a sourceAdapter) NormalizeToArticle(rec Record) (Item, error) {
	return a.normalize(rec, true)
}

// normalize shapes rec. Store rows pass requireTitle=false: they are shown
// as stored, blank title included.
func (a sourceAdapter) normalize(rec Record, requireTitle bool) (Item, error) {
	var it Item

	it.Title, _ = firstString(rec, a.fields.Title)
	it.Title = strings.TrimSpace(it.Title)
	if it.Title == "" && requireTitle {
		return Item{}, fmt.Errorf("%s: %w", a.source, ErrIncomplete)
	}

	if link, ok := firstString(rec, a.fields.URL); ok {
		if link = a.absolute(strings.TrimSpace(link)); link != "" {
			it.URL = &link
		}
	}

	if id, ok := firstString(rec, a.fields.ID); ok && strings.TrimSpace(id) != "" {
		it.ID = strings.TrimSpace(id)
	} else if it.URL != nil {
		it.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(*it.URL)).String()
	} else {
		it.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(a.source+"|"+it.Title)).String()
	}

	it.Source = a.source
	if src, ok := firstString(rec, []string{"source"}); ok && strings.TrimSpace(src) != "" {
		it.Source = strings.TrimSpace(src)
	}

	if cat, ok := firstString(rec, a.fields.Category); ok {
		cat = strings.TrimSpace(cat)
		it.Category = &cat
	}

	if ts, ok := firstTime(rec, a.fields.Published); ok {
		it.PublicationTimeUTC = &ts
	}
	if raw, ok := firstRaw(rec, a.fields.Original); ok {
		it.OriginalTimestamp = &raw
	}
	return it, nil
}

func (a sourceAdapter) absolute(link string) string {
	if link == "" || a.host == "" {
		return link
	}
	if strings.HasPrefix(link, "//") {
		return "https:" + link
	}
	if strings.HasPrefix(link, "/") {
		return a.host + link
	}
	return link
}

// FromArticle exposes a store row as a Record.
func FromArticle(a model.Article) Record {
	rec := Record{
		"id":     a.ID,
		"source": a.Source,
		"title":  a.Title,
	}
	if a.URL != nil {
		rec["url"] = *a.URL
	}
	if a.Category != nil {
		rec["category"] = *a.Category
	}
	if a.PublicationTimeUTC != nil {
		rec["publication_time_utc"] = *a.PublicationTimeUTC
	}
	if a.OriginalTimestamp != nil {
		rec["original_timestamp"] = *a.OriginalTimestamp
	}
	return rec
}
