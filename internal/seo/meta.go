// Package seo builds page metadata and the machine-readable site surfaces:
// sitemaps, the RSS feed and robots.txt.
package seo

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"newsdesk/config"
	"newsdesk/internal/model"
	"newsdesk/internal/shaper"
	"newsdesk/internal/taxonomy"
)

const (
	MaxTitle       = 60
	MaxDescription = 160
)

// Meta is what a page template renders into <head>.
type Meta struct {
	Title              string
	Description        string
	Canonical          string
	Keywords           []string
	Type               string // website, article
	Image              string
	Published          *time.Time
	SiteName           string
	Language           string
	GoogleVerification string
	JSONLD             template.JS
}

// Truncate shortens s to at most n runes, ending in "..." when cut.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	cut := strings.TrimSpace(string([]rune(s)[:n-3]))
	return cut + "..."
}

// ArticleLink is the outbound link of an item, or its page on this site when
// the item has no absolute URL.
func ArticleLink(site config.SiteConfig, it shaper.Item) string {
	if it.URL != nil && strings.HasPrefix(*it.URL, "http") {
		return *it.URL
	}
	return site.BaseURL + "/news/" + it.ID
}

func base(site config.SiteConfig, title, description, path string) Meta {
	return Meta{
		Title:              Truncate(title, MaxTitle),
		Description:        Truncate(description, MaxDescription),
		Canonical:          site.BaseURL + path,
		Type:               "website",
		Image:              absolute(site, site.Logo),
		SiteName:           site.Name,
		Language:           site.Language,
		GoogleVerification: site.GoogleVerification,
	}
}

func absolute(site config.SiteConfig, p string) string {
	if p == "" || strings.HasPrefix(p, "http") {
		return p
	}
	return site.BaseURL + "/" + strings.TrimLeft(p, "/")
}

func jsonLD(v any) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return template.JS(b)
}

// Home is the landing page metadata.
func Home(site config.SiteConfig) Meta {
	m := base(site, site.Name+" - Latest Financial News", site.Description, "/")
	m.Keywords = []string{"financial news", "markets", "Bloomberg", "FT", "Reuters"}
	m.JSONLD = jsonLD(map[string]any{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        site.Name,
		"url":         site.BaseURL,
		"description": site.Description,
		"publisher": map[string]any{
			"@type": "Organization",
			"name":  site.Name,
			"logo":  map[string]any{"@type": "ImageObject", "url": absolute(site, site.Logo)},
		},
	})
	return m
}

// Channel is the metadata of one channel listing page.
func Channel(site config.SiteConfig, ch taxonomy.Channel, page int) Meta {
	title := ch.DisplayName + " News | " + site.Name
	path := "/channels?category=" + url.QueryEscape(ch.Name)
	if page > 1 {
		title = fmt.Sprintf("%s News - Page %d | %s", ch.DisplayName, page, site.Name)
		path += fmt.Sprintf("&page=%d", page)
	}
	desc := fmt.Sprintf("Latest %s headlines from Bloomberg, FT and Reuters, updated continuously.", ch.DisplayName)
	m := base(site, title, desc, path)
	m.Keywords = append([]string{ch.DisplayName}, firstN(ch.Keywords, 10)...)
	m.JSONLD = jsonLD(map[string]any{
		"@context": "https://schema.org",
		"@type":    "CollectionPage",
		"name":     ch.DisplayName + " News",
		"url":      m.Canonical,
	})
	return m
}

// Article is the metadata of a single news item page.
func Article(site config.SiteConfig, it shaper.Item) Meta {
	desc := "Latest news from " + it.Source
	if it.Category != nil && *it.Category != "" {
		desc = fmt.Sprintf("%s: %s. Latest news from %s.", *it.Category, it.Title, it.Source)
	}
	m := base(site, it.Title, desc, "/news/"+it.ID)
	m.Type = "article"
	m.Published = it.PublicationTimeUTC
	m.Keywords = []string{it.Source}
	if it.Category != nil && *it.Category != "" {
		m.Keywords = append(m.Keywords, *it.Category)
	}

	ld := map[string]any{
		"@context":         "https://schema.org",
		"@type":            "NewsArticle",
		"headline":         Truncate(it.Title, 110),
		"url":              ArticleLink(site, it),
		"mainEntityOfPage": m.Canonical,
		"publisher":        map[string]any{"@type": "Organization", "name": it.Source},
	}
	if it.PublicationTimeUTC != nil {
		ld["datePublished"] = it.PublicationTimeUTC.Format(time.RFC3339)
	}
	m.JSONLD = jsonLD(ld)
	return m
}

// Post is the metadata of a blog post page.
func Post(site config.SiteConfig, p model.Post) Meta {
	desc := p.Excerpt
	if desc == "" {
		desc = p.Title
	}
	m := base(site, p.Title+" | "+site.Name, desc, fmt.Sprintf("/blog/%d", p.ID))
	m.Type = "article"
	created := p.CreatedAt.UTC()
	m.Published = &created

	ld := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      Truncate(p.Title, 110),
		"url":           m.Canonical,
		"datePublished": created.Format(time.RFC3339),
		"publisher":     map[string]any{"@type": "Organization", "name": site.Name},
	}
	if p.Author != "" {
		ld["author"] = map[string]any{"@type": "Person", "name": p.Author}
	}
	m.JSONLD = jsonLD(ld)
	return m
}

// Blog is the metadata of the post index.
func Blog(site config.SiteConfig, page int) Meta {
	path := "/blog"
	if page > 1 {
		path += fmt.Sprintf("?page=%d", page)
	}
	return base(site, "Blog | "+site.Name, "Analysis and commentary from the "+site.Name+" desk.", path)
}

// Markets is the metadata of the live Bloomberg markets page.
func Markets(site config.SiteConfig) Meta {
	m := base(site, "Markets News | "+site.Name, "Live markets and economics headlines from Bloomberg.", "/markets")
	m.Keywords = []string{"markets", "economics", "Bloomberg"}
	return m
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
