package seo

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/config"
	"newsdesk/internal/model"
	"newsdesk/internal/shaper"
	"newsdesk/internal/taxonomy"
)

var site = config.SiteConfig{
	Name:        "Newsdesk",
	BaseURL:     "https://news.example.com",
	Description: "Markets news",
	Language:    "en",
	Logo:        "/static/logo.png",
}

func strPtr(s string) *string { return &s }

func item(id, title string, link *string, ts *time.Time) shaper.Item {
	return shaper.Item{ID: id, Source: "FT", Title: title, URL: link, Category: strPtr("Markets"), PublicationTimeUTC: ts}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("  short  ", 60))
	long := strings.Repeat("é", 100)
	out := Truncate(long, 60)
	assert.Equal(t, 60, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestArticleLink(t *testing.T) {
	assert.Equal(t, "https://www.ft.com/a", ArticleLink(site, item("1", "t", strPtr("https://www.ft.com/a"), nil)))
	assert.Equal(t, "https://news.example.com/news/2", ArticleLink(site, item("2", "t", strPtr("/relative"), nil)))
	assert.Equal(t, "https://news.example.com/news/3", ArticleLink(site, item("3", "t", nil, nil)))
}

func TestMetaBounds(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	m := Article(site, item("9", strings.Repeat("Headline ", 20), nil, &ts))
	assert.LessOrEqual(t, utf8.RuneCountInString(m.Title), MaxTitle)
	assert.LessOrEqual(t, utf8.RuneCountInString(m.Description), MaxDescription)
	assert.Equal(t, "https://news.example.com/news/9", m.Canonical)
	assert.Equal(t, "article", m.Type)

	var ld map[string]any
	require.NoError(t, json.Unmarshal([]byte(m.JSONLD), &ld))
	assert.Equal(t, "NewsArticle", ld["@type"])
	assert.Equal(t, "2025-01-02T03:04:05Z", ld["datePublished"])
}

func TestChannelMeta(t *testing.T) {
	tax, err := taxonomy.Embedded()
	require.NoError(t, err)
	m := Channel(site, tax.Default(), 2)
	assert.Contains(t, m.Title, "Page 2")
	assert.Equal(t, "https://news.example.com/channels?category=Market+%26+Finance&page=2", m.Canonical)
}

func TestPostAndHomeMeta(t *testing.T) {
	p := model.Post{ID: 4, Title: "Why yields matter", Author: "Desk", CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)}
	m := Post(site, p)
	assert.Equal(t, "https://news.example.com/blog/4", m.Canonical)
	assert.Contains(t, string(m.JSONLD), `"BlogPosting"`)

	home := Home(site)
	assert.Equal(t, "https://news.example.com/", home.Canonical)
	assert.Equal(t, "https://news.example.com/static/logo.png", home.Image)
}

func TestSitemap(t *testing.T) {
	out, err := Sitemap(site, []string{"Market & Finance"}, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	var parsed struct {
		URLs []struct {
			Loc string `xml:"loc"`
		} `xml:"url"`
	}
	require.NoError(t, xml.Unmarshal(out, &parsed))
	require.Len(t, parsed.URLs, 5)
	assert.Equal(t, "https://news.example.com/", parsed.URLs[0].Loc)
	assert.Equal(t, "https://news.example.com/channels?category=Market+%26+Finance", parsed.URLs[4].Loc)
	assert.Contains(t, string(out), `xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"`)
}

func TestNewsSitemap(t *testing.T) {
	ts := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	out, err := NewsSitemap(site, []shaper.Item{
		item("1", "Rates & bonds", strPtr("https://www.ft.com/1"), &ts),
		item("2", "Undated", nil, nil),
	})
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `xmlns:news="http://www.google.com/schemas/sitemap-news/0.9"`)
	assert.Contains(t, s, "<news:publication_date>2025-03-03T09:00:00Z</news:publication_date>")
	assert.Contains(t, s, "<news:title>Rates &amp; bonds</news:title>")
	assert.Contains(t, s, "<news:name>Newsdesk</news:name>")
	assert.Equal(t, 1, strings.Count(s, "<url>"))
}

func TestRSS(t *testing.T) {
	ts := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	out, err := RSS(site, []shaper.Item{
		item("1", "First", strPtr("https://www.ft.com/1"), &ts),
		item("2", "Second", nil, &ts),
	}, ts)
	require.NoError(t, err)

	var parsed struct {
		Version string `xml:"version,attr"`
		Channel struct {
			Title    string `xml:"title"`
			Language string `xml:"language"`
			Self     struct {
				Href string `xml:"href,attr"`
				Rel  string `xml:"rel,attr"`
				Type string `xml:"type,attr"`
			} `xml:"http://www.w3.org/2005/Atom link"`
			Items    []struct {
				Title string `xml:"title"`
				Link  string `xml:"link"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	require.NoError(t, xml.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, "Newsdesk - Latest News", parsed.Channel.Title)
	assert.Equal(t, "en", parsed.Channel.Language)
	require.Len(t, parsed.Channel.Items, 2)
	assert.Equal(t, "https://www.ft.com/1", parsed.Channel.Items[0].Link)
	assert.Equal(t, "https://news.example.com/news/2", parsed.Channel.Items[1].Link)

	assert.Equal(t, "2.0", parsed.Version)
	assert.Contains(t, out, `xmlns:atom="http://www.w3.org/2005/Atom"`)
	assert.Equal(t, "https://news.example.com/rss.xml", parsed.Channel.Self.Href)
	assert.Equal(t, "self", parsed.Channel.Self.Rel)
	assert.Equal(t, "application/rss+xml", parsed.Channel.Self.Type)
}

func TestRobots(t *testing.T) {
	r := Robots(site)
	assert.Contains(t, r, "User-agent: *")
	assert.Contains(t, r, "Disallow: /api/")
	assert.Contains(t, r, "Sitemap: https://news.example.com/sitemap.xml")
	assert.Contains(t, r, "Sitemap: https://news.example.com/news-sitemap.xml")
}
