package seo

import (
	"encoding/xml"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"newsdesk/config"
	"newsdesk/internal/shaper"
)

const (
	sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"
	newsNS    = "http://www.google.com/schemas/sitemap-news/0.9"
)

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	News    string       `xml:"xmlns:news,attr,omitempty"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string    `xml:"loc"`
	News       *newsNode `xml:"news:news,omitempty"`
	LastMod    string    `xml:"lastmod,omitempty"`
	ChangeFreq string    `xml:"changefreq,omitempty"`
	Priority   string    `xml:"priority,omitempty"`
}

type newsNode struct {
	Publication     newsPublication `xml:"news:publication"`
	PublicationDate string          `xml:"news:publication_date"`
	Title           string          `xml:"news:title"`
	Keywords        string          `xml:"news:keywords,omitempty"`
}

type newsPublication struct {
	Name     string `xml:"news:name"`
	Language string `xml:"news:language"`
}

func marshalXML(v any) ([]byte, error) {
	out, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// Sitemap lists the static pages plus one entry per channel.
func Sitemap(site config.SiteConfig, channels []string, now time.Time) ([]byte, error) {
	lastmod := now.UTC().Format(time.RFC3339)
	set := urlset{XMLNS: sitemapNS}
	static := []struct{ path, freq, priority string }{
		{"/", "hourly", "1.0"},
		{"/blog", "weekly", "0.8"},
		{"/channels", "daily", "0.5"},
		{"/markets", "hourly", "0.8"},
	}
	for _, p := range static {
		set.URLs = append(set.URLs, sitemapURL{Loc: site.BaseURL + p.path, LastMod: lastmod, ChangeFreq: p.freq, Priority: p.priority})
	}
	for _, name := range channels {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        site.BaseURL + "/channels?category=" + url.QueryEscape(name),
			LastMod:    lastmod,
			ChangeFreq: "hourly",
			Priority:   "0.6",
		})
	}
	return marshalXML(set)
}

// NewsSitemap renders the Google News sitemap. Items without a publication
// time are left out.
func NewsSitemap(site config.SiteConfig, items []shaper.Item) ([]byte, error) {
	set := urlset{XMLNS: sitemapNS, News: newsNS, URLs: []sitemapURL{}}
	for _, it := range items {
		if it.PublicationTimeUTC == nil {
			continue
		}
		pub := it.PublicationTimeUTC.UTC().Format(time.RFC3339)
		keywords := []string{it.Source}
		if it.Category != nil && *it.Category != "" {
			keywords = append(keywords, *it.Category)
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc: ArticleLink(site, it),
			News: &newsNode{
				Publication:     newsPublication{Name: site.Name, Language: site.Language},
				PublicationDate: pub,
				Title:           it.Title,
				Keywords:        strings.Join(keywords, ", "),
			},
			LastMod:    pub,
			ChangeFreq: "never",
		})
	}
	return marshalXML(set)
}

// RSS renders an RSS 2.0 feed of items with an atom self link.
func RSS(site config.SiteConfig, items []shaper.Item, now time.Time) (string, error) {
	feed := &feeds.Feed{
		Title:       site.Name + " - Latest News",
		Link:        &feeds.Link{Href: site.BaseURL},
		Description: site.Description,
		Created:     now.UTC(),
		Image: &feeds.Image{
			Url:   absolute(site, site.Logo),
			Title: site.Name,
			Link:  site.BaseURL,
		},
	}
	for _, it := range items {
		link := ArticleLink(site, it)
		item := &feeds.Item{
			Title:       it.Title,
			Link:        &feeds.Link{Href: link},
			Id:          link,
			Description: "Latest news from " + it.Source,
		}
		if it.PublicationTimeUTC != nil {
			item.Created = it.PublicationTimeUTC.UTC()
		}
		feed.Items = append(feed.Items, item)
	}

	rss := (&feeds.Rss{Feed: feed}).RssFeed()
	rss.Language = site.Language
	rss.LastBuildDate = now.UTC().Format(time.RFC1123Z)
	return feeds.ToXML(&rssDoc{
		Version:   "2.0",
		ContentNS: "http://purl.org/rss/1.0/modules/content/",
		AtomNS:    atomNS,
		Channel: &rssChannel{
			AtomLink: atomLink{Href: site.BaseURL + "/rss.xml", Rel: "self", Type: "application/rss+xml"},
			RssFeed:  rss,
		},
	})
}

const atomNS = "http://www.w3.org/2005/Atom"

// rssDoc is the <rss> root with the atom namespace declared, so the channel
// can carry its own self link.
type rssDoc struct {
	XMLName   xml.Name `xml:"rss"`
	Version   string   `xml:"version,attr"`
	ContentNS string   `xml:"xmlns:content,attr"`
	AtomNS    string   `xml:"xmlns:atom,attr"`
	Channel   *rssChannel
}

func (d *rssDoc) FeedXml() interface{} { return d }

type rssChannel struct {
	XMLName  xml.Name `xml:"channel"`
	AtomLink atomLink
	*feeds.RssFeed
}

type atomLink struct {
	XMLName xml.Name `xml:"atom:link"`
	Href    string   `xml:"href,attr"`
	Rel     string   `xml:"rel,attr"`
	Type    string   `xml:"type,attr"`
}

// Robots renders robots.txt: crawl everything except the API and point at
// both sitemaps.
func Robots(site config.SiteConfig) string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /api/\n\n")
	b.WriteString("Sitemap: " + site.BaseURL + "/sitemap.xml\n")
	b.WriteString("Sitemap: " + site.BaseURL + "/news-sitemap.xml\n")
	return b.String()
}
