package sitemap

import (
	"context"
	"fmt"
	"io"
	"strings"

	"asterias/models"
	"asterias/views"

	"github.com/beevik/etree"
)

const (
	nsSitemap = "http://www.sitemaps.org/schemas/sitemap/0.9"
	nsXHTML   = "http://www.w3.org/1999/xhtml"
)

// StaticPages are the locale-less paths of every fixed public page.
var StaticPages = []string{"/", "/rooms", "/gallery", "/offers", "/contact", "/about", "/book"}

type RoomLister interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
}

type Generator struct {
	baseURL string
	locales []string
	rooms   RoomLister
}

// NewGenerator builds sitemaps for baseURL. locales[0] is the x-default.
func NewGenerator(baseURL string, locales []string, rooms RoomLister) *Generator {
	return &Generator{baseURL: strings.TrimRight(baseURL, "/"), locales: locales, rooms: rooms}
}

// Paths lists the locale-less paths in the sitemap: the static pages and one
// detail page per active room.
func (g *Generator) Paths(ctx context.Context) ([]string, error) {
	paths := append([]string(nil), StaticPages...)
	if g.rooms == nil {
		return paths, nil
	}
	rooms, err := g.rooms.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("sitemap: listing rooms: %w", err)
	}
	for _, r := range rooms {
		if !r.Active {
			continue
		}
		paths = append(paths, "/rooms/"+r.PathKey())
	}
	return paths, nil
}

// Build returns the sitemap document with one <url> per path and locale, each
// carrying hreflang alternates for every locale.
func (g *Generator) Build(ctx context.Context) (*etree.Document, error) {
	paths, err := g.Paths(ctx)
	if err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	urlset := doc.CreateElement("urlset")
	urlset.CreateAttr("xmlns", nsSitemap)
	urlset.CreateAttr("xmlns:xhtml", nsXHTML)

	for _, p := range paths {
		for _, locale := range g.locales {
			u := urlset.CreateElement("url")
			u.CreateElement("loc").SetText(g.baseURL + views.LocalePath(locale, p))
			u.CreateElement("changefreq").SetText(changeFreq(p))
			u.CreateElement("priority").SetText(priority(p))
			for _, alt := range g.locales {
				g.alternate(u, alt, p)
			}
			if len(g.locales) > 0 {
				g.alternate(u, "x-default", p)
			}
		}
	}
	return doc, nil
}

func (g *Generator) alternate(u *etree.Element, hreflang, path string) {
	locale := hreflang
	if hreflang == "x-default" {
		locale = g.locales[0]
	}
	link := u.CreateElement("xhtml:link")
	link.CreateAttr("rel", "alternate")
	link.CreateAttr("hreflang", hreflang)
	link.CreateAttr("href", g.baseURL+views.LocalePath(locale, path))
}

// Write renders the sitemap to w.
func (g *Generator) Write(ctx context.Context, w io.Writer) error {
	doc, err := g.Build(ctx)
	if err != nil {
		return err
	}
	doc.Indent(2)
	_, err = doc.WriteTo(w)
	return err
}

func changeFreq(path string) string {
	switch {
	case path == "/offers":
		return "daily"
	case path == "/" || strings.HasPrefix(path, "/rooms"):
		return "weekly"
	}
	return "monthly"
}

func priority(path string) string {
	switch {
	case path == "/":
		return "1.0"
	case path == "/rooms" || path == "/book":
		return "0.9"
	case strings.HasPrefix(path, "/rooms/"):
		return "0.8"
	}
	return "0.6"
}

// Robots returns robots.txt content pointing crawlers at the sitemap.
func Robots(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	return "User-agent: *\nAllow: /\nDisallow: /admin\nDisallow: /api/\n\nSitemap: " + base + "/sitemap.xml\n"
}
