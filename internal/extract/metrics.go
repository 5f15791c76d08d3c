// Package extract derives structural metrics from raw HTML documents.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Metrics is the fixed set of structural metrics derived from a document.
// Title and MetaDescription are nil when absent.
type Metrics struct {
	Title           *string `json:"title"`
	H1Count         int     `json:"h1_count"`
	MetaDescription *string `json:"meta_description"`
	ImageCount      int     `json:"image_count"`
	LinkCount       int     `json:"link_count"`
}

// FromHTML parses raw and computes Metrics. It never fails: malformed markup
// is parsed leniently and a failing field falls back to its absent value.
func FromHTML(raw string) Metrics {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return Metrics{}
	}
	tags := guard(tagCounts{}, func() tagCounts { return countTags(raw) })
	return Metrics{
		Title:           guard(nil, func() *string { return title(doc) }),
		H1Count:         tags.h1,
		MetaDescription: guard(nil, func() *string { return metaDescription(doc) }),
		ImageCount:      tags.img,
		LinkCount:       tags.a,
	}
}

// title returns the trimmed text of the first <title>. A title element with
// no text at all is absent; whitespace-only text yields the empty string.
func title(doc *goquery.Document) *string {
	sel := doc.Find("title").First()
	if sel.Length() == 0 {
		return nil
	}
	text := sel.Text()
	if text == "" {
		return nil
	}
	return ptr(strings.TrimSpace(text))
}

// metaDescription returns the trimmed content of the first
// <meta name="description">. A matching tag without a content attribute
// yields the empty string, not nil.
func metaDescription(doc *goquery.Document) *string {
	sel := doc.FindMatcher(goquery.Single(`meta[name="description"]`))
	if sel.Length() == 0 {
		return nil
	}
	content, _ := sel.Attr("content")
	return ptr(strings.TrimSpace(content))
}

type tagCounts struct {
	h1, img, a int
}

// countTags counts start tags as they appear in the markup. The HTML5 tree
// builder would clone unclosed <a> elements and rename <image> to <img>, so
// counting is done on the token stream rather than on the parsed document.
func countTags(raw string) tagCounts {
	var out tagCounts
	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.H1:
				out.h1++
			case atom.Img:
				out.img++
			case atom.A:
				out.a++
			}
		}
	}
}

func guard[T any](fallback T, fn func() T) (out T) {
	defer func() {
		if recover() != nil {
			out = fallback
		}
	}()
	return fn()
}

func ptr(s string) *string {
	return &s
}
