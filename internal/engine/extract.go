package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tartampluch/go-astrology/internal/config"
	"golang.org/x/net/html"
)

// Extractor pulls reading text out of horoscope pages.
// The zero value uses the selectors of the public site.
type Extractor struct {
	Main                  string // container of daily, weekly and monthly readings
	Yearly                string
	CompatibilitySelector string
}

func (e Extractor) selectors() Extractor {
	if e.Main == "" {
		e.Main = config.SelectorDaily
	}
	if e.Yearly == "" {
		e.Yearly = config.SelectorYearly
	}
	if e.CompatibilitySelector == "" {
		e.CompatibilitySelector = config.SelectorCompatibility
	}
	return e
}

// Horoscope returns the first paragraph of the reading container for tf.
func (e Extractor) Horoscope(r io.Reader, tf Timeframe) (string, error) {
	s := e.selectors()
	container := s.Main
	if tf == Yearly {
		container = s.Yearly
	}
	return firstParagraph(r, container)
}

// Compatibility returns the first paragraph of the compatibility module.
func (e Extractor) Compatibility(r io.Reader) (string, error) {
	return firstParagraph(r, e.selectors().CompatibilitySelector)
}

func firstParagraph(r io.Reader, container string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrContentUnavailable, err)
	}

	p := doc.Find(container).First().Find(config.SelectorParagraph).First()
	if p.Length() == 0 {
		return "", fmt.Errorf("%w: %s %q", ErrContentUnavailable, config.ErrElementMissing, container)
	}

	text := nodeText(p.Get(0))
	if text == "" {
		return "", fmt.Errorf("%w: %s %q", ErrContentUnavailable, config.ErrElementMissing, container)
	}
	return text, nil
}

// nodeText concatenates the text below n, skipping script and style, and
// collapses runs of whitespace to single spaces.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "br":
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
