// Package diagram bridges the graph model and the server-rendered static
// diagram: it normalizes returned SVG text for embedding, strips executable
// content, and keeps the last-good diagram visible across re-renders.
package diagram

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	scriptPattern  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	numericPattern = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
)

// FitToContainer rewrites an SVG document so it always scales with its
// container: both sizing attributes are forced to 100% and a viewBox is
// synthesized from the authored dimensions when absent (800x600 when those
// are missing too). Unparseable input is returned unchanged.
func FitToContainer(svg string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(svg))
	if err != nil {
		return svg
	}
	sel := doc.Find("svg").First()
	if sel.Length() == 0 {
		return svg
	}

	width := firstNumber(sel.AttrOr("width", ""), 800)
	height := firstNumber(sel.AttrOr("height", ""), 600)

	sel.SetAttr("width", "100%")
	sel.SetAttr("height", "100%")
	// html parsing lowercases authored attribute names, so probe both forms.
	if _, ok := sel.Attr("viewbox"); !ok {
		if _, ok := sel.Attr("viewBox"); !ok {
			sel.SetAttr("viewBox", fmt.Sprintf("0 0 %d %d", width, height))
		}
	}

	out, err := goquery.OuterHtml(sel)
	if err != nil {
		return svg
	}
	return out
}

// Sanitize strips executable content from diagram text: script elements and
// inline event-handler attributes. It is mandatory on every path that turns
// diagram text into a downloadable or openable artifact, and is applied
// uniformly before display as well.
func Sanitize(svg string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(svg))
	if err != nil {
		return scriptPattern.ReplaceAllString(svg, "")
	}
	sel := doc.Find("svg").First()
	if sel.Length() == 0 {
		return scriptPattern.ReplaceAllString(svg, "")
	}

	sel.Find("script").Remove()
	stripEventHandlers(sel)
	sel.Find("*").Each(func(_ int, child *goquery.Selection) {
		stripEventHandlers(child)
	})

	out, err := goquery.OuterHtml(sel)
	if err != nil {
		return scriptPattern.ReplaceAllString(svg, "")
	}
	return out
}

func stripEventHandlers(sel *goquery.Selection) {
	for _, node := range sel.Nodes {
		kept := node.Attr[:0]
		for _, attr := range node.Attr {
			if strings.HasPrefix(strings.ToLower(attr.Key), "on") {
				continue
			}
			kept = append(kept, attr)
		}
		node.Attr = kept
	}
}

// firstNumber extracts the leading numeric component of a sizing attribute
// ("640", "640px", "640.5pt"), falling back when there is none.
func firstNumber(attr string, fallback int) int {
	match := numericPattern.FindString(attr)
	if match == "" {
		return fallback
	}
	var f float64
	if _, err := fmt.Sscanf(match, "%g", &f); err != nil {
		return fallback
	}
	return int(f)
}
