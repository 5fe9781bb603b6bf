package textnorm

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockTags become a newline boundary when stripped, so paragraph
// structure survives in the plain-text result.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "blockquote": true,
}

// HTMLToText removes script/style elements, turns block-level tag
// boundaries into newlines, strips all remaining tags, and runs the
// result through NormalizeText.
func HTMLToText(htmlBody string) string {
	if strings.TrimSpace(htmlBody) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return NormalizeText(htmlBody)
	}

	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, node *goquery.Selection) {
			if goquery.NodeName(node) == "#text" {
				b.WriteString(node.Text())
				return
			}
			walk(node)
			if blockTags[goquery.NodeName(node)] {
				b.WriteString("\n")
			}
		})
	}
	walk(doc.Selection)

	return NormalizeText(b.String())
}
