// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package extractor

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// blockElements start a new line in the extracted text.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true,
	"blockquote": true, "pre": true, "table": true, "ul": true, "ol": true,
}

// extractHTML returns the document title and its visible text. Script,
// style and noscript subtrees are skipped.
func extractHTML(content []byte) Document {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return Document{Text: string(content)}
	}

	w := &textWriter{}
	var title string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
			if blockElements[n.Data] {
				w.newline()
			}
		}
		if n.Type == html.TextNode {
			w.word(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			w.newline()
		}
	}
	walk(doc)

	return Document{Title: title, Text: strings.TrimSpace(w.sb.String())}
}

// textWriter collapses whitespace and never emits blank lines.
type textWriter struct {
	sb          strings.Builder
	lineStarted bool
}

func (w *textWriter) word(s string) {
	for _, f := range strings.Fields(s) {
		if w.lineStarted {
			w.sb.WriteByte(' ')
		}
		w.sb.WriteString(f)
		w.lineStarted = true
	}
}

func (w *textWriter) newline() {
	if w.lineStarted {
		w.sb.WriteByte('\n')
		w.lineStarted = false
	}
}
