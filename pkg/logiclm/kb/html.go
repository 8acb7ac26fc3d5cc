package kb

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/cognicore/logiclm/pkg/logiclm/syntax"
)

// ExtractHTML collects clause lines from the <pre> and <code> blocks of an
// HTML page. Only lines the syntax check accepts are kept, each once, in
// document order.
func ExtractHTML(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "pre" || n.Data == "code") {
			// A <code> nested in <pre> is collected with its parent.
			blocks = append(blocks, textContent(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	seen := make(map[string]bool)
	var lines []string
	for _, block := range blocks {
		for _, raw := range strings.Split(block, "\n") {
			line := strings.TrimSpace(raw)
			if line == "" || seen[line] || len(syntax.Validate(line)) > 0 {
				continue
			}
			seen[line] = true
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}
