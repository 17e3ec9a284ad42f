// Package ingest turns external source formats into documents ready
// for annotation. HTML pages are reduced to their main content and
// converted to markdown so that span offsets point at readable text.
package ingest

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/c360studio/medtext/document"
)

var excessiveLinesRe = regexp.MustCompile(`\n{4,}`)

// HTMLConverter converts HTML pages into documents. Extraction of the
// main content goes through readability first, with a DOM-pruning
// fallback for pages it cannot handle.
type HTMLConverter struct {
	converter *md.Converter
	logger    *slog.Logger
}

// NewHTMLConverter creates a converter logging through the given
// logger, or slog.Default when nil.
func NewHTMLConverter(logger *slog.Logger) *HTMLConverter {
	if logger == nil {
		logger = slog.Default()
	}
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &HTMLConverter{converter: converter, logger: logger}
}

// Convert builds a document from an HTML page. The document text is the
// markdown rendition of the page's main content; title and source URL
// land in the document metadata.
func (c *HTMLConverter) Convert(htmlContent []byte, sourceURL string) (*document.Document, error) {
	pageURL := &url.URL{}
	if sourceURL != "" {
		parsed, err := url.Parse(sourceURL)
		if err != nil {
			return nil, fmt.Errorf("parse source url: %w", err)
		}
		pageURL = parsed
	}

	title := extractHTMLTitle(htmlContent)

	content := ""
	article, err := readability.FromReader(bytes.NewReader(htmlContent), pageURL)
	if err == nil && article.Content != "" {
		content = article.Content
		if title == "" {
			title = article.Title
		}
	} else {
		if err != nil {
			c.logger.Warn("readability extraction failed, falling back to DOM pruning",
				"url", sourceURL, "error", err)
		}
		content = pruneToBody(htmlContent)
	}

	markdown, err := c.converter.ConvertString(content)
	if err != nil {
		return nil, fmt.Errorf("convert to markdown: %w", err)
	}
	markdown = cleanMarkdown(markdown)
	if title == "" {
		title = extractMarkdownTitle(markdown)
	}

	metadata := map[string]any{}
	if title != "" {
		metadata["title"] = title
	}
	if sourceURL != "" {
		metadata["source_url"] = sourceURL
	}
	return document.New(markdown, &document.Opts{Metadata: metadata})
}

// extractHTMLTitle returns the content of the first <title> element.
func extractHTMLTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for child := n.FirstChild; child != nil && title == ""; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return title
}

// pruneToBody strips non-content elements and renders the body back to
// HTML.
func pruneToBody(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return string(content)
	}

	dropTags := map[string]bool{
		"nav": true, "header": true, "footer": true, "aside": true,
		"script": true, "style": true, "noscript": true, "iframe": true,
		"form": true, "button": true,
	}
	var toDrop []*html.Node
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && dropTags[n.Data] {
			toDrop = append(toDrop, n)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(doc)
	for _, n := range toDrop {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}

	if body := findElement(doc, "body"); body != nil {
		var sb strings.Builder
		html.Render(&sb, body)
		return sb.String()
	}
	return string(content)
}

// findElement returns the first element with the given tag name.
func findElement(n *html.Node, tag string) *html.Node {
	var result *html.Node
	var find func(*html.Node)
	find = func(node *html.Node) {
		if result != nil {
			return
		}
		if node.Type == html.ElementNode && node.Data == tag {
			result = node
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			find(child)
		}
	}
	find(n)
	return result
}

// cleanMarkdown collapses excessive blank lines and trims trailing
// whitespace.
func cleanMarkdown(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractMarkdownTitle returns the first H1 heading of a markdown
// document.
func extractMarkdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
