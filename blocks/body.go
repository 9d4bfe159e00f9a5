package blocks

import (
	"bytes"
	"html"
	"strings"

	"github.com/amirphl/issue-composer/models"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Linkify,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

// newBodyPolicy allows the inline formatting editors and generators produce, nothing executable
func newBodyPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em", "b", "i", "del",
		"h3", "h4", "hr",
	)

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("https", "http", "mailto")
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src", "alt").OnElements("img")

	return p
}

// BodyFormatter turns stored body text into safe inline markup
type BodyFormatter struct {
	policy *bluemonday.Policy
}

// NewBodyFormatter creates a formatter with the body sanitising policy
func NewBodyFormatter() *BodyFormatter {
	return &BodyFormatter{policy: newBodyPolicy()}
}

// Format renders body according to its format. Plain text keeps its line breaks.
func (f *BodyFormatter) Format(body string, format models.BodyFormat) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}

	switch format {
	case models.BodyFormatMarkdown:
		var buf bytes.Buffer
		if err := markdownEngine.Convert([]byte(body), &buf); err != nil {
			return plainText(body)
		}
		return strings.TrimSpace(f.policy.Sanitize(buf.String()))
	case models.BodyFormatHTML:
		return strings.TrimSpace(f.policy.Sanitize(body))
	default:
		return plainText(body)
	}
}

func plainText(body string) string {
	escaped := html.EscapeString(body)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return strings.ReplaceAll(escaped, "\n", "<br />")
}
