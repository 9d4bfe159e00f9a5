package blocks

import (
	"strings"
	"testing"

	"github.com/amirphl/issue-composer/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testStyles = StyleOptions{
	PrimaryColor:   "#1a73e8",
	SecondaryColor: "#5f6368",
	HeadingFont:    "Georgia, serif",
	BodyFont:       "Arial, sans-serif",
}

func fullContent() ContentData {
	return ContentData{
		Title:      "Weekly pick",
		Body:       "Line one\nLine two",
		BodyFormat: models.BodyFormatText,
		ImageURL:   "https://cdn.example.com/a.png",
		ImageAlt:   "A picture",
		ButtonText: "Read more",
		ButtonURL:  "https://example.com/read",
		Question:   "Did you like it?",
		Options:    []Option{{Label: "Yes", URL: "https://example.com/v?o=1"}, {Label: "No"}},
		Label:      "Sponsored",
	}
}

func newObservedRegistry() (*Registry, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return NewRegistry(zap.New(core)), logs
}

func TestRenderEachBlock(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	data := fullContent()

	assert.Equal(t,
		`<h2 style="margin:0 0 12px;font-family:Georgia, serif;font-size:22px;line-height:1.3;color:#1a73e8;">Weekly pick</h2>`,
		r.Render(models.BlockTitle, data, testStyles, nil))

	assert.Equal(t,
		`<img src="https://cdn.example.com/a.png" alt="A picture" style="display:block;width:100%;height:auto;border:0;border-radius:8px;margin:0 0 12px;" />`,
		r.Render(models.BlockImage, data, testStyles, nil))

	assert.Equal(t,
		`<div style="margin:0 0 12px;font-family:Arial, sans-serif;font-size:16px;line-height:1.6;color:#333333;">Line one<br />Line two</div>`,
		r.Render(models.BlockBody, data, testStyles, nil))

	assert.Equal(t,
		`<p style="margin:16px 0 0;"><a href="https://example.com/read" style="display:inline-block;padding:10px 18px;border-radius:6px;background-color:#1a73e8;color:#ffffff;font-family:Arial, sans-serif;font-weight:bold;text-decoration:none;">Read more</a></p>`,
		r.Render(models.BlockButton, data, testStyles, nil))

	assert.Equal(t,
		`<p style="margin:0 0 12px;font-family:Arial, sans-serif;font-size:17px;font-weight:bold;color:#222222;">Did you like it?</p>`,
		r.Render(models.BlockQuestion, data, testStyles, nil))

	assert.Equal(t,
		`<p style="margin:0 0 8px;font-family:Arial, sans-serif;font-size:11px;letter-spacing:1px;text-transform:uppercase;color:#5f6368;">Sponsored</p>`,
		r.Render(models.BlockLabel, data, testStyles, nil))

	options := r.Render(models.BlockOptions, data, testStyles, nil)
	assert.True(t, strings.HasPrefix(options, `<table role="presentation"`))
	assert.Contains(t, options, `<a href="https://example.com/v?o=1"`)
	assert.Contains(t, options, `<span style="display:block;padding:10px 14px;border:1px solid #5f6368;`)
	assert.Equal(t, 2, strings.Count(options, "<tr>"))
}

func TestRenderMissingDataReturnsEmpty(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	empty := ContentData{}

	for _, block := range []models.BlockType{
		models.BlockTitle, models.BlockImage, models.BlockBody, models.BlockButton,
		models.BlockQuestion, models.BlockOptions, models.BlockLabel,
	} {
		assert.Empty(t, r.Render(block, empty, testStyles, nil), block.String())
	}

	// a button needs both text and a usable URL
	assert.Empty(t, r.Render(models.BlockButton, ContentData{ButtonText: "Go"}, testStyles, nil))
	assert.Empty(t, r.Render(models.BlockButton, ContentData{ButtonURL: "https://x.test"}, testStyles, nil))
	// options with blank labels are dropped
	assert.Empty(t, r.Render(models.BlockOptions, ContentData{Options: []Option{{Label: "  "}}}, testStyles, nil))
	// whitespace-only body
	assert.Empty(t, r.Render(models.BlockBody, ContentData{Body: " \n "}, testStyles, nil))
}

func TestRenderRejectsUnsafeURLs(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	assert.Empty(t, r.Render(models.BlockImage, ContentData{ImageURL: "javascript:alert(1)"}, testStyles, nil))
	assert.Empty(t, r.Render(models.BlockImage, ContentData{ImageURL: "/relative.png"}, testStyles, nil))
	assert.Empty(t, r.Render(models.BlockButton, ContentData{ButtonText: "x", ButtonURL: "data:text/html,hi"}, testStyles, nil))

	// an unsafe option link degrades to static text instead of disappearing
	out := r.Render(models.BlockOptions, ContentData{Options: []Option{{Label: "A", URL: "javascript:void(0)"}}}, testStyles, nil)
	assert.NotContains(t, out, "href")
	assert.Contains(t, out, ">A</span>")
}

func TestRenderEscapesContent(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	out := r.Render(models.BlockTitle, ContentData{Title: `<script>alert("x")</script>`}, testStyles, nil)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestRenderUnknownBlockTypeWarns(t *testing.T) {
	r, logs := newObservedRegistry()

	var out string
	require.NotPanics(t, func() {
		out = r.Render(models.BlockType(99), fullContent(), testStyles, nil)
	})
	assert.Empty(t, out)
	assert.Equal(t, 1, logs.FilterMessage("Unknown block type").Len())
}

func TestRenderManyKeepsOrder(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	data := fullContent()

	forward := r.RenderMany([]models.BlockType{models.BlockTitle, models.BlockBody}, data, testStyles, nil)
	reverse := r.RenderMany([]models.BlockType{models.BlockBody, models.BlockTitle}, data, testStyles, nil)

	title := r.Render(models.BlockTitle, data, testStyles, nil)
	body := r.Render(models.BlockBody, data, testStyles, nil)
	assert.Equal(t, title+body, forward)
	assert.Equal(t, body+title, reverse)

	// duplicates are rendered as given
	twice := r.RenderMany([]models.BlockType{models.BlockTitle, models.BlockTitle}, data, testStyles, nil)
	assert.Equal(t, title+title, twice)

	assert.Empty(t, r.RenderMany(nil, data, testStyles, nil))
}

func TestRenderNamedSkipsUnknownNames(t *testing.T) {
	r, logs := newObservedRegistry()
	data := fullContent()

	out := r.RenderNamed([]string{"title", "carousel", "body"}, data, testStyles, nil)
	assert.Equal(t,
		r.Render(models.BlockTitle, data, testStyles, nil)+r.Render(models.BlockBody, data, testStyles, nil),
		out)

	entries := logs.FilterMessage("Unknown block type in block order").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "carousel", entries[0].ContextMap()["block"])
}

func TestRenderIsPure(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	data := fullContent()
	order := []models.BlockType{models.BlockLabel, models.BlockTitle, models.BlockImage, models.BlockBody, models.BlockButton}
	first := r.RenderMany(order, data, testStyles, nil)
	for range 5 {
		assert.Equal(t, first, r.RenderMany(order, data, testStyles, nil))
	}
}
