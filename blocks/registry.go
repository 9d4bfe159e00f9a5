package blocks

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/amirphl/issue-composer/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var blockRenderSkipped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "block_render_skipped_total",
		Help: "Blocks skipped during rendering because of misconfiguration",
	},
	[]string{"reason"},
)

// Registry dispatches a block type to its pure render function
type Registry struct {
	logger *zap.Logger
	body   *BodyFormatter
}

// NewRegistry creates the block registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger: logger,
		body:   NewBodyFormatter(),
	}
}

// WithLogger returns a registry that logs through logger, typically one carrying module fields
func (r *Registry) WithLogger(logger *zap.Logger) *Registry {
	cp := *r
	cp.logger = logger
	return &cp
}

// Render renders one block. Values outside the BlockType enum render as "" and are logged.
func (r *Registry) Render(block models.BlockType, data ContentData, styles StyleOptions, rc *RenderContext) string {
	switch block {
	case models.BlockTitle:
		return renderTitle(data, styles)
	case models.BlockImage:
		return renderImage(data)
	case models.BlockBody:
		return renderBody(r.body.Format(data.Body, data.BodyFormat), styles)
	case models.BlockButton:
		return renderButton(data, styles)
	case models.BlockQuestion:
		return renderQuestion(data, styles)
	case models.BlockOptions:
		return renderOptions(data, styles)
	case models.BlockLabel:
		return renderLabel(data, styles)
	default:
		blockRenderSkipped.WithLabelValues("unknown_block").Inc()
		r.logger.Warn("Unknown block type", zap.Uint8("block_type", uint8(block)))
		return ""
	}
}

// RenderMany concatenates blocks in the given order
func (r *Registry) RenderMany(order []models.BlockType, data ContentData, styles StyleOptions, rc *RenderContext) string {
	var sb strings.Builder
	for _, block := range order {
		sb.WriteString(r.Render(block, data, styles, rc))
	}
	return sb.String()
}

// RenderNamed renders a configured block order, skipping names that are not block types
func (r *Registry) RenderNamed(order []string, data ContentData, styles StyleOptions, rc *RenderContext) string {
	var sb strings.Builder
	for _, name := range order {
		block, ok := models.ParseBlockType(name)
		if !ok {
			blockRenderSkipped.WithLabelValues("unknown_block").Inc()
			r.logger.Warn("Unknown block type in block order", zap.String("block", name))
			continue
		}
		sb.WriteString(r.Render(block, data, styles, rc))
	}
	return sb.String()
}

func esc(s string) string {
	return html.EscapeString(s)
}

// safeURL keeps absolute http(s) and mailto links only
func safeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return ""
		}
		return raw
	case "mailto":
		return raw
	default:
		return ""
	}
}

func renderTitle(data ContentData, styles StyleOptions) string {
	if strings.TrimSpace(data.Title) == "" {
		return ""
	}
	return fmt.Sprintf(
		`<h2 style="margin:0 0 12px;font-family:%s;font-size:22px;line-height:1.3;color:%s;">%s</h2>`,
		esc(styles.HeadingFont), esc(styles.PrimaryColor), esc(data.Title),
	)
}

func renderImage(data ContentData) string {
	src := safeURL(data.ImageURL)
	if src == "" {
		return ""
	}
	return fmt.Sprintf(
		`<img src="%s" alt="%s" style="display:block;width:100%%;height:auto;border:0;border-radius:8px;margin:0 0 12px;" />`,
		esc(src), esc(data.ImageAlt),
	)
}

func renderBody(formatted string, styles StyleOptions) string {
	if formatted == "" {
		return ""
	}
	return fmt.Sprintf(
		`<div style="margin:0 0 12px;font-family:%s;font-size:16px;line-height:1.6;color:#333333;">%s</div>`,
		esc(styles.BodyFont), formatted,
	)
}

func renderButton(data ContentData, styles StyleOptions) string {
	href := safeURL(data.ButtonURL)
	if href == "" || strings.TrimSpace(data.ButtonText) == "" {
		return ""
	}
	return fmt.Sprintf(
		`<p style="margin:16px 0 0;"><a href="%s" style="display:inline-block;padding:10px 18px;border-radius:6px;background-color:%s;color:#ffffff;font-family:%s;font-weight:bold;text-decoration:none;">%s</a></p>`,
		esc(href), esc(styles.PrimaryColor), esc(styles.BodyFont), esc(data.ButtonText),
	)
}

func renderQuestion(data ContentData, styles StyleOptions) string {
	if strings.TrimSpace(data.Question) == "" {
		return ""
	}
	return fmt.Sprintf(
		`<p style="margin:0 0 12px;font-family:%s;font-size:17px;font-weight:bold;color:#222222;">%s</p>`,
		esc(styles.BodyFont), esc(data.Question),
	)
}

func renderOptions(data ContentData, styles StyleOptions) string {
	var rows strings.Builder
	for _, opt := range data.Options {
		if strings.TrimSpace(opt.Label) == "" {
			continue
		}
		if href := safeURL(opt.URL); href != "" {
			fmt.Fprintf(&rows,
				`<tr><td style="padding:4px 0;"><a href="%s" style="display:block;padding:10px 14px;border:1px solid %s;border-radius:6px;color:%s;font-family:%s;text-decoration:none;">%s</a></td></tr>`,
				esc(href), esc(styles.PrimaryColor), esc(styles.PrimaryColor), esc(styles.BodyFont), esc(opt.Label),
			)
			continue
		}
		fmt.Fprintf(&rows,
			`<tr><td style="padding:4px 0;"><span style="display:block;padding:10px 14px;border:1px solid %s;border-radius:6px;color:#333333;font-family:%s;">%s</span></td></tr>`,
			esc(styles.SecondaryColor), esc(styles.BodyFont), esc(opt.Label),
		)
	}
	if rows.Len() == 0 {
		return ""
	}
	return `<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="margin:0 0 12px;">` + rows.String() + `</table>`
}

func renderLabel(data ContentData, styles StyleOptions) string {
	if strings.TrimSpace(data.Label) == "" {
		return ""
	}
	return fmt.Sprintf(
		`<p style="margin:0 0 8px;font-family:%s;font-size:11px;letter-spacing:1px;text-transform:uppercase;color:%s;">%s</p>`,
		esc(styles.BodyFont), esc(styles.SecondaryColor), esc(data.Label),
	)
}
