package renderer

import (
	"fmt"
	"html"

	"github.com/amirphl/issue-composer/blocks"
)

const sectionOpen = `<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="margin:0 0 24px;border-collapse:separate;">`

// wrapSection places rendered blocks in the shared card. showName selects the headered variant.
func wrapSection(s section, content string, styles blocks.StyleOptions) string {
	if !s.showName || s.name == "" {
		return sectionOpen +
			`<tr><td style="padding:20px;background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;">` +
			content +
			`</td></tr></table>`
	}

	header := fmt.Sprintf(
		`<tr><td style="padding:10px 20px;background-color:%s;border-radius:12px 12px 0 0;font-family:%s;font-size:14px;font-weight:bold;letter-spacing:1px;text-transform:uppercase;color:#ffffff;">%s</td></tr>`,
		html.EscapeString(styles.PrimaryColor), html.EscapeString(styles.HeadingFont), html.EscapeString(s.name),
	)
	return sectionOpen + header +
		`<tr><td style="padding:20px;background-color:#ffffff;border:1px solid #e5e7eb;border-top:0;border-radius:0 0 12px 12px;">` +
		content +
		`</td></tr></table>`
}
