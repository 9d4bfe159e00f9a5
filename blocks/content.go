// Package blocks renders the abstract building blocks every module section is composed of.
package blocks

import (
	"time"

	"github.com/amirphl/issue-composer/models"
	"github.com/google/uuid"
)

// Option is one answer in an options block. An empty URL renders static text.
type Option struct {
	Label string
	URL   string
}

// ContentData is the family-independent shape block renderers consume
type ContentData struct {
	Title      string
	Body       string
	BodyFormat models.BodyFormat
	ImageURL   string
	ImageAlt   string
	ButtonText string
	ButtonURL  string
	Question   string
	Options    []Option
	Label      string
}

// StyleOptions are the publication-level colors and fonts
type StyleOptions struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	HeadingFont    string `json:"heading_font"`
	BodyFont       string `json:"body_font"`
}

// RenderContext is per-call data for one render; it is never persisted
type RenderContext struct {
	IssueID         uuid.UUID
	IssueDate       time.Time
	ResponseBaseURL string
	TrackingParams  map[string]string
}
