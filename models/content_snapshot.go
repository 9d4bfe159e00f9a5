package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// BodyFormat tells the body block how to interpret stored text
type BodyFormat string

const (
	BodyFormatText     BodyFormat = "text"
	BodyFormatMarkdown BodyFormat = "markdown"
	BodyFormatHTML     BodyFormat = "html"
)

// SnapshotOption is one frozen answer of a poll or feedback question
type SnapshotOption struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
}

// SectionFrame is the module presentation captured alongside a snapshot
type SectionFrame struct {
	ModuleName   string   `json:"module_name"`
	ShowName     bool     `json:"show_name"`
	DisplayOrder int      `json:"display_order"`
	BlockOrder   []string `json:"block_order"`
}

// FrameOf captures the presentation of a module as it is right now
func FrameOf(m *ModuleBase) *SectionFrame {
	if m == nil {
		return nil
	}
	return &SectionFrame{
		ModuleName:   m.Name,
		ShowName:     m.ShowName,
		DisplayOrder: m.DisplayOrder,
		BlockOrder:   append([]string(nil), m.BlockOrder...),
	}
}

// ContentSnapshot is the frozen, rendering-relevant copy of a content item.
// It is written once when an issue is sent and never re-derived from live rows.
type ContentSnapshot struct {
	Family     ModuleFamily     `json:"family"`
	ItemID     uint             `json:"item_id"`
	Title      string           `json:"title,omitempty"`
	Body       string           `json:"body,omitempty"`
	BodyFormat BodyFormat       `json:"body_format,omitempty"`
	ImageURL   string           `json:"image_url,omitempty"`
	ImageAlt   string           `json:"image_alt,omitempty"`
	ButtonText string           `json:"button_text,omitempty"`
	ButtonURL  string           `json:"button_url,omitempty"`
	Question   string           `json:"question,omitempty"`
	Options    []SnapshotOption `json:"options,omitempty"`
	Label      string           `json:"label,omitempty"`
	Section    *SectionFrame    `json:"section,omitempty"`
	CapturedAt time.Time        `json:"captured_at"`
}

// OptionsCopy returns the options without sharing the backing array
func (s ContentSnapshot) OptionsCopy() []SnapshotOption {
	if len(s.Options) == 0 {
		return nil
	}
	out := make([]SnapshotOption, len(s.Options))
	copy(out, s.Options)
	return out
}

// Value implements the driver.Valuer interface for ContentSnapshot
func (s ContentSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for ContentSnapshot
func (s *ContentSnapshot) Scan(value any) error {
	if value == nil {
		*s = ContentSnapshot{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ContentSnapshot", value)
	}

	return json.Unmarshal(bytes, s)
}
