// Package renderer turns a module instance and its chosen content into section markup
package renderer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/issue-composer/blocks"
	"github.com/amirphl/issue-composer/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mode is the purpose a section is rendered for
type Mode string

const (
	// ModeLive renders the outgoing issue with tracked links and response links
	ModeLive Mode = "live"
	// ModePreview renders for editors; nothing is tracked and options are not clickable
	ModePreview Mode = "preview"
	// ModeArchive renders from frozen snapshots only
	ModeArchive Mode = "archive"
)

// Valid checks if the mode is known
func (m Mode) Valid() bool {
	switch m {
	case ModeLive, ModePreview, ModeArchive:
		return true
	default:
		return false
	}
}

// StyleProvider resolves publication-level styling
type StyleProvider interface {
	StylesFor(ctx context.Context, publicationID uuid.UUID) (blocks.StyleOptions, error)
}

// TrackingURLBuilder wraps an outbound URL so clicks can be attributed to a section of an issue
type TrackingURLBuilder interface {
	Wrap(ctx context.Context, rawURL, sectionName string, issueDate time.Time, issueID uuid.UUID) (string, error)
}

// Result is the markup of one section. Empty HTML means the module contributes nothing.
type Result struct {
	HTML   string
	Mode   Mode
	Family models.ModuleFamily
	ItemID *uint
}

// Empty reports whether the section has no markup
func (r Result) Empty() bool {
	return r.HTML == ""
}

// section is the family-independent part of a module instance the wrapper needs
type section struct {
	family     models.ModuleFamily
	name       string
	showName   bool
	blockOrder []string
}

func sectionOf(family models.ModuleFamily, base *models.ModuleBase) section {
	return section{
		family:     family,
		name:       base.Name,
		showName:   base.ShowName,
		blockOrder: base.BlockOrder,
	}
}

// engine holds what every family renderer shares
type engine struct {
	registry *blocks.Registry
	styles   StyleProvider
	tracker  TrackingURLBuilder
	fallback blocks.StyleOptions
	logger   *zap.Logger
}

func (e *engine) stylesFor(ctx context.Context, publicationID uuid.UUID) blocks.StyleOptions {
	if e.styles == nil {
		return e.fallback
	}
	styles, err := e.styles.StylesFor(ctx, publicationID)
	if err != nil {
		e.logger.Warn("Style lookup failed, using defaults",
			zap.String("publication_id", publicationID.String()),
			zap.Error(err))
		return e.fallback
	}
	return withDefaults(styles, e.fallback)
}

func withDefaults(styles, fallback blocks.StyleOptions) blocks.StyleOptions {
	if styles.PrimaryColor == "" {
		styles.PrimaryColor = fallback.PrimaryColor
	}
	if styles.SecondaryColor == "" {
		styles.SecondaryColor = fallback.SecondaryColor
	}
	if styles.HeadingFont == "" {
		styles.HeadingFont = fallback.HeadingFont
	}
	if styles.BodyFont == "" {
		styles.BodyFont = fallback.BodyFont
	}
	return styles
}

func (e *engine) track(ctx context.Context, rawURL, sectionName string, rc *blocks.RenderContext) string {
	if e.tracker == nil || rc == nil || rawURL == "" {
		return rawURL
	}
	tracked, err := e.tracker.Wrap(ctx, rawURL, sectionName, rc.IssueDate, rc.IssueID)
	if err != nil || tracked == "" {
		e.logger.Warn("Tracking URL construction failed, using raw URL",
			zap.String("section", sectionName),
			zap.String("issue_id", rc.IssueID.String()),
			zap.Error(err))
		return rawURL
	}
	return tracked
}

// optionURL builds the response link readers follow to answer a poll or feedback question
func optionURL(family models.ModuleFamily, rc *blocks.RenderContext, itemID, optionID uint) string {
	if rc == nil || rc.ResponseBaseURL == "" {
		return ""
	}
	base := strings.TrimRight(rc.ResponseBaseURL, "/")
	switch family {
	case models.ModuleFamilyPoll:
		return fmt.Sprintf("%s/poll/%s/%d?option=%d", base, rc.IssueID, itemID, optionID)
	case models.ModuleFamilyFeedback:
		return fmt.Sprintf("%s/feedback/%s/%d?vote=%d", base, rc.IssueID, itemID, optionID)
	default:
		return ""
	}
}

// contentData converts a snapshot into the registry's shape with static options
func contentData(snap models.ContentSnapshot) blocks.ContentData {
	var options []blocks.Option
	for _, o := range snap.Options {
		options = append(options, blocks.Option{Label: o.Label})
	}
	return blocks.ContentData{
		Title:      snap.Title,
		Body:       snap.Body,
		BodyFormat: snap.BodyFormat,
		ImageURL:   snap.ImageURL,
		ImageAlt:   snap.ImageAlt,
		ButtonText: snap.ButtonText,
		ButtonURL:  snap.ButtonURL,
		Question:   snap.Question,
		Options:    options,
		Label:      snap.Label,
	}
}

func (e *engine) renderLive(ctx context.Context, s section, snap *models.ContentSnapshot, publicationID uuid.UUID, rc *blocks.RenderContext) Result {
	if snap == nil {
		return Result{Mode: ModeLive, Family: s.family}
	}
	data := contentData(*snap)
	data.ButtonURL = e.track(ctx, data.ButtonURL, s.name, rc)
	for i, o := range snap.Options {
		data.Options[i].URL = optionURL(s.family, rc, snap.ItemID, o.ID)
	}
	return e.compose(s, data, e.stylesFor(ctx, publicationID), rc, ModeLive, snap.ItemID)
}

func (e *engine) renderPreview(ctx context.Context, s section, snap *models.ContentSnapshot, publicationID uuid.UUID) Result {
	if snap == nil {
		return Result{Mode: ModePreview, Family: s.family}
	}
	return e.compose(s, contentData(*snap), e.stylesFor(ctx, publicationID), nil, ModePreview, snap.ItemID)
}

func (e *engine) renderArchive(s section, snap *models.ContentSnapshot, styles blocks.StyleOptions) Result {
	if snap == nil {
		return Result{Mode: ModeArchive, Family: s.family}
	}
	return e.compose(s, contentData(*snap), withDefaults(styles, e.fallback), nil, ModeArchive, snap.ItemID)
}

func (e *engine) compose(s section, data blocks.ContentData, styles blocks.StyleOptions, rc *blocks.RenderContext, mode Mode, itemID uint) Result {
	empty := Result{Mode: mode, Family: s.family}
	if len(s.blockOrder) == 0 {
		e.logger.Warn("Module has an empty block order, skipping",
			zap.String("family", s.family.String()),
			zap.String("module", s.name))
		return empty
	}

	registry := e.registry.WithLogger(e.logger.With(
		zap.String("family", s.family.String()),
		zap.String("module", s.name)))
	content := registry.RenderNamed(s.blockOrder, data, styles, rc)
	if content == "" {
		return empty
	}

	id := itemID
	return Result{
		HTML:   wrapSection(s, content, styles),
		Mode:   mode,
		Family: s.family,
		ItemID: &id,
	}
}
