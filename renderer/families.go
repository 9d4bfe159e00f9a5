package renderer

import (
	"context"

	"github.com/amirphl/issue-composer/blocks"
	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures the renderers
type Options struct {
	Registry      *blocks.Registry
	Styles        StyleProvider
	Tracker       TrackingURLBuilder
	DefaultStyles blocks.StyleOptions
	Logger        *zap.Logger
}

// Set bundles one renderer per module family
type Set struct {
	Ad       *AdRenderer
	Poll     *PollRenderer
	Prompt   *PromptRenderer
	Feedback *FeedbackRenderer
	TextBox  *TextBoxRenderer
}

// NewSet creates the renderers for every family over one shared engine
func NewSet(opts Options) *Set {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := opts.Registry
	if registry == nil {
		registry = blocks.NewRegistry(logger)
	}
	e := &engine{
		registry: registry,
		styles:   opts.Styles,
		tracker:  opts.Tracker,
		fallback: opts.DefaultStyles,
		logger:   logger,
	}
	return &Set{
		Ad:       &AdRenderer{e: e},
		Poll:     &PollRenderer{e: e},
		Prompt:   &PromptRenderer{e: e},
		Feedback: &FeedbackRenderer{e: e},
		TextBox:  &TextBoxRenderer{e: e},
	}
}

// RenderArchive renders any family's frozen snapshot; archives never need the live module
func (s *Set) RenderArchive(family models.ModuleFamily, moduleName string, showName bool, snapshot *models.ContentSnapshot, blockOrder []string, styles blocks.StyleOptions) Result {
	sec := section{family: family, name: moduleName, showName: showName, blockOrder: blockOrder}
	return s.Ad.e.renderArchive(sec, snapshot, styles)
}

func liveSnapshot(item models.Item) *models.ContentSnapshot {
	snap := item.Snapshot(utils.UTCNow())
	return &snap
}

// AdRenderer renders ad sections
type AdRenderer struct{ e *engine }

// RenderLive renders the ad with its call to action routed through link tracking
func (r *AdRenderer) RenderLive(ctx context.Context, module *models.AdModule, item *models.Ad, publicationID uuid.UUID, rc *blocks.RenderContext) Result {
	if module == nil || item == nil {
		return Result{Mode: ModeLive, Family: models.ModuleFamilyAd}
	}
	return r.e.renderLive(ctx, sectionOf(models.ModuleFamilyAd, &module.ModuleBase), liveSnapshot(item), publicationID, rc)
}

// RenderPreview renders the ad with its raw URL
func (r *AdRenderer) RenderPreview(ctx context.Context, module *models.AdModule, item *models.Ad, publicationID uuid.UUID) Result {
	if module == nil || item == nil {
		return Result{Mode: ModePreview, Family: models.ModuleFamilyAd}
	}
	return r.e.renderPreview(ctx, sectionOf(models.ModuleFamilyAd, &module.ModuleBase), liveSnapshot(item), publicationID)
}

// RenderArchive renders a frozen ad snapshot
func (r *AdRenderer) RenderArchive(moduleName string, showName bool, snapshot *models.ContentSnapshot, blockOrder []string, styles blocks.StyleOptions) Result {
	sec := section{family: models.ModuleFamilyAd, name: moduleName, showName: showName, blockOrder: blockOrder}
	return r.e.renderArchive(sec, snapshot, styles)
}

// PollRenderer renders poll sections
type PollRenderer struct{ e *engine }

// RenderLive renders the poll with one response link per option
func (r *PollRenderer) RenderLive(ctx context.Context, module *models.PollModule, item *models.Poll, publicationID uuid.UUID, rc *blocks.RenderContext) Result {
	if module == nil || item == nil {
		return Result{Mode: ModeLive, Family: models.ModuleFamilyPoll}
	}
	return r.e.renderLive(ctx, sectionOf(models.ModuleFamilyPoll, &module.ModuleBase), liveSnapshot(item), publicationID, rc)
}

// RenderPreview renders the poll with static options
func (r *PollRenderer) RenderPreview(ctx context.Context, module *models.PollModule, item *models.Poll, publicationID uuid.UUID) Result {
	if module == nil || item == nil {
		return Result{Mode: ModePreview, Family: models.ModuleFamilyPoll}
	}
	return r.e.renderPreview(ctx, sectionOf(models.ModuleFamilyPoll, &module.ModuleBase), liveSnapshot(item), publicationID)
}

// RenderArchive renders a frozen poll snapshot
func (r *PollRenderer) RenderArchive(moduleName string, showName bool, snapshot *models.ContentSnapshot, blockOrder []string, styles blocks.StyleOptions) Result {
	sec := section{family: models.ModuleFamilyPoll, name: moduleName, showName: showName, blockOrder: blockOrder}
	return r.e.renderArchive(sec, snapshot, styles)
}

// PromptRenderer renders prompt card sections
type PromptRenderer struct{ e *engine }

// RenderLive renders the prompt card with its "try it" link tracked
func (r *PromptRenderer) RenderLive(ctx context.Context, module *models.PromptModule, item *models.PromptIdea, publicationID uuid.UUID, rc *blocks.RenderContext) Result {
	if module == nil || item == nil {
		return Result{Mode: ModeLive, Family: models.ModuleFamilyPrompt}
	}
	return r.e.renderLive(ctx, sectionOf(models.ModuleFamilyPrompt, &module.ModuleBase), liveSnapshot(item), publicationID, rc)
}

// RenderPreview renders the prompt card with its raw URL
func (r *PromptRenderer) RenderPreview(ctx context.Context, module *models.PromptModule, item *models.PromptIdea, publicationID uuid.UUID) Result {
	if module == nil || item == nil {
		return Result{Mode: ModePreview, Family: models.ModuleFamilyPrompt}
	}
	return r.e.renderPreview(ctx, sectionOf(models.ModuleFamilyPrompt, &module.ModuleBase), liveSnapshot(item), publicationID)
}

// RenderArchive renders a frozen prompt snapshot
func (r *PromptRenderer) RenderArchive(moduleName string, showName bool, snapshot *models.ContentSnapshot, blockOrder []string, styles blocks.StyleOptions) Result {
	sec := section{family: models.ModuleFamilyPrompt, name: moduleName, showName: showName, blockOrder: blockOrder}
	return r.e.renderArchive(sec, snapshot, styles)
}

// FeedbackRenderer renders feedback sections. The module is its own content;
// a nil item means the editor cleared it for this issue.
type FeedbackRenderer struct{ e *engine }

// RenderLive renders the feedback question with vote links
func (r *FeedbackRenderer) RenderLive(ctx context.Context, module *models.FeedbackModule, item *models.FeedbackModule, publicationID uuid.UUID, rc *blocks.RenderContext) Result {
	if module == nil || item == nil {
		return Result{Mode: ModeLive, Family: models.ModuleFamilyFeedback}
	}
	return r.e.renderLive(ctx, sectionOf(models.ModuleFamilyFeedback, &module.ModuleBase), liveSnapshot(item), publicationID, rc)
}

// RenderPreview renders the feedback question with static options
func (r *FeedbackRenderer) RenderPreview(ctx context.Context, module *models.FeedbackModule, item *models.FeedbackModule, publicationID uuid.UUID) Result {
	if module == nil || item == nil {
		return Result{Mode: ModePreview, Family: models.ModuleFamilyFeedback}
	}
	return r.e.renderPreview(ctx, sectionOf(models.ModuleFamilyFeedback, &module.ModuleBase), liveSnapshot(item), publicationID)
}

// RenderArchive renders a frozen feedback snapshot
func (r *FeedbackRenderer) RenderArchive(moduleName string, showName bool, snapshot *models.ContentSnapshot, blockOrder []string, styles blocks.StyleOptions) Result {
	sec := section{family: models.ModuleFamilyFeedback, name: moduleName, showName: showName, blockOrder: blockOrder}
	return r.e.renderArchive(sec, snapshot, styles)
}

// TextBoxRenderer renders free-text sections
type TextBoxRenderer struct{ e *engine }

// RenderLive renders the text box; text boxes carry no outbound links of their own
func (r *TextBoxRenderer) RenderLive(ctx context.Context, module *models.TextBoxModule, item *models.TextBoxItem, publicationID uuid.UUID, rc *blocks.RenderContext) Result {
	if module == nil || item == nil || item.Module == nil {
		return Result{Mode: ModeLive, Family: models.ModuleFamilyTextBox}
	}
	return r.e.renderLive(ctx, sectionOf(models.ModuleFamilyTextBox, &module.ModuleBase), liveSnapshot(item), publicationID, rc)
}

// RenderPreview renders the text box
func (r *TextBoxRenderer) RenderPreview(ctx context.Context, module *models.TextBoxModule, item *models.TextBoxItem, publicationID uuid.UUID) Result {
	if module == nil || item == nil || item.Module == nil {
		return Result{Mode: ModePreview, Family: models.ModuleFamilyTextBox}
	}
	return r.e.renderPreview(ctx, sectionOf(models.ModuleFamilyTextBox, &module.ModuleBase), liveSnapshot(item), publicationID)
}

// RenderArchive renders a frozen text box snapshot
func (r *TextBoxRenderer) RenderArchive(moduleName string, showName bool, snapshot *models.ContentSnapshot, blockOrder []string, styles blocks.StyleOptions) Result {
	sec := section{family: models.ModuleFamilyTextBox, name: moduleName, showName: showName, blockOrder: blockOrder}
	return r.e.renderArchive(sec, snapshot, styles)
}

// RenderModule renders a resolved module and item in live or preview mode, dispatching on the module's family.
// A nil item, or an item of the wrong type for the module, renders nothing.
func (s *Set) RenderModule(ctx context.Context, mode Mode, module models.Module, item models.Item, publicationID uuid.UUID, rc *blocks.RenderContext) Result {
	live := mode == ModeLive
	switch m := module.(type) {
	case *models.AdModule:
		ad, _ := item.(*models.Ad)
		if live {
			return s.Ad.RenderLive(ctx, m, ad, publicationID, rc)
		}
		return s.Ad.RenderPreview(ctx, m, ad, publicationID)
	case *models.PollModule:
		poll, _ := item.(*models.Poll)
		if live {
			return s.Poll.RenderLive(ctx, m, poll, publicationID, rc)
		}
		return s.Poll.RenderPreview(ctx, m, poll, publicationID)
	case *models.PromptModule:
		idea, _ := item.(*models.PromptIdea)
		if live {
			return s.Prompt.RenderLive(ctx, m, idea, publicationID, rc)
		}
		return s.Prompt.RenderPreview(ctx, m, idea, publicationID)
	case *models.FeedbackModule:
		fb, _ := item.(*models.FeedbackModule)
		if live {
			return s.Feedback.RenderLive(ctx, m, fb, publicationID, rc)
		}
		return s.Feedback.RenderPreview(ctx, m, fb, publicationID)
	case *models.TextBoxModule:
		tb, _ := item.(*models.TextBoxItem)
		if live {
			return s.TextBox.RenderLive(ctx, m, tb, publicationID, rc)
		}
		return s.TextBox.RenderPreview(ctx, m, tb, publicationID)
	default:
		return Result{Mode: mode}
	}
}
