package renderer

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/issue-composer/blocks"
	"github.com/amirphl/issue-composer/models"
	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var (
	testStyles = blocks.StyleOptions{
		PrimaryColor:   "#1a73e8",
		SecondaryColor: "#5f6368",
		HeadingFont:    "Georgia, serif",
		BodyFont:       "Arial, sans-serif",
	}
	fallbackStyles = blocks.StyleOptions{
		PrimaryColor:   "#111111",
		SecondaryColor: "#777777",
		HeadingFont:    "Helvetica",
		BodyFont:       "Verdana",
	}
	publicationID = uuid.MustParse("5b1f0c1e-8a51-4c0e-9f0b-7d2a4b9e1c33")
	issueID       = uuid.MustParse("0f8e2d3c-4b5a-4978-8a6b-5c4d3e2f1a00")
)

type fakeStyles struct {
	styles blocks.StyleOptions
	err    error
	calls  int
}

func (f *fakeStyles) StylesFor(_ context.Context, _ uuid.UUID) (blocks.StyleOptions, error) {
	f.calls++
	return f.styles, f.err
}

type fakeTracker struct {
	err   error
	calls []string
}

func (f *fakeTracker) Wrap(_ context.Context, rawURL, sectionName string, issueDate time.Time, id uuid.UUID) (string, error) {
	f.calls = append(f.calls, sectionName+"|"+rawURL)
	if f.err != nil {
		return "", f.err
	}
	return "https://t.example.com/" + id.String() + "/" + issueDate.Format(time.DateOnly) + "?u=" + rawURL, nil
}

func newTestSet(styles StyleProvider, tracker TrackingURLBuilder, logger *zap.Logger) *Set {
	return NewSet(Options{
		Styles:        styles,
		Tracker:       tracker,
		DefaultStyles: fallbackStyles,
		Logger:        logger,
	})
}

func testAdModule() *models.AdModule {
	return &models.AdModule{ModuleBase: models.ModuleBase{
		ID:            3,
		PublicationID: publicationID,
		Name:          "Our Sponsor",
		ShowName:      true,
		IsActive:      true,
		BlockOrder:    models.DefaultBlockOrder(models.ModuleFamilyAd),
	}}
}

func testAd() *models.Ad {
	return &models.Ad{
		ID:         7,
		Title:      "Ship faster with Acme",
		Body:       "Acme builds CI for small teams.\nTry it free for 30 days.",
		BodyFormat: models.BodyFormatText,
		ImageURL:   "https://cdn.example.com/acme.png",
		ImageAlt:   "Acme logo",
		ButtonText: "Start free trial",
		ButtonURL:  "https://acme.example.com/trial?ref=issue",
		Label:      "Sponsored",
		IsActive:   true,
	}
}

func testPollModule() *models.PollModule {
	return &models.PollModule{
		ModuleBase: models.ModuleBase{
			ID:            4,
			PublicationID: publicationID,
			Name:          "Poll",
			ShowName:      false,
			IsActive:      true,
			BlockOrder:    []string{"title", "image", "question", "options"},
		},
		SelectionMode: models.SelectionModeSequential,
		NextPosition:  1,
	}
}

func testPoll() *models.Poll {
	return &models.Poll{
		ID:       11,
		Title:    "Reader poll",
		Question: "Which topic next week?",
		Options:  []string{"Databases", "Networking", "Compilers"},
		IsActive: true,
	}
}

func renderContext() *blocks.RenderContext {
	return &blocks.RenderContext{
		IssueID:         issueID,
		IssueDate:       time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		ResponseBaseURL: "https://news.example.com/r/",
	}
}

func TestArchiveGolden(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	set := newTestSet(nil, nil, zap.NewNop())

	adSnap := testAd().Snapshot(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	ad := set.Ad.RenderArchive("Our Sponsor", true, &adSnap, models.DefaultBlockOrder(models.ModuleFamilyAd), testStyles)
	require.False(t, ad.Empty())
	g.Assert(t, "ad_archive_headered", []byte(ad.HTML))

	pollSnap := testPoll().Snapshot(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	poll := set.Poll.RenderArchive("Poll", false, &pollSnap, testPollModule().BlockOrder, testStyles)
	require.False(t, poll.Empty())
	g.Assert(t, "poll_archive_headerless", []byte(poll.HTML))
}

func TestPreviewMatchesArchiveOfSameContent(t *testing.T) {
	styles := &fakeStyles{styles: testStyles}
	set := newTestSet(styles, &fakeTracker{}, zap.NewNop())
	ctx := context.Background()

	module, ad := testAdModule(), testAd()
	preview := set.Ad.RenderPreview(ctx, module, ad, publicationID)
	snap := ad.Snapshot(time.Now())
	archive := set.Ad.RenderArchive(module.Name, module.ShowName, &snap, module.BlockOrder, testStyles)
	assert.Equal(t, archive.HTML, preview.HTML)

	pm, poll := testPollModule(), testPoll()
	preview = set.Poll.RenderPreview(ctx, pm, poll, publicationID)
	pollSnap := poll.Snapshot(time.Now())
	archive = set.Poll.RenderArchive(pm.Name, pm.ShowName, &pollSnap, pm.BlockOrder, testStyles)
	assert.Equal(t, archive.HTML, preview.HTML)
}

func TestLiveRoutesButtonThroughTracker(t *testing.T) {
	tracker := &fakeTracker{}
	set := newTestSet(&fakeStyles{styles: testStyles}, tracker, zap.NewNop())

	res := set.Ad.RenderLive(context.Background(), testAdModule(), testAd(), publicationID, renderContext())
	require.False(t, res.Empty())
	require.Len(t, tracker.calls, 1)
	assert.Equal(t, "Our Sponsor|https://acme.example.com/trial?ref=issue", tracker.calls[0])
	assert.Contains(t, res.HTML, `href="https://t.example.com/`+issueID.String()+`/2026-03-02?u=https://acme.example.com/trial?ref=issue"`)
	assert.NotContains(t, res.HTML, `href="https://acme.example.com/trial?ref=issue"`)
	assert.Equal(t, uint(7), *res.ItemID)
	assert.Equal(t, ModeLive, res.Mode)
}

func TestPreviewNeverCallsTracker(t *testing.T) {
	tracker := &fakeTracker{}
	set := newTestSet(&fakeStyles{styles: testStyles}, tracker, zap.NewNop())

	res := set.Ad.RenderPreview(context.Background(), testAdModule(), testAd(), publicationID)
	assert.Empty(t, tracker.calls)
	assert.Contains(t, res.HTML, `href="https://acme.example.com/trial?ref=issue"`)
}

func TestLiveTrackingFailureFallsBackToRawURL(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	tracker := &fakeTracker{err: errors.New("shortener down")}
	set := newTestSet(&fakeStyles{styles: testStyles}, tracker, zap.New(core))

	res := set.Ad.RenderLive(context.Background(), testAdModule(), testAd(), publicationID, renderContext())
	assert.Contains(t, res.HTML, `href="https://acme.example.com/trial?ref=issue"`)
	assert.Equal(t, 1, logs.FilterMessage("Tracking URL construction failed, using raw URL").Len())
}

func TestLivePollOptionsLinkToResponses(t *testing.T) {
	set := newTestSet(&fakeStyles{styles: testStyles}, &fakeTracker{}, zap.NewNop())

	res := set.Poll.RenderLive(context.Background(), testPollModule(), testPoll(), publicationID, renderContext())
	for i := 1; i <= 3; i++ {
		assert.Contains(t, res.HTML, `href="https://news.example.com/r/poll/`+issueID.String()+`/11?option=`+strconv.Itoa(i)+`"`)
	}

	preview := set.Poll.RenderPreview(context.Background(), testPollModule(), testPoll(), publicationID)
	assert.NotContains(t, preview.HTML, "href=")
}

func TestLiveFeedbackVoteLinks(t *testing.T) {
	set := newTestSet(&fakeStyles{styles: testStyles}, &fakeTracker{}, zap.NewNop())
	fb := &models.FeedbackModule{
		ModuleBase: models.ModuleBase{ID: 21, Name: "Feedback", ShowName: true, BlockOrder: models.DefaultBlockOrder(models.ModuleFamilyFeedback)},
		Question:   "How was today's issue?",
		VoteOptions: []models.FeedbackVoteOption{
			{ID: 2, Label: "Loved it", IsActive: true, DisplayOrder: 1},
			{ID: 5, Label: "Not for me", IsActive: true, DisplayOrder: 2},
		},
	}

	res := set.Feedback.RenderLive(context.Background(), fb, fb, publicationID, renderContext())
	assert.Contains(t, res.HTML, `href="https://news.example.com/r/feedback/`+issueID.String()+`/21?vote=2"`)
	assert.Contains(t, res.HTML, `href="https://news.example.com/r/feedback/`+issueID.String()+`/21?vote=5"`)
}

func TestNilItemRendersNothing(t *testing.T) {
	set := newTestSet(&fakeStyles{styles: testStyles}, &fakeTracker{}, zap.NewNop())
	ctx := context.Background()

	assert.True(t, set.Ad.RenderLive(ctx, testAdModule(), nil, publicationID, renderContext()).Empty())
	assert.True(t, set.Ad.RenderPreview(ctx, testAdModule(), nil, publicationID).Empty())
	assert.True(t, set.Ad.RenderArchive("Our Sponsor", true, nil, models.DefaultBlockOrder(models.ModuleFamilyAd), testStyles).Empty())
	assert.True(t, set.Poll.RenderPreview(ctx, testPollModule(), nil, publicationID).Empty())
	assert.True(t, set.Feedback.RenderPreview(ctx, &models.FeedbackModule{}, nil, publicationID).Empty())
	assert.True(t, set.TextBox.RenderPreview(ctx, &models.TextBoxModule{}, nil, publicationID).Empty())
	assert.True(t, set.RenderModule(ctx, ModePreview, testAdModule(), nil, publicationID, nil).Empty())
}

func TestItemWithNoRenderableBlocksRendersNothing(t *testing.T) {
	set := newTestSet(nil, nil, zap.NewNop())
	module := testAdModule()
	module.BlockOrder = []string{"image", "button"}

	res := set.Ad.RenderPreview(context.Background(), module, &models.Ad{ID: 1, Title: "No image, no button"}, publicationID)
	assert.True(t, res.Empty(), "no header-only shell")
}

func TestEmptyBlockOrderIsSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	set := newTestSet(nil, nil, zap.New(core))
	module := testAdModule()
	module.BlockOrder = nil

	res := set.Ad.RenderPreview(context.Background(), module, testAd(), publicationID)
	assert.True(t, res.Empty())
	assert.Equal(t, 1, logs.FilterMessage("Module has an empty block order, skipping").Len())
}

func TestUnknownBlockInOrderIsSkippedWithModuleContext(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	set := newTestSet(nil, nil, zap.New(core))
	module := testAdModule()
	module.BlockOrder = []string{"title", "marquee"}

	res := set.Ad.RenderPreview(context.Background(), module, testAd(), publicationID)
	assert.Contains(t, res.HTML, "Ship faster with Acme")

	entries := logs.FilterMessage("Unknown block type in block order").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Our Sponsor", entries[0].ContextMap()["module"])
	assert.Equal(t, "marquee", entries[0].ContextMap()["block"])
}

func TestStyleLookupFailureUsesDefaults(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	styles := &fakeStyles{err: errors.New("db down")}
	set := newTestSet(styles, nil, zap.New(core))

	res := set.Ad.RenderPreview(context.Background(), testAdModule(), testAd(), publicationID)
	assert.Contains(t, res.HTML, "color:#111111;")
	assert.Contains(t, res.HTML, "font-family:Helvetica;")
	assert.Equal(t, 1, logs.FilterMessage("Style lookup failed, using defaults").Len())
}

func TestPartialStylesAreCompletedFromDefaults(t *testing.T) {
	set := newTestSet(&fakeStyles{styles: blocks.StyleOptions{PrimaryColor: "#abcdef"}}, nil, zap.NewNop())

	res := set.Ad.RenderPreview(context.Background(), testAdModule(), testAd(), publicationID)
	assert.Contains(t, res.HTML, "background-color:#abcdef;")
	assert.Contains(t, res.HTML, "font-family:Verdana;")
}

func TestBlockOrderOnlyChangesSequence(t *testing.T) {
	set := newTestSet(nil, nil, zap.NewNop())
	snap := testAd().Snapshot(time.Now())

	forward := set.Ad.RenderArchive("Our Sponsor", false, &snap, []string{"title", "body"}, testStyles)
	reverse := set.Ad.RenderArchive("Our Sponsor", false, &snap, []string{"body", "title"}, testStyles)
	require.False(t, forward.Empty())
	assert.NotEqual(t, forward.HTML, reverse.HTML)

	title := set.Ad.e.registry.Render(models.BlockTitle, contentData(snap), testStyles, nil)
	body := set.Ad.e.registry.Render(models.BlockBody, contentData(snap), testStyles, nil)
	assert.Equal(t, strings.Replace(forward.HTML, title+body, body+title, 1), reverse.HTML)
}

func TestHeaderlessVariantHidesName(t *testing.T) {
	set := newTestSet(nil, nil, zap.NewNop())
	snap := testAd().Snapshot(time.Now())

	headered := set.Ad.RenderArchive("Welcome", true, &snap, []string{"title"}, testStyles)
	headerless := set.Ad.RenderArchive("Welcome", false, &snap, []string{"title"}, testStyles)
	assert.Contains(t, headered.HTML, ">Welcome</td>")
	assert.NotContains(t, headerless.HTML, "Welcome")
}

func TestRenderModuleDispatchesByFamily(t *testing.T) {
	tracker := &fakeTracker{}
	set := newTestSet(&fakeStyles{styles: testStyles}, tracker, zap.NewNop())
	ctx := context.Background()

	live := set.RenderModule(ctx, ModeLive, testAdModule(), testAd(), publicationID, renderContext())
	assert.Equal(t, models.ModuleFamilyAd, live.Family)
	assert.Len(t, tracker.calls, 1)

	tb := &models.TextBoxModule{
		ModuleBase: models.ModuleBase{ID: 8, Name: "Welcome", BlockOrder: models.DefaultBlockOrder(models.ModuleFamilyTextBox)},
		Body:       "Hello readers",
		BodyFormat: models.BodyFormatText,
	}
	preview := set.RenderModule(ctx, ModePreview, tb, &models.TextBoxItem{Module: tb}, publicationID, nil)
	assert.Equal(t, models.ModuleFamilyTextBox, preview.Family)
	assert.Contains(t, preview.HTML, "Hello readers")

	// mismatched item type renders nothing rather than panicking
	assert.True(t, set.RenderModule(ctx, ModePreview, testAdModule(), testPoll(), publicationID, nil).Empty())
}
