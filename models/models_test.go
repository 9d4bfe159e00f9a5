package models

import (
	"testing"
	"time"

	"github.com/amirphl/issue-composer/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlockType(t *testing.T) {
	for _, b := range []BlockType{BlockTitle, BlockImage, BlockBody, BlockButton, BlockQuestion, BlockOptions, BlockLabel} {
		parsed, ok := ParseBlockType(b.String())
		require.True(t, ok, b.String())
		assert.Equal(t, b, parsed)
	}

	_, ok := ParseBlockType("hero")
	assert.False(t, ok)
	_, ok = ParseBlockType("")
	assert.False(t, ok)

	assert.False(t, BlockType(0).Valid())
	assert.False(t, BlockType(200).Valid())
	assert.Equal(t, "BlockType(200)", BlockType(200).String())
}

func TestValidateBlockOrder(t *testing.T) {
	tests := []struct {
		name    string
		family  ModuleFamily
		order   []string
		wantErr string
	}{
		{name: "default ad order", family: ModuleFamilyAd, order: DefaultBlockOrder(ModuleFamilyAd)},
		{name: "reordered poll", family: ModuleFamilyPoll, order: []string{"question", "options", "title"}},
		{name: "empty", family: ModuleFamilyPoll, order: nil, wantErr: "must not be empty"},
		{name: "unknown block", family: ModuleFamilyAd, order: []string{"title", "banner"}, wantErr: `unknown block type "banner"`},
		{name: "not allowed for family", family: ModuleFamilyTextBox, order: []string{"title", "button"}, wantErr: "not allowed for text_box"},
		{name: "duplicate", family: ModuleFamilyPrompt, order: []string{"body", "body"}, wantErr: "more than once"},
		{name: "unknown family", family: ModuleFamily("newsletter"), order: []string{"title"}, wantErr: "unknown module family"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBlockOrder(tt.family, tt.order)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultBlockOrderIsValidForEveryFamily(t *testing.T) {
	for _, family := range ModuleFamilies() {
		assert.NoError(t, ValidateBlockOrder(family, DefaultBlockOrder(family)), family.String())
	}
}

func TestModuleFamilyRank(t *testing.T) {
	assert.Less(t, ModuleFamilyTextBox.Rank(), ModuleFamilyAd.Rank())
	assert.Equal(t, len(ModuleFamilies()), ModuleFamily("x").Rank())
}

func TestSelectionState(t *testing.T) {
	now := utils.UTCNow()
	sel := &IssueModuleSelection{}
	assert.Equal(t, SelectionStateCreated, sel.State())

	sel.SelectedItemID = utils.ToPtr(uint(4))
	assert.Equal(t, SelectionStatePicked, sel.State())

	sel.UsedAt = &now
	assert.Equal(t, SelectionStateUsed, sel.State())
	assert.True(t, sel.IsUsed())

	// a cleared pick that was sent is still terminal
	sel.SelectedItemID = nil
	assert.Equal(t, SelectionStateUsed, sel.State())
}

func TestContentSnapshotScan(t *testing.T) {
	var s ContentSnapshot
	require.NoError(t, s.Scan([]byte(`{"family":"poll","item_id":3,"question":"Tea or coffee?","options":[{"id":1,"label":"Tea"}],"captured_at":"2026-01-02T00:00:00Z"}`)))
	assert.Equal(t, ModuleFamilyPoll, s.Family)
	assert.Equal(t, uint(3), s.ItemID)
	assert.Equal(t, []SnapshotOption{{ID: 1, Label: "Tea"}}, s.Options)

	require.NoError(t, s.Scan(nil))
	assert.Equal(t, ContentSnapshot{}, s)

	assert.Error(t, s.Scan(42))
}

func TestSectionFrameIsDetachedFromModule(t *testing.T) {
	base := &ModuleBase{Name: "Sponsor", ShowName: true, DisplayOrder: 2, BlockOrder: []string{"title", "body"}}
	frame := FrameOf(base)
	base.Name = "Renamed"
	base.BlockOrder[0] = "image"

	assert.Equal(t, "Sponsor", frame.ModuleName)
	assert.Equal(t, []string{"title", "body"}, frame.BlockOrder)
	assert.Nil(t, FrameOf(nil))

	snap := ContentSnapshot{Family: ModuleFamilyAd, ItemID: 3, Section: frame}
	raw, err := snap.Value()
	require.NoError(t, err)
	var back ContentSnapshot
	require.NoError(t, back.Scan(raw))
	require.NotNil(t, back.Section)
	assert.Equal(t, *frame, *back.Section)
}

func TestArchiveStylesScan(t *testing.T) {
	var s ArchiveStyles
	require.NoError(t, s.Scan([]byte(`{"primary_color":"#0b5fff","body_font":"Arial"}`)))
	assert.Equal(t, ArchiveStyles{PrimaryColor: "#0b5fff", BodyFont: "Arial"}, s)
	assert.Error(t, s.Scan(42))
}

func TestModuleConfigUpdateColumns(t *testing.T) {
	assert.True(t, ModuleConfigUpdate{}.Empty())
	u := ModuleConfigUpdate{ShowName: utils.ToPtr(false), BlockOrder: []string{"title"}}
	assert.False(t, u.Empty())
	cols := u.Columns()
	assert.Len(t, cols, 2)
	assert.Equal(t, false, cols["show_name"])
	assert.Contains(t, cols, "block_order")
}

func TestContentSnapshotOptionsCopy(t *testing.T) {
	s := ContentSnapshot{Options: []SnapshotOption{{ID: 1, Label: "Yes"}}}
	cp := s.OptionsCopy()
	cp[0].Label = "No"
	assert.Equal(t, "Yes", s.Options[0].Label)
}

func TestAdRunsOn(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return d
	}

	ad := &Ad{}
	assert.True(t, ad.RunsOn(day("2026-03-01")))

	ad.StartDate = utils.ToPtr(day("2026-03-01"))
	ad.EndDate = utils.ToPtr(day("2026-03-31"))
	assert.False(t, ad.RunsOn(day("2026-02-28")))
	assert.True(t, ad.RunsOn(day("2026-03-01")))
	assert.True(t, ad.RunsOn(day("2026-03-31").Add(15*time.Hour)))
	assert.False(t, ad.RunsOn(day("2026-04-01")))
}

func TestPollSnapshotNumbersOptions(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	p := &Poll{ID: 9, Question: "Best editor?", Options: []string{"vim", "emacs"}}
	s := p.Snapshot(at)
	assert.Equal(t, ModuleFamilyPoll, s.Family)
	assert.Equal(t, []SnapshotOption{{ID: 1, Label: "vim"}, {ID: 2, Label: "emacs"}}, s.Options)
	assert.Equal(t, at, s.CapturedAt)
}

func TestFeedbackActiveOptions(t *testing.T) {
	m := &FeedbackModule{VoteOptions: []FeedbackVoteOption{
		{ID: 3, Label: "Meh", DisplayOrder: 2, IsActive: true},
		{ID: 1, Label: "Great", Emoji: "😀", DisplayOrder: 1, IsActive: true},
		{ID: 2, Label: "Hidden", DisplayOrder: 0, IsActive: false},
	}}
	m.ID = 5

	s := m.Snapshot(utils.UTCNow())
	assert.Equal(t, []SnapshotOption{{ID: 1, Label: "😀 Great"}, {ID: 3, Label: "Meh"}}, s.Options)
	assert.Equal(t, uint(5), s.ItemID)
}

func TestTextBoxItemPrefersIssueContent(t *testing.T) {
	m := &TextBoxModule{Body: "static", BodyFormat: BodyFormatText}
	item := &TextBoxItem{Module: m}
	assert.Equal(t, "static", item.Snapshot(utils.UTCNow()).Body)

	item.Content = &TextBoxContent{Body: "# generated", BodyFormat: BodyFormatMarkdown}
	s := item.Snapshot(utils.UTCNow())
	assert.Equal(t, "# generated", s.Body)
	assert.Equal(t, BodyFormatMarkdown, s.BodyFormat)
}

func TestEnumValue(t *testing.T) {
	_, err := SelectionMode("weekly").Value()
	assert.Error(t, err)
	v, err := SelectionModeRandom.Value()
	require.NoError(t, err)
	assert.Equal(t, "random", v)

	assert.True(t, SelectionModeDefault.IsAutomatic())
	assert.False(t, SelectionModeManual.IsAutomatic())

	var status IssueStatus
	require.NoError(t, status.Scan([]byte("sent")))
	assert.Equal(t, IssueStatusSent, status)
}
