package dto

import "time"

// SelectionResponse is one module's selection within an issue
type SelectionResponse struct {
	ID             uint       `json:"id"`
	Family         string     `json:"family"`
	ModuleID       uint       `json:"module_id"`
	SelectedItemID *uint      `json:"selected_item_id"`
	SelectionMode  string     `json:"selection_mode"`
	IsManual       bool       `json:"is_manual"`
	Reason         string     `json:"reason"`
	State          string     `json:"state"`
	SelectedAt     *time.Time `json:"selected_at,omitempty"`
	UsedAt         *time.Time `json:"used_at,omitempty"`
}

// IssueSelectionsResponse lists the selections of an issue
type IssueSelectionsResponse struct {
	IssueID    string              `json:"issue_id"`
	Selections []SelectionResponse `json:"selections"`
}

// ManualSelectionRequest sets an editor pick; a null item_id means the module shows nothing
type ManualSelectionRequest struct {
	ItemID *uint `json:"item_id" validate:"omitempty,gt=0"`
}

// SelectionPathParams identifies a module of an issue
type SelectionPathParams struct {
	IssueID  string `validate:"required,uuid"`
	Family   string `validate:"required,oneof=ad poll prompt feedback text_box"`
	ModuleID uint   `validate:"required,gt=0"`
}

// RepickSelectionResponse is the result of rerunning the automatic pick of one module
type RepickSelectionResponse struct {
	Selection SelectionResponse `json:"selection"`
	Reason    string            `json:"reason"`
	Preserved bool              `json:"preserved"`
}

// UsageReportResponse summarises usage recording for one family
type UsageReportResponse struct {
	Family      string `json:"family"`
	Recorded    int    `json:"recorded"`
	Empty       int    `json:"empty"`
	AlreadyUsed int    `json:"already_used"`
	MissingItem int    `json:"missing_item"`
}

// SendIssueResponse is returned when an issue is marked as sent
type SendIssueResponse struct {
	IssueID     string                `json:"issue_id"`
	AlreadySent bool                  `json:"already_sent"`
	ArchiveURL  *string               `json:"archive_url,omitempty"`
	Usage       []UsageReportResponse `json:"usage"`
}

// IssueHTMLQuery selects the render mode of the issue html
type IssueHTMLQuery struct {
	Mode string `query:"mode" validate:"omitempty,oneof=live preview archive"`
}

// IssueHTMLResponse is the combined markup of an issue
type IssueHTMLResponse struct {
	IssueID  string `json:"issue_id"`
	Mode     string `json:"mode"`
	Sections int    `json:"sections"`
	HTML     string `json:"html"`
}

// StoreTextBoxContentRequest stores issue-level text for a generated text box
type StoreTextBoxContentRequest struct {
	Body       string `json:"body" validate:"required,max=20000"`
	BodyFormat string `json:"body_format" validate:"omitempty,oneof=text markdown html"`
}

// TextBoxContentResponse is the stored text of a generated text box
type TextBoxContentResponse struct {
	IssueID     string    `json:"issue_id"`
	ModuleID    uint      `json:"module_id"`
	Body        string    `json:"body"`
	BodyFormat  string    `json:"body_format"`
	GeneratedAt time.Time `json:"generated_at"`
}
