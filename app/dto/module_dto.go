package dto

// ModulePathParams identifies a module instance of one family
type ModulePathParams struct {
	Family   string `validate:"required,oneof=ad poll prompt feedback text_box"`
	ModuleID uint   `validate:"required,gt=0"`
}

// UpdateModuleConfigRequest changes the presentation of a module; omitted fields stay as stored
type UpdateModuleConfigRequest struct {
	Name         *string  `json:"name" validate:"omitempty,max=255"`
	ShowName     *bool    `json:"show_name"`
	DisplayOrder *int     `json:"display_order" validate:"omitempty,gte=0"`
	IsActive     *bool    `json:"is_active"`
	BlockOrder   []string `json:"block_order" validate:"omitempty,max=16"`
}

// ModuleResponse is the stored presentation of a module
type ModuleResponse struct {
	ID           uint     `json:"id"`
	Family       string   `json:"family"`
	Name         string   `json:"name"`
	ShowName     bool     `json:"show_name"`
	DisplayOrder int      `json:"display_order"`
	IsActive     bool     `json:"is_active"`
	BlockOrder   []string `json:"block_order"`
}
