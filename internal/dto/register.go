package dto

// UpdateRegisterStatusRequest moves a register entry along its lifecycle.
type UpdateRegisterStatusRequest struct {
	Status  string `json:"status" validate:"required"`
	Remarks string `json:"remarks" validate:"omitempty,max=500"`
}

// RegisterQuery mirrors supported register listing filters.
type RegisterQuery struct {
	Status    string `form:"status"`
	CourseID  string `form:"course_id" validate:"omitempty,uuid"`
	Search    string `form:"search"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"page_size" validate:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" validate:"omitempty,oneof=asc desc ASC DESC"`
}

// ExportRegisterRequest selects the register rows and file format to export.
type ExportRegisterRequest struct {
	Format   string `json:"format" form:"format" validate:"omitempty,oneof=csv pdf"`
	Status   string `json:"status" form:"status"`
	CourseID string `json:"course_id" form:"course_id" validate:"omitempty,uuid"`
	Search   string `json:"search" form:"search"`
}

// ProvisionAccountRequest creates the student login for a register entry.
type ProvisionAccountRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
	Email    string `json:"email" validate:"omitempty,email"`
}
