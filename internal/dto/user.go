package dto

// CreateUserRequest is an admin-managed account.
type CreateUserRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=64"`
	Password       string `json:"password" validate:"required,min=8,max=72"`
	FullName       string `json:"full_name" validate:"required,notblank,max=120"`
	Email          string `json:"email" validate:"omitempty,email"`
	Phone          string `json:"phone" validate:"omitempty,pkphone"`
	Role           string `json:"role" validate:"required,oneof=admin instructor student"`
	RegistrationNo string `json:"registration_no" validate:"omitempty,max=32"`
}

// UpdateUserRequest patches an account; nil fields are left untouched.
type UpdateUserRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,notblank,max=120"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,pkphone"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin instructor student"`
	Active   *bool   `json:"active"`
}

// UserQuery mirrors supported user listing filters.
type UserQuery struct {
	Role      string `form:"role" validate:"omitempty,oneof=admin instructor student"`
	Active    *bool  `form:"active"`
	Search    string `form:"search"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"page_size" validate:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" validate:"omitempty,oneof=asc desc ASC DESC"`
}
