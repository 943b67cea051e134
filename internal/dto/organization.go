package dto

// CreateOrganizationRequest defines payload for creating an organization.
type CreateOrganizationRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
	Slug string `json:"slug" validate:"required,min=2,max=60,lowercase"`
}

// UpdateOrganizationRequest defines payload for renaming an organization.
type UpdateOrganizationRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
	Slug string `json:"slug" validate:"required,min=2,max=60,lowercase"`
}
