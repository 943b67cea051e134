package dto

// CreateProjectRequest defines payload for creating a project.
type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=500"`
}

// UpdateProjectRequest defines payload for updating a project.
type UpdateProjectRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Description string `json:"description" validate:"max=500"`
}
