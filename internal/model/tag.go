package model

// Tag is a label attached to questions for filtering and organization.
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CreateTagRequest is the payload for creating a tag.
type CreateTagRequest struct {
	Name string `json:"name" binding:"required,min=1,max=64"`
}
