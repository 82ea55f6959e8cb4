package categories

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
)

// CategoryDTO is the storefront view of a category.
type CategoryDTO struct {
	ID           uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	IconURL      *string   `json:"icon_url,omitempty"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateCategoryInput carries the admin fields for a new category.
type CreateCategoryInput struct {
	Slug         string
	Name         string
	Description  *string
	IconURL      *string
	DisplayOrder int
}

func toDTO(c models.Category) CategoryDTO {
	return CategoryDTO{
		ID:           c.ID,
		Slug:         c.Slug,
		Name:         c.Name,
		Description:  c.Description,
		IconURL:      c.IconURL,
		DisplayOrder: c.DisplayOrder,
		CreatedAt:    c.CreatedAt,
	}
}
