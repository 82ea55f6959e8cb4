package categories

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/hatchery-backend/pkg/db"
	"github.com/angelmondragon/hatchery-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/hatchery-backend/pkg/errors"
)

const (
	maxSlugLength        = 64
	maxNameLength        = 80
	maxDescriptionLength = 500
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Service exposes category browsing and admin creation.
type Service interface {
	List(ctx context.Context) ([]CategoryDTO, error)
	GetBySlug(ctx context.Context, slug string) (*CategoryDTO, error)
	Create(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
}

type service struct {
	repo *Repository
}

// NewService builds a category service with the required dependencies.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category repo is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Persistence(err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*CategoryDTO, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	row, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Persistence(err, "load category")
	}
	dto := toDTO(*row)
	return &dto, nil
}

// Create adds a category. Slugs are lower-case words joined by single hyphens
// and must be unique.
func (s *service) Create(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	name := strings.TrimSpace(input.Name)
	switch {
	case slug == "" || len(slug) > maxSlugLength || !slugRe.MatchString(slug):
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lower-case letters, digits and single hyphens").
			WithDetails(map[string]any{"slug": input.Slug})
	case name == "" || len(name) > maxNameLength:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required and must be at most 80 characters")
	case input.Description != nil && len(*input.Description) > maxDescriptionLength:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "description must be at most 500 characters")
	case input.DisplayOrder < 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display_order must not be negative")
	}

	row := &models.Category{
		Slug:         slug,
		Name:         name,
		Description:  input.Description,
		IconURL:      input.IconURL,
		DisplayOrder: input.DisplayOrder,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category slug already exists").
				WithDetails(map[string]any{"slug": slug})
		}
		return nil, pkgerrors.Persistence(err, "create category")
	}
	dto := toDTO(*row)
	return &dto, nil
}
