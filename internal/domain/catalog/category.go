package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/shopfront/backend/internal/domain/shared"
)

// Category groups products
type Category struct {
	shared.BaseAggregateRoot
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"`
	Slug        string `gorm:"type:varchar(200);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	ImageURL    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new category with a slug derived from its name
func NewCategory(name, description, imageURL string) (*Category, error) {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	slug := Slugify(name)
	if slug == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name must contain letters or digits")
	}

	return &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		Description:       strings.TrimSpace(description),
		ImageURL:          strings.TrimSpace(imageURL),
	}, nil
}

// Update changes the category details; the slug follows the name
func (c *Category) Update(name, description, imageURL string) error {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return err
	}
	slug := Slugify(name)
	if slug == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name must contain letters or digits")
	}

	c.Name = name
	c.Slug = slug
	c.Description = strings.TrimSpace(description)
	c.ImageURL = strings.TrimSpace(imageURL)
	c.Touch()
	c.IncrementVersion()
	return nil
}

func validateCategoryName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	return nil
}
