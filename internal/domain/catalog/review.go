package catalog

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
)

// Review is a customer's rating of a product
type Review struct {
	shared.BaseEntity
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_product_user,priority:1"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_product_user,priority:2;index"`
	UserName  string    `gorm:"type:varchar(100);not null"`
	Rating    int       `gorm:"not null"`
	Comment   string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Review) TableName() string {
	return "reviews"
}

// NewReview creates a review with a 1-5 rating
func NewReview(productID, userID uuid.UUID, userName string, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, shared.NewDomainError("INVALID_RATING", "Rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > 2000 {
		return nil, shared.NewDomainError("INVALID_COMMENT", "Comment cannot exceed 2000 characters")
	}
	return &Review{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		UserID:     userID,
		UserName:   userName,
		Rating:     rating,
		Comment:    comment,
	}, nil
}

// RoundRating rounds an average rating to one decimal
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// ApplyRating stores the recomputed review aggregate on the product
func (p *Product) ApplyRating(avg float64, count int) {
	if count == 0 {
		avg = 0
	}
	p.Rating = RoundRating(avg)
	p.ReviewCount = count
	p.Touch()
}
