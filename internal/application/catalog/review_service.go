package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/application/transaction"
	"github.com/shopfront/backend/internal/domain/catalog"
	"github.com/shopfront/backend/internal/domain/identity"
	"github.com/shopfront/backend/internal/domain/order"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ReviewService handles product reviews and keeps product ratings in sync
type ReviewService struct {
	scope       transaction.Scope
	reviewRepo  catalog.ReviewRepository
	productRepo catalog.ProductRepository
	userRepo    identity.UserRepository
	orderRepo   order.Repository
	logger      *zap.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	scope transaction.Scope,
	reviewRepo catalog.ReviewRepository,
	productRepo catalog.ProductRepository,
	userRepo identity.UserRepository,
	orderRepo order.Repository,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		scope:       scope,
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		orderRepo:   orderRepo,
		logger:      logger,
	}
}

// ListByProduct returns a page of reviews, newest first
func (s *ReviewService) ListByProduct(ctx context.Context, productID uuid.UUID, filter ReviewListFilter) (*shared.Paginated[ReviewResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}.Normalize()

	reviews, total, err := s.reviewRepo.FindByProduct(ctx, productID, f)
	if err != nil {
		return nil, internalError(s.logger, "Failed to list reviews", err)
	}
	items := make([]ReviewResponse, len(reviews))
	for i := range reviews {
		items[i] = ToReviewResponse(&reviews[i])
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Add creates a review. Only customers who received the product may review it, once.
func (s *ReviewService) Add(ctx context.Context, userID, productID uuid.UUID, req CreateReviewRequest) (*ReviewResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, internalError(s.logger, "Failed to load product", err)
	}

	purchased, err := s.orderRepo.HasDeliveredPurchase(ctx, userID, productID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to check purchase history", err)
	}
	if !purchased {
		return nil, shared.NewDomainError("FORBIDDEN", "Only customers who received this product can review it")
	}

	exists, err := s.reviewRepo.ExistsByProductAndUser(ctx, productID, userID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to check existing review", err)
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "You have already reviewed this product")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load user", err)
	}

	review, err := catalog.NewReview(productID, userID, user.Name, req.Rating, req.Comment)
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		if err := repos.Reviews().Create(ctx, review); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return shared.NewDomainError("ALREADY_EXISTS", "You have already reviewed this product")
			}
			return err
		}
		return recomputeRating(ctx, repos, productID)
	})
	if err != nil {
		return nil, internalError(s.logger, "Failed to add review", err)
	}

	s.logger.Info("Review added",
		zap.String("product_id", productID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("rating", review.Rating))

	resp := ToReviewResponse(review)
	return &resp, nil
}

// Delete removes a review. The author and admins may delete it.
func (s *ReviewService) Delete(ctx context.Context, actorID uuid.UUID, isAdmin bool, productID, reviewID uuid.UUID) error {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return internalError(s.logger, "Failed to load review", err)
	}
	if review.ProductID != productID {
		return shared.NewDomainError("NOT_FOUND", "Review not found")
	}
	if review.UserID != actorID && !isAdmin {
		return shared.NewDomainError("FORBIDDEN", "You can only delete your own reviews")
	}

	err = s.scope.Execute(ctx, func(repos transaction.Repositories) error {
		if err := repos.Reviews().Delete(ctx, reviewID); err != nil {
			return err
		}
		return recomputeRating(ctx, repos, productID)
	})
	if err != nil {
		return internalError(s.logger, "Failed to delete review", err)
	}

	s.logger.Info("Review deleted",
		zap.String("review_id", reviewID.String()),
		zap.String("by", actorID.String()))
	return nil
}

func recomputeRating(ctx context.Context, repos transaction.Repositories, productID uuid.UUID) error {
	avg, count, err := repos.Reviews().Stats(ctx, productID)
	if err != nil {
		return err
	}
	if count == 0 {
		avg = 0
	}
	return repos.Products().UpdateRating(ctx, productID, catalog.RoundRating(avg), count)
}
