package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MaxImageSize is the largest accepted product image, in bytes
const MaxImageSize = 5 << 20

// AllowedImageTypes lists the accepted image content types
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStorage defines the object storage operations used for product images.
// It is implemented by the infrastructure layer (S3, MinIO, etc.)
type ImageStorage interface {
	// Upload stores data under storageKey
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// PublicURL returns the URL clients use to fetch storageKey
	PublicURL(storageKey string) string

	// KeyFromURL reverses PublicURL. ok is false for URLs the storage did not issue.
	KeyFromURL(url string) (key string, ok bool)
}

// UploadImage stores an image and appends its public URL to the product
func (s *ProductService) UploadImage(ctx context.Context, id uuid.UUID, req UploadImageRequest) (string, error) {
	if s.images == nil {
		return "", shared.NewDomainError("SERVICE_UNAVAILABLE", "Image storage is not configured")
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(req.ContentType, ";")[0]))
	ext, ok := AllowedImageTypes[contentType]
	if !ok {
		return "", shared.NewDomainError("INVALID_IMAGE", "Only JPEG, PNG, WebP and GIF images are allowed")
	}
	if len(req.Data) == 0 {
		return "", shared.NewDomainError("INVALID_IMAGE", "Image file is empty")
	}
	if len(req.Data) > MaxImageSize {
		return "", shared.NewDomainError("INVALID_IMAGE", fmt.Sprintf("Image cannot exceed %d MB", MaxImageSize>>20))
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return "", internalError(s.logger, "Failed to load product", err)
	}

	key := generateImageKey(product.ID, ext)
	if err := s.images.Upload(ctx, key, req.Data, contentType); err != nil {
		return "", internalError(s.logger, "Failed to upload image", err)
	}
	url := s.images.PublicURL(key)

	if err := product.AddImage(url); err != nil {
		s.discardObject(ctx, key)
		return "", err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		s.discardObject(ctx, key)
		return "", internalError(s.logger, "Failed to save product image", err)
	}

	s.logger.Info("Product image uploaded",
		zap.String("product_id", product.ID.String()),
		zap.String("key", key),
		zap.Int("size", len(req.Data)))
	return url, nil
}

// RemoveImage detaches an image from the product and deletes the stored
// object when it lives in our bucket
func (s *ProductService) RemoveImage(ctx context.Context, id uuid.UUID, req RemoveImageRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, internalError(s.logger, "Failed to load product", err)
	}
	if err := product.RemoveImage(req.URL); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, internalError(s.logger, "Failed to remove product image", err)
	}

	if s.images != nil {
		if key, ok := s.images.KeyFromURL(req.URL); ok {
			s.discardObject(ctx, key)
		}
	}

	resp := ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) discardObject(ctx context.Context, key string) {
	if err := s.images.DeleteObject(ctx, key); err != nil {
		s.logger.Warn("Failed to delete image object", zap.String("key", key), zap.Error(err))
	}
}

// generateImageKey builds products/{productID}/images/{uniqueID}{ext}.
// The extension follows the content type, not the uploaded file name.
func generateImageKey(productID uuid.UUID, ext string) string {
	return fmt.Sprintf("products/%s/images/%s%s", productID.String(), uuid.New().String(), ext)
}
