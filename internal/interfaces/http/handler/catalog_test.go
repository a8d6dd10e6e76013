package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	catalogapp "github.com/shopfront/backend/internal/application/catalog"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
	"github.com/shopfront/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRoutes(t *testing.T) {
	s := newShop(t)

	t.Run("customers cannot manage categories", func(t *testing.T) {
		env := s.expect(http.StatusForbidden, http.MethodPost, "/api/v1/categories", map[string]any{
			"name": "Hats",
		}, s.customer.AccessToken, nil)
		assert.Equal(t, dto.ErrCodeForbidden, env.Error.Code)
	})

	t.Run("public listing", func(t *testing.T) {
		var categories []catalogapp.CategoryResponse
		env := s.expect(http.StatusOK, http.MethodGet, "/api/v1/categories", nil, "", &categories)
		require.Len(t, categories, 1)
		assert.Equal(t, "footwear", categories[0].Slug)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(1), env.Meta.Total)
	})

	t.Run("update and delete", func(t *testing.T) {
		var hats catalogapp.CategoryResponse
		s.expect(http.StatusCreated, http.MethodPost, "/api/v1/categories", map[string]any{"name": "Hats"}, s.admin.AccessToken, &hats)

		var renamed catalogapp.CategoryResponse
		s.expect(http.StatusOK, http.MethodPut, "/api/v1/categories/"+hats.ID.String(), map[string]any{
			"name": "Caps",
		}, s.admin.AccessToken, &renamed)
		assert.Equal(t, "Caps", renamed.Name)

		s.expect(http.StatusNoContent, http.MethodDelete, "/api/v1/categories/"+hats.ID.String(), nil, s.admin.AccessToken, nil)
		s.expect(http.StatusNotFound, http.MethodGet, "/api/v1/categories/"+hats.ID.String(), nil, "", nil)
	})

	t.Run("category with products cannot be deleted", func(t *testing.T) {
		s.addProduct("Anchor Boot", "80.00", 3)

		env := s.expect(http.StatusConflict, http.MethodDelete, "/api/v1/categories/"+s.categoryID.String(), nil, s.admin.AccessToken, nil)
		assert.Equal(t, dto.ErrCodeConflict, env.Error.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		env := s.expect(http.StatusBadRequest, http.MethodGet, "/api/v1/categories/not-a-uuid", nil, "", nil)
		assert.Equal(t, dto.ErrCodeInvalidInput, env.Error.Code)
	})
}

func TestProductRoutes(t *testing.T) {
	s := newShop(t)
	shoe := s.addProduct("Trail Runner", "49.99", 10)

	t.Run("lookup by id or slug", func(t *testing.T) {
		var byID, bySlug catalogapp.ProductResponse
		s.expect(http.StatusOK, http.MethodGet, "/api/v1/products/"+shoe.ID.String(), nil, "", &byID)
		s.expect(http.StatusOK, http.MethodGet, "/api/v1/products/"+shoe.Slug, nil, "", &bySlug)
		assert.Equal(t, byID.ID, bySlug.ID)
		assert.Equal(t, "trail-runner", bySlug.Slug)
		assert.Equal(t, "49.99", bySlug.EffectivePrice.StringFixed(2))
	})

	t.Run("duplicate name is a conflict", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/products", map[string]any{
			"name": "Trail Runner", "category_id": s.categoryID, "price": "10", "stock": 1,
		}, s.admin.AccessToken)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown category", func(t *testing.T) {
		w := s.do(http.MethodPost, "/api/v1/products", map[string]any{
			"name": "Ghost", "category_id": testutil.NewTestUUID("missing"), "price": "10", "stock": 1,
		}, s.admin.AccessToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_INVALID_CATEGORY", testutil.DecodeEnvelope(t, w, nil).Error.Code)
	})

	t.Run("stock adjustments", func(t *testing.T) {
		var adjusted catalogapp.ProductResponse
		s.expect(http.StatusOK, http.MethodPost, "/api/v1/products/"+shoe.ID.String()+"/stock", map[string]any{
			"delta": 5, "reason": "restock delivery",
		}, s.admin.AccessToken, &adjusted)
		assert.Equal(t, 15, adjusted.Stock)

		env := s.expect(http.StatusUnprocessableEntity, http.MethodPost, "/api/v1/products/"+shoe.ID.String()+"/stock", map[string]any{
			"delta": -100, "reason": "shrinkage",
		}, s.admin.AccessToken, nil)
		assert.Equal(t, dto.ErrCodeInsufficientStock, env.Error.Code)
	})

	t.Run("inactive products are hidden from customers", func(t *testing.T) {
		hidden := s.addProduct("Retired Sandal", "15.00", 2)
		s.expect(http.StatusOK, http.MethodPut, "/api/v1/products/"+hidden.ID.String(), map[string]any{
			"is_active": false,
		}, s.admin.AccessToken, nil)

		s.expect(http.StatusNotFound, http.MethodGet, "/api/v1/products/"+hidden.ID.String(), nil, s.customer.AccessToken, nil)
		s.expect(http.StatusOK, http.MethodGet, "/api/v1/products/"+hidden.ID.String(), nil, s.admin.AccessToken, nil)

		var public []catalogapp.ProductResponse
		s.expect(http.StatusOK, http.MethodGet, "/api/v1/products?include_inactive=true", nil, s.customer.AccessToken, &public)
		for _, p := range public {
			assert.NotEqual(t, hidden.ID, p.ID)
		}

		var all []catalogapp.ProductResponse
		s.expect(http.StatusOK, http.MethodGet, "/api/v1/products?include_inactive=true", nil, s.admin.AccessToken, &all)
		assert.Len(t, all, len(public)+1)
	})

	t.Run("invalid filter", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/v1/products?order_by=password", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProductImageUploadWithoutStorage(t *testing.T) {
	s := newShop(t)
	shoe := s.addProduct("Trail Runner", "49.99", 10)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile(handler.ImageFormField, "shoe.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n0000000000"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+shoe.ID.String()+"/images", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.admin.AccessToken)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeServiceUnavailable, testutil.DecodeEnvelope(t, w, nil).Error.Code)
}
