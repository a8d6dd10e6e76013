package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/domain/shared"
	"github.com/shopfront/backend/internal/infrastructure/logger"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandlerCurrentUser(t *testing.T) {
	h := &BaseHandler{}

	t.Run("missing claims is 401", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")

		_, ok := h.currentUser(c)

		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, decodeResponse(t, w).Error.Code)
	})

	t.Run("user id from context", func(t *testing.T) {
		c, _ := newTestContext(http.MethodGet, "/")
		id := uuid.New()
		c.Set(logger.GinUserIDKey, id.String())

		got, ok := h.currentUser(c)

		assert.True(t, ok)
		assert.Equal(t, id, got)
	})
}

func TestBaseHandlerPathUUID(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext(http.MethodGet, "/orders/nope")
	c.Params = gin.Params{{Key: "id", Value: "nope"}}

	_, ok := h.pathUUID(c, "id")

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)
	assert.Equal(t, "Invalid id", resp.Error.Message)
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.NewDomainError("NOT_FOUND", "Product not found"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"insufficient stock", shared.ErrInsufficientStock, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock},
		{"invalid state", shared.ErrInvalidState, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"account locked", shared.NewDomainError("ACCOUNT_LOCKED", "Too many attempts"), http.StatusLocked, dto.ErrCodeAccountLocked},
		{"conflict", shared.ErrConflict, http.StatusConflict, dto.ErrCodeConflict},
		{"field level input error", shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive"), http.StatusBadRequest, "ERR_INVALID_QUANTITY"},
		{"wrapped domain error", fmt.Errorf("save: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, dto.ErrCodeServiceUnavailable},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodGet, "/")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Len(t, c.Errors, 1)
		})
	}

	t.Run("unexpected errors hide the cause", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext(http.MethodGet, "/")

		h.HandleError(c, errors.New("pq: password authentication failed"))

		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("nil error writes nothing", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext(http.MethodGet, "/")

		h.HandleError(c, nil)

		assert.Empty(t, w.Body.String())
		assert.Empty(t, c.Errors)
	})
}

func TestBaseHandlerErrorCarriesRequestID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")
	c.Set(logger.GinRequestIDKey, "req-123")

	h.NotFound(c, "Order not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "req-123", resp.Error.RequestID)
	assert.Equal(t, "Order not found", resp.Error.Message)
}

func TestBaseHandlerResponses(t *testing.T) {
	h := &BaseHandler{}

	t.Run("created", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/")
		h.Created(c, MessageData{Message: "ok"})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, decodeResponse(t, w).Success)
	})

	t.Run("accepted", func(t *testing.T) {
		c, w := newTestContext(http.MethodPost, "/")
		h.Accepted(c, MessageData{Message: "queued"})

		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("no content", func(t *testing.T) {
		c, w := newTestContext(http.MethodDelete, "/")
		h.NoContent(c)
		c.Writer.WriteHeaderNow()

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestRespondPage(t *testing.T) {
	h := &BaseHandler{}

	t.Run("nil items become an empty list", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")

		respondPage(h, c, &shared.Paginated[string]{Total: 0, Page: 1, PageSize: 20})

		assert.JSONEq(t, `{"success":true,"data":[],"meta":{"total":0,"page":1,"page_size":20,"total_pages":0}}`, w.Body.String())
	})

	t.Run("meta reflects totals", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")

		respondPage(h, c, &shared.Paginated[string]{Items: []string{"a", "b"}, Total: 21, Page: 2, PageSize: 10})

		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(21), resp.Meta.Total)
		assert.Equal(t, 3, resp.Meta.TotalPages)
		assert.Len(t, resp.Data, 2)
	})
}
