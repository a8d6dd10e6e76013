package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupInput struct {
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,password"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,payment_method"`
	Quantity      int    `json:"quantity" binding:"omitempty,min=1,max=99"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req signupInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func postJSON(router *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHandleValidationError_FieldDetails(t *testing.T) {
	router := validationRouter()

	w, resp := postJSON(router, `{"email":"invalid","password":"short","payment_method":"bitcoin","quantity":100}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, w.Header().Get(HeaderRequestID), resp.Error.RequestID)

	byField := map[string]string{}
	for _, d := range resp.Error.Details {
		byField[d.Field] = d.Message
	}
	assert.Equal(t, "Invalid email format", byField["email"])
	assert.Contains(t, byField["password"], "at least one letter and one number")
	assert.Equal(t, "Must be one of: cod card paypal", byField["payment_method"])
	assert.Equal(t, "Must be at most 99", byField["quantity"])
}

func TestHandleValidationError_Valid(t *testing.T) {
	router := validationRouter()

	w, _ := postJSON(router, `{"email":"ada@example.com","password":"engine42","payment_method":"cod"}`)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleValidationError_PasswordPolicy(t *testing.T) {
	router := validationRouter()

	for _, pw := range []string{"abcdefgh", "12345678", strings.Repeat("a1", 40)} {
		w, resp := postJSON(router, `{"email":"ada@example.com","password":"`+pw+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, pw)
		require.NotNil(t, resp.Error)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "password", resp.Error.Details[0].Field)
	}
}

func TestHandleValidationError_MalformedJSON(t *testing.T) {
	router := validationRouter()

	w, resp := postJSON(router, `{"email":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}

func TestGetValidationMessage(t *testing.T) {
	type sample struct {
		Required string `validate:"required"`
		Min      string `validate:"min=5"`
		Len      string `validate:"len=5"`
		UUID     string `validate:"uuid"`
		OneOf    string `validate:"oneof=a b c"`
		GT       int    `validate:"gt=0"`
		URL      string `validate:"url"`
	}

	err := validator.New().Struct(sample{Min: "ab", Len: "ab", UUID: "x", OneOf: "d", URL: "nope"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	got := map[string]string{}
	for _, e := range verrs {
		got[e.Field()] = getValidationMessage(e)
	}
	assert.Equal(t, "This field is required", got["Required"])
	assert.Equal(t, "Must be at least 5 characters", got["Min"])
	assert.Equal(t, "Must be exactly 5 characters", got["Len"])
	assert.Equal(t, "Invalid UUID format", got["UUID"])
	assert.Equal(t, "Must be one of: a b c", got["OneOf"])
	assert.Equal(t, "Must be greater than 0", got["GT"])
	assert.Equal(t, "Invalid URL format", got["URL"])
}
