package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects declared oversize bodies up front and caps streamed ones
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodePayloadLarge,
				"Request body exceeds maximum allowed size",
				GetRequestID(c),
			))
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// BodyLimitWithUploads caps multipart bodies at uploadBytes and everything else at maxBytes
func BodyLimitWithUploads(maxBytes, uploadBytes int64) gin.HandlerFunc {
	plain := BodyLimit(maxBytes)
	upload := BodyLimit(uploadBytes)
	return func(c *gin.Context) {
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			upload(c)
			return
		}
		plain(c)
	}
}
