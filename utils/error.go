package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				LoggerFrom(c).Error("Unhandled panic",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("requestID", c.GetString(RequestIDKey)),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, details string) {
	logError(c, status, message, details)
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Details: details})
}

// FieldError sends a 400 naming the rejected field.
func FieldError(c *gin.Context, field, message string) {
	logError(c, http.StatusBadRequest, message, field)
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: message, Field: field})
}

func logError(c *gin.Context, status int, message, details string) {
	fields := []zap.Field{
		zap.String("details", details),
		zap.Int("status", status),
		zap.String("path", c.Request.URL.Path),
	}
	if status >= http.StatusInternalServerError {
		LoggerFrom(c).Error(message, fields...)
	} else {
		LoggerFrom(c).Warn(message, fields...)
	}
}
