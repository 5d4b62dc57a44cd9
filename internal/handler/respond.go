package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/vidstream/auth-service/internal/apperrors"
	"github.com/vidstream/auth-service/internal/dto"
)

// Respond writes a success envelope
func Respond(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, dto.OK(statusCode, message, data))
}

// RespondError shapes any error into the uniform failure envelope. Causes
// of internal errors stay out of responses unless gin runs in debug mode
// (development environment).
func RespondError(c *gin.Context, err error) {
	appErr := apperrors.FromError(err)

	message := appErr.Message
	if gin.Mode() == gin.DebugMode {
		if cause := errors.Unwrap(appErr); cause != nil {
			message = message + ": " + cause.Error()
		}
	}

	c.JSON(appErr.Status, dto.Fail(appErr.Status, message))
}

// AbortError shapes the error and stops the middleware chain
func AbortError(c *gin.Context, err error) {
	RespondError(c, err)
	c.Abort()
}
