package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	apperrors "github.com/rentpro/portal/pkg/errors"
)

// Success sends a successful JSON response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// Error sends an error JSON response
func Error(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		Abort(c, appErr)
		return
	}

	// Default internal server error
	_ = c.Error(err)
	Abort(c, apperrors.ErrInternal)
}

// ErrorWithCause records cause on the context and sends appErr
func ErrorWithCause(c *gin.Context, cause error, appErr *apperrors.AppError) {
	_ = c.Error(cause)
	Abort(c, appErr)
}

// Abort sends an application error and stops the handler chain
func Abort(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.Status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

// ValidationError sends a validation error response
func ValidationError(c *gin.Context, message string) {
	c.JSON(400, gin.H{
		"success": false,
		"error": gin.H{
			"code":    apperrors.ErrCodeValidationFailed,
			"message": message,
		},
	})
}
