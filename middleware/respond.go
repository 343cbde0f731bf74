package middleware

import (
	"errors"
	"net/http"

	"food-delivery-api/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool           `json:"success"`
	Error   apperrors.Kind `json:"error"`
	Message string         `json:"message"`
}

// AbortWithError writes err as an ErrorResponse and stops the chain. Only
// the safe Message reaches the client. Errors outside the taxonomy become a
// generic 500 and are logged with their cause.
func AbortWithError(c *gin.Context, log logrus.FieldLogger, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}

	status := appErr.Kind.HTTPStatus()
	entry := log.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"kind":   appErr.Kind,
	})
	for k, v := range appErr.Detail {
		entry = entry.WithField(k, v)
	}
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Error:   appErr.Kind,
		Message: appErr.Message,
	})
}
