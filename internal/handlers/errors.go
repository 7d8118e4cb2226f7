// internal/handlers/errors.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vials-labs/vials-backend/internal/i18n"
	"github.com/vials-labs/vials-backend/internal/services"
	"github.com/vials-labs/vials-backend/internal/utils"
)

// errorKeys picks the message for each sentinel a service may return.
type errorKeys struct {
	invalid  string
	notFound string
	conflict string
	upstream string
}

func respondServiceError(c *gin.Context, err error, keys errorKeys) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, services.ErrInvalidInput):
		if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return
		}
		message := ""
		if keys.invalid != "" {
			message = i18n.T(lang, keys.invalid)
		}
		utils.BadRequestResponse(c, message, nil)

	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, keys.notFound)

	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, keys.conflict)

	case errors.Is(err, services.ErrUpstream), errors.Is(err, services.ErrNotConfigured):
		requestLog(c).WithError(err).Warn("Upstream call failed")
		utils.BadGatewayResponse(c, keys.upstream)

	default:
		requestLog(c).WithError(err).Error("Request failed")
		utils.InternalErrorResponse(c)
	}
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return false
	}
	return true
}

func requestLog(c *gin.Context) *logrus.Entry {
	entry := logrus.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	})
	if requestID, ok := c.Get("request_id"); ok {
		entry = entry.WithField("request_id", requestID)
	}
	return entry
}
