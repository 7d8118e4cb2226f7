// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vials-labs/vials-backend/internal/i18n"
)

// Every response carries "success"; payload keys sit next to it so clients
// read e.g. body.listing or body.drafts directly.
type APIError struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func PaginatedResponse(c *gin.Context, payload gin.H, result PaginationResult) {
	SetPaginationHeaders(c, result)
	payload["pagination"] = gin.H{
		"page":        result.Page,
		"limit":       result.Limit,
		"total":       result.Total,
		"total_pages": result.TotalPages,
	}
	SuccessResponse(c, payload)
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIError{
		Success: false,
		Error:   message,
		Code:    code,
		Details: details,
	})
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeyAuthRequired)
	}
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func NotFoundResponse(c *gin.Context, key string) {
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", i18n.T(GetLangFromContext(c), key), nil)
}

func ConflictResponse(c *gin.Context, key string) {
	ErrorResponse(c, http.StatusConflict, "CONFLICT", i18n.T(GetLangFromContext(c), key), nil)
}

func BadGatewayResponse(c *gin.Context, key string) {
	ErrorResponse(c, http.StatusBadGateway, "UPSTREAM_ERROR", i18n.T(GetLangFromContext(c), key), nil)
}

// InternalErrorResponse never echoes the cause; log it before calling.
func InternalErrorResponse(c *gin.Context) {
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", i18n.T(GetLangFromContext(c), i18n.KeyInternalError), nil)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	message := i18n.T(GetLangFromContext(c), i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", message, errors)
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}
