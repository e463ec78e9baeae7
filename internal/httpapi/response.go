package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes carried in the envelope.
const (
	CodeTemplateNotFound = "TEMPLATE_NOT_FOUND"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeGenerationFailed = "GENERATION_FAILED"
)

// APIError is the body of an error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps every error response: {"error":{"message","code"}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes err in the error envelope.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondOK writes payload with status 200.
func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
