package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeNotActivated       = "NOT_ACTIVATED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeDuplicate          = "DUPLICATE"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

type errorKind struct {
	status         int
	defaultMessage string
}

// kinds maps every code to its HTTP status and the message used when the
// caller passes none. Messages are shown to end users as-is.
var kinds = map[string]errorKind{
	ErrCodeUnauthorized:       {http.StatusUnauthorized, "Authentication required"},
	ErrCodeInvalidCredentials: {http.StatusUnauthorized, "Invalid login or password"},
	ErrCodeNotActivated:       {http.StatusForbidden, "Account is not activated yet"},
	ErrCodeForbidden:          {http.StatusForbidden, "Access denied"},
	ErrCodeInvalidInput:       {http.StatusBadRequest, "Invalid request"},
	ErrCodeNotFound:           {http.StatusNotFound, "Resource not found"},
	ErrCodeConflict:           {http.StatusConflict, "Resource conflict"},
	ErrCodeDuplicate:          {http.StatusConflict, "Already submitted"},
	ErrCodeInternalError:      {http.StatusInternalServerError, "Something went wrong, please try again later"},
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, "Service temporarily unavailable"},
}

// APIError is the JSON body of every error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError builds an APIError, falling back to the code's default message.
func NewAPIError(code, message string) *APIError {
	if message == "" {
		message = kinds[code].defaultMessage
	}
	return &APIError{Code: code, Message: message}
}

// Status returns the HTTP status for code, 500 for unknown codes.
func Status(code string) int {
	if kind, ok := kinds[code]; ok {
		return kind.status
	}
	return http.StatusInternalServerError
}

// Respond writes the error envelope for code with its HTTP status.
func Respond(c *gin.Context, code, message string) {
	c.JSON(Status(code), NewAPIError(code, message))
}

func Unauthorized(c *gin.Context, message string) { Respond(c, ErrCodeUnauthorized, message) }

func InvalidCredentials(c *gin.Context, message string) {
	Respond(c, ErrCodeInvalidCredentials, message)
}

// NotActivated answers logins of accounts still waiting for email activation.
func NotActivated(c *gin.Context, message string) { Respond(c, ErrCodeNotActivated, message) }

func Forbidden(c *gin.Context, message string) { Respond(c, ErrCodeForbidden, message) }

// NotFound is also the answer for resources the caller may not see.
func NotFound(c *gin.Context, message string) { Respond(c, ErrCodeNotFound, message) }

func BadRequest(c *gin.Context, message string) { Respond(c, ErrCodeInvalidInput, message) }

func Conflict(c *gin.Context, message string) { Respond(c, ErrCodeConflict, message) }

// Duplicate rejects content identical to an earlier submission.
func Duplicate(c *gin.Context, message string) { Respond(c, ErrCodeDuplicate, message) }

func InternalError(c *gin.Context, message string) { Respond(c, ErrCodeInternalError, message) }

func ServiceUnavailable(c *gin.Context, message string) {
	Respond(c, ErrCodeServiceUnavailable, message)
}
