package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wheelsdeals/tireshop/internal/appointment"
	"github.com/wheelsdeals/tireshop/internal/quote"
	"github.com/wheelsdeals/tireshop/internal/validate"
	"github.com/wheelsdeals/tireshop/internal/wizard"
	"go.uber.org/zap"
)

// Error codes carried in the "error" field of failure responses.
const (
	codeValidation    = "VALIDATION_ERROR"
	codeBadRequest    = "BAD_REQUEST"
	codeNotFound      = "NOT_FOUND"
	codeConflict      = "CONFLICT"
	codeUnavailable   = "SERVICE_UNAVAILABLE"
	codeDelivery      = "DELIVERY_FAILED"
	codeInternal      = "INTERNAL_ERROR"
	codeUnauthorized  = "UNAUTHORIZED"
	codeWizardBlocked = "STEP_INCOMPLETE"
)

// errorBody is the failure envelope.
type errorBody struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// fail writes the failure envelope with an explicit status and code.
func fail(c *gin.Context, status int, code, msg string, details interface{}) {
	c.AbortWithStatusJSON(status, errorBody{Error: code, Message: msg, Details: details})
}

// failErr maps a domain error to its HTTP status. Unrecognised errors are
// logged and answered with 500 without leaking their text.
func failErr(c *gin.Context, err error) {
	if ve, ok := validate.As(err); ok {
		fail(c, http.StatusBadRequest, codeValidation, "Invalid input data", ve.Issues)
		return
	}
	switch {
	case errors.Is(err, quote.ErrNotFound), errors.Is(err, appointment.ErrNotFound):
		fail(c, http.StatusNotFound, codeNotFound, err.Error(), nil)
	case errors.Is(err, quote.ErrInvalidTransition), errors.Is(err, appointment.ErrAlreadyDecided):
		fail(c, http.StatusConflict, codeConflict, err.Error(), nil)
	case errors.Is(err, quote.ErrAmountRequired):
		fail(c, http.StatusBadRequest, codeValidation, err.Error(),
			[]validate.Issue{{Field: "quote_amount", Rule: "required", Message: "is required"}})
	case errors.Is(err, quote.ErrNoNotifier):
		fail(c, http.StatusServiceUnavailable, codeUnavailable, err.Error(), nil)
	case errors.Is(err, quote.ErrSendFailed):
		_ = c.Error(err)
		fail(c, http.StatusBadGateway, codeDelivery, "the quote email could not be sent", nil)
	case errors.Is(err, wizard.ErrUnknownField):
		fail(c, http.StatusBadRequest, codeBadRequest, err.Error(), nil)
	case errors.Is(err, wizard.ErrStepLocked), errors.Is(err, wizard.ErrIncomplete):
		fail(c, http.StatusConflict, codeWizardBlocked, err.Error(), nil)
	default:
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, codeInternal, "internal error", nil)
	}
}

// bind decodes the JSON body into v, answering 400 on malformed input.
func bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		fail(c, http.StatusBadRequest, codeBadRequest, "request body must be valid JSON: "+err.Error(), nil)
		return false
	}
	return true
}
