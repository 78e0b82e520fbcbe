package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/wordsmith/internal/assessment"
	"github.com/abhisek/wordsmith/internal/lexicon"
	"github.com/abhisek/wordsmith/internal/store"
	"github.com/abhisek/wordsmith/internal/writing"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeInvalidRequest    = "invalid_request"
	CodeValidation        = "validation_error"
	CodeUnsupportedLesson = "unsupported_lesson"
	CodeUnknownLevel      = "unknown_level"
	CodeAttemptSubmitted  = "attempt_submitted"
	CodeRateLimited       = "rate_limited"
	CodeAssessmentFailed  = "assessment_failed"
	CodeInternal          = "internal_error"
)

// GenericFailureMessage is the only message a 5xx response carries. Oracle
// output and internal errors stay in the logs.
const GenericFailureMessage = "assessment failed, please try again"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message})
}

// classify maps a service error onto an HTTP status and error code.
func classify(err error) (int, string, string) {
	var (
		ve *writing.ValidationError
		ul *lexicon.UnsupportedLessonError
		pe *assessment.ParseError
		oe *assessment.OracleUnavailableError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, CodeValidation, ve.Error()
	case errors.As(err, &ul):
		return http.StatusBadRequest, CodeUnsupportedLesson, ul.Error()
	case errors.Is(err, writing.ErrUnknownLevel):
		return http.StatusNotFound, CodeUnknownLevel, "level not found"
	case errors.Is(err, store.ErrAttemptFinal):
		return http.StatusConflict, CodeAttemptSubmitted, "attempt has already been submitted"
	case errors.As(err, &pe), errors.As(err, &oe):
		return http.StatusInternalServerError, CodeAssessmentFailed, GenericFailureMessage
	default:
		return http.StatusInternalServerError, CodeInternal, GenericFailureMessage
	}
}

// respondError writes err and logs server-side failures.
func (s *Server) respondError(c *gin.Context, err error) {
	status, code, message := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.String("code", code),
			zap.Error(err))
	}
	abortWithError(c, status, code, message)
}
