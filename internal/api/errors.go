package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes form a closed taxonomy; every response body carries exactly one
// of them alongside a human-readable message.
const (
	codeValidation   = "validation"
	codeUnauthorized = "unauthorized"
	codeConflict     = "conflict"
	codeNotFound     = "not_found"
	codeRateLimited  = "rate_limited"
	codeUpstream     = "upstream"
	codeInternal     = "internal"
)

type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

func (h *Handler) errorBody(code, message string, err error) errorBody {
	body := errorBody{Error: message, Code: code}
	if h.development && err != nil {
		body.Detail = err.Error()
	}
	return body
}

func (h *Handler) writeError(c *gin.Context, status int, code, message string, err error) {
	c.JSON(status, h.errorBody(code, message, err))
}

func (h *Handler) abortError(c *gin.Context, status int, code, message string, err error) {
	c.AbortWithStatusJSON(status, h.errorBody(code, message, err))
}

// upstreamStatus distinguishes a blown gateway ceiling from the rest of the
// upstream failure modes.
func upstreamStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
