package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simaogato/shareledger/internal/domain"
)

// statusFor maps a domain error to an HTTP status code
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInsufficientShares):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrExternalUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	s.writeErrorStatus(c, statusFor(err), err)
}

// writePriceError answers an unavailable price with 404 like the other lookup misses
func (s *Server) writePriceError(c *gin.Context, err error) {
	status := statusFor(err)
	if errors.Is(err, domain.ErrExternalUnavailable) {
		status = http.StatusNotFound
	}
	s.writeErrorStatus(c, status, err)
}

func (s *Server) writeErrorStatus(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.Logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{
		Error:   domain.ErrorKind(err),
		Message: err.Error(),
	})
}
