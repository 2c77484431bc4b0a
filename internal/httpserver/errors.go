package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/domain"
	customersvc "github.com/xRWDev/ReTech/internal/service/customer"
)

type errorBody struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// statusFor maps service errors onto response codes and client-facing text.
// Anything unrecognised is reported as an internal error without detail.
func statusFor(err error) (int, errorBody) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{Message: "validation failed", Fields: verr.Fields}
	case errors.Is(err, customersvc.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorBody{Message: "invalid email or password"}
	case errors.Is(err, customersvc.ErrInvalidToken):
		return http.StatusUnauthorized, errorBody{Message: "invalid or expired token"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorBody{Message: "admin access required"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorBody{Message: "not found"}
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, errorBody{Message: "already exists"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, errorBody{Message: "status change not allowed"}
	case errors.Is(err, domain.ErrOutOfStock):
		return http.StatusConflict, errorBody{Message: "product is out of stock"}
	case errors.Is(err, domain.ErrProductUnavailable):
		return http.StatusConflict, errorBody{Message: "product is not available"}
	case errors.Is(err, domain.ErrOrderIncomplete):
		return http.StatusInternalServerError, errorBody{Message: "order could not be completed"}
	}
	return http.StatusInternalServerError, errorBody{Message: "internal error"}
}

func (h *handlers) fail(c *gin.Context, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"route":  c.FullPath(),
		}).Error("request failed")
	}
	c.JSON(status, body)
}

func abortError(c *gin.Context, err error) {
	status, body := statusFor(err)
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{Message: msg})
}
