package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/metrics"
	"github.com/xRWDev/ReTech/internal/service/anonymous"
	customersvc "github.com/xRWDev/ReTech/internal/service/customer"
)

const (
	identityKey      = "identity"
	guestTokenHeader = "X-Guest-Token"
)

// identityMiddleware resolves the bearer token to a customer or, failing
// that, a guest. Requests without a valid token continue with no identity.
func identityMiddleware(customers customerService, guests guestService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		id, err := customers.LookupByToken(ctx, token)
		if err == nil {
			c.Set(identityKey, id)
			c.Next()
			return
		}
		if !errors.Is(err, customersvc.ErrInvalidToken) {
			abortError(c, err)
			return
		}
		guestID, err := guests.LookupByToken(ctx, token)
		if err == nil {
			c.Set(identityKey, domain.Identity{GuestID: guestID})
		} else if !errors.Is(err, anonymous.ErrInvalidToken) {
			abortError(c, err)
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func identityFrom(c *gin.Context) domain.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}
	}
	id, _ := v.(domain.Identity)
	return id
}

func requireIdentity(c *gin.Context) {
	id := identityFrom(c)
	if id.UserID == "" && id.GuestID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Message: "authentication required"})
		return
	}
	c.Next()
}

func requireUser(c *gin.Context) {
	if !identityFrom(c).Authenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Message: "sign in required"})
		return
	}
	c.Next()
}

func requireAdmin(c *gin.Context) {
	id := identityFrom(c)
	if !id.Authenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Message: "sign in required"})
		return
	}
	if !id.IsAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Message: "admin access required"})
		return
	}
	c.Next()
}

func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start).Seconds())
	}
}
