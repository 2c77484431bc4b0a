package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xRWDev/ReTech/internal/domain"
	cartsvc "github.com/xRWDev/ReTech/internal/service/cart"
	customersvc "github.com/xRWDev/ReTech/internal/service/customer"
)

type tokenRequest struct {
	Email    string `form:"username" json:"email" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type tokenResponse struct {
	customersvc.Tokens
	TokenType string               `json:"token_type"`
	Customer  *domain.Customer     `json:"customer,omitempty"`
	Merge     *cartsvc.MergeResult `json:"merge,omitempty"`
}

func (h *handlers) issueGuest(c *gin.Context) {
	session, err := h.deps.Guests.Issue(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// endGuest drops the caller's guest session together with its cart.
func (h *handlers) endGuest(c *gin.Context) {
	id := identityFrom(c)
	if id.GuestID == "" {
		badRequest(c, "not a guest session")
		return
	}
	ctx := c.Request.Context()
	if err := h.deps.GuestCarts.Clear(ctx, id.GuestID); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.deps.Guests.Revoke(ctx, bearerToken(c.GetHeader("Authorization"))); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) signup(c *gin.Context) {
	var req customersvc.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	customer, err := h.deps.Customers.Signup(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": customer})
}

// token logs a customer in. A guest token passed in X-Guest-Token has its
// cart merged into the customer's cart; merge problems do not fail the login.
func (h *handlers) token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	ctx := c.Request.Context()
	customer, tokens, err := h.deps.Customers.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := tokenResponse{Tokens: tokens, TokenType: "Bearer", Customer: customer}
	if guestToken := c.GetHeader(guestTokenHeader); guestToken != "" {
		if res, ok := h.mergeGuest(c, guestToken, customer.ID); ok {
			resp.Merge = &res
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refresh_token is required")
		return
	}
	tokens, err := h.deps.Customers.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Tokens: tokens, TokenType: "Bearer"})
}

func (h *handlers) logout(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if err := h.deps.Customers.Logout(c.Request.Context(), token); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) mergeCart(c *gin.Context) {
	guestToken := c.GetHeader(guestTokenHeader)
	if guestToken == "" {
		badRequest(c, "guest token required")
		return
	}
	res, ok := h.mergeGuest(c, guestToken, identityFrom(c).UserID)
	if !ok {
		badRequest(c, "invalid guest token")
		return
	}
	h.respondServerCart(c, identityFrom(c).UserID, http.StatusOK, &res)
}

func (h *handlers) mergeGuest(c *gin.Context, guestToken, userID string) (cartsvc.MergeResult, bool) {
	ctx := c.Request.Context()
	guestID, err := h.deps.Guests.LookupByToken(ctx, guestToken)
	if err != nil {
		return cartsvc.MergeResult{}, false
	}
	res, err := h.deps.Reconciler.Reconcile(ctx, guestID, userID)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{"user_id": userID, "guest_id": guestID}).Warn("guest cart merge incomplete")
	}
	return res, true
}

func (h *handlers) me(c *gin.Context) {
	id := identityFrom(c)
	customer, err := h.deps.Customers.Get(c.Request.Context(), id.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer, "isAdmin": id.IsAdmin})
}

func (h *handlers) updateMe(c *gin.Context) {
	var in customersvc.ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	id := identityFrom(c)
	customer, err := h.deps.Customers.UpdateProfile(c.Request.Context(), id.UserID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer, "isAdmin": id.IsAdmin})
}
