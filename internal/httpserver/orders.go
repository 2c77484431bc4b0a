package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xRWDev/ReTech/internal/domain"
	ordersvc "github.com/xRWDev/ReTech/internal/service/order"
)

type statusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

// placeOrder checks out the caller's server cart.
func (h *handlers) placeOrder(c *gin.Context) {
	var in ordersvc.PlaceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	ctx := c.Request.Context()
	userID := identityFrom(c).UserID
	cart, err := h.deps.Carts.Fetch(ctx, userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	in.Items = ordersvc.SnapshotLines(cart)

	order, err := h.deps.Orders.Place(ctx, userID, in)
	if err != nil {
		if errors.Is(err, domain.ErrOrderIncomplete) && order != nil {
			h.logger.WithError(err).WithField("order_id", order.ID).Error("order placed with failures")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "order could not be completed", "orderId": order.ID})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.Orders.ListForUser(c.Request.Context(), identityFrom(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": orders})
}

func (h *handlers) getOrder(c *gin.Context) {
	order, err := h.deps.Orders.Get(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *handlers) adminListOrders(c *gin.Context) {
	status := domain.OrderStatus(c.Query("status"))
	orders, err := h.deps.Orders.ListAll(c.Request.Context(), identityFrom(c), status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": orders})
}

// adminUpdateStatus changes an order's status. A cancel whose restock failed
// still reports the new status, with a warning.
func (h *handlers) adminUpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	order, err := h.deps.Orders.UpdateStatus(c.Request.Context(), identityFrom(c), c.Param("id"), req.Status)
	if err != nil {
		if order != nil {
			h.logger.WithError(err).WithField("order_id", order.ID).Error("status changed with failures")
			c.JSON(http.StatusOK, gin.H{"order": order, "warning": "stock was not restored"})
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}
