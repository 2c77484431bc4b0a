package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xRWDev/ReTech/internal/domain"
	"github.com/xRWDev/ReTech/internal/localcart"
	cartsvc "github.com/xRWDev/ReTech/internal/service/cart"
)

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type cartLineView struct {
	ID         string             `json:"id,omitempty"`
	ProductID  string             `json:"productId"`
	Quantity   int                `json:"quantity"`
	PriceAtAdd decimal.Decimal    `json:"priceAtAdd"`
	Product    *domain.ProductRef `json:"product,omitempty"`
}

// cartView is the common shape of guest and server carts.
type cartView struct {
	ID        string               `json:"id,omitempty"`
	Guest     bool                 `json:"guest"`
	Items     []cartLineView       `json:"items"`
	ItemCount int                  `json:"itemCount"`
	Subtotal  decimal.Decimal      `json:"subtotal"`
	Merge     *cartsvc.MergeResult `json:"merge,omitempty"`
}

func serverCartView(cart *domain.Cart) cartView {
	v := cartView{Items: []cartLineView{}, Subtotal: decimal.Zero}
	if cart == nil {
		return v
	}
	v.ID = cart.ID
	v.ItemCount = cart.ItemCount()
	v.Subtotal = cart.Subtotal()
	for _, l := range cart.Lines {
		v.Items = append(v.Items, cartLineView{
			ID:         l.ID,
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
			PriceAtAdd: l.PriceAtAdd,
			Product:    l.Product,
		})
	}
	return v
}

func guestCartView(cart localcart.Cart) cartView {
	v := cartView{Guest: true, Items: []cartLineView{}, ItemCount: cart.ItemCount(), Subtotal: cart.Total()}
	for _, it := range cart.Items {
		v.Items = append(v.Items, cartLineView{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			PriceAtAdd: it.PriceAtAdd,
			Product:    it.Product,
		})
	}
	return v
}

func (h *handlers) respondServerCart(c *gin.Context, userID string, status int, merge *cartsvc.MergeResult) {
	cart, err := h.deps.Carts.Fetch(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	v := serverCartView(cart)
	v.Merge = merge
	c.JSON(status, v)
}

func (h *handlers) respondGuestCart(c *gin.Context, cart localcart.Cart, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, guestCartView(cart))
}

func (h *handlers) getCart(c *gin.Context) {
	id := identityFrom(c)
	if id.Authenticated() {
		h.respondServerCart(c, id.UserID, http.StatusOK, nil)
		return
	}
	cart, err := h.deps.GuestCarts.Load(c.Request.Context(), id.GuestID)
	h.respondGuestCart(c, cart, err)
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
		badRequest(c, "productId is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	ctx := c.Request.Context()
	id := identityFrom(c)
	if id.Authenticated() {
		if err := h.deps.Carts.AddItem(ctx, id.UserID, req.ProductID, req.Quantity); err != nil {
			h.fail(c, err)
			return
		}
		h.respondServerCart(c, id.UserID, http.StatusOK, nil)
		return
	}

	if req.Quantity < 1 {
		h.fail(c, &domain.ValidationError{Fields: map[string]string{"quantity": "must be at least 1"}})
		return
	}
	product, err := h.deps.Catalog.Get(ctx, req.ProductID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !product.IsAvailable {
		h.fail(c, domain.ErrProductUnavailable)
		return
	}
	cart, err := h.deps.GuestCarts.Update(ctx, id.GuestID, func(cart *localcart.Cart) error {
		cart.AddItem(*product, req.Quantity)
		return nil
	})
	h.respondGuestCart(c, cart, err)
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "quantity is required")
		return
	}
	ctx := c.Request.Context()
	productID := c.Param("productId")
	id := identityFrom(c)
	if id.Authenticated() {
		if err := h.deps.Carts.UpdateQuantity(ctx, id.UserID, productID, *req.Quantity); err != nil {
			h.fail(c, err)
			return
		}
		h.respondServerCart(c, id.UserID, http.StatusOK, nil)
		return
	}
	cart, err := h.deps.GuestCarts.Update(ctx, id.GuestID, func(cart *localcart.Cart) error {
		cart.UpdateQuantity(productID, *req.Quantity)
		return nil
	})
	h.respondGuestCart(c, cart, err)
}

func (h *handlers) removeCartItem(c *gin.Context) {
	ctx := c.Request.Context()
	productID := c.Param("productId")
	id := identityFrom(c)
	if id.Authenticated() {
		if err := h.deps.Carts.RemoveItem(ctx, id.UserID, productID); err != nil {
			h.fail(c, err)
			return
		}
		h.respondServerCart(c, id.UserID, http.StatusOK, nil)
		return
	}
	cart, err := h.deps.GuestCarts.Update(ctx, id.GuestID, func(cart *localcart.Cart) error {
		cart.RemoveItem(productID)
		return nil
	})
	h.respondGuestCart(c, cart, err)
}

func (h *handlers) clearCart(c *gin.Context) {
	ctx := c.Request.Context()
	id := identityFrom(c)
	if id.Authenticated() {
		if err := h.deps.Carts.Clear(ctx, id.UserID); err != nil {
			h.fail(c, err)
			return
		}
		h.respondServerCart(c, id.UserID, http.StatusOK, nil)
		return
	}
	if err := h.deps.GuestCarts.Clear(ctx, id.GuestID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, guestCartView(localcart.Cart{}))
}
