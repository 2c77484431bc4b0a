package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xRWDev/ReTech/internal/service/catalog"
)

func (h *handlers) adminStats(c *gin.Context) {
	stats, err := h.deps.Dashboard.Stats(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *handlers) adminListProducts(c *gin.Context) {
	products, err := h.deps.Catalog.AdminList(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": products})
}

func (h *handlers) adminCreateProduct(c *gin.Context) {
	var in catalog.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	p, err := h.deps.Catalog.Create(c.Request.Context(), identityFrom(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *handlers) adminUpdateProduct(c *gin.Context) {
	var in catalog.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	p, err := h.deps.Catalog.Update(c.Request.Context(), identityFrom(c), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) adminDeleteProduct(c *gin.Context) {
	if err := h.deps.Catalog.Delete(c.Request.Context(), identityFrom(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
