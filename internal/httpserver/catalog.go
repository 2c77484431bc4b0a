package httpserver

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/xRWDev/ReTech/internal/domain"
	productrepo "github.com/xRWDev/ReTech/internal/repository/product"
)

func (h *handlers) categories(c *gin.Context) {
	list, err := h.deps.Categories.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": list})
}

func (h *handlers) listProducts(c *gin.Context) {
	filter, err := parseFilter(c.Request.URL.Query())
	if err != nil {
		h.fail(c, err)
		return
	}
	products, err := h.deps.Catalog.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(products), "results": products})
}

func (h *handlers) filterOptions(c *gin.Context) {
	opts, err := h.deps.Catalog.FilterOptions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

func (h *handlers) featured(c *gin.Context) {
	products, err := h.deps.Catalog.Featured(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": products})
}

// productBySlug also records the product in the caller's recently viewed list.
func (h *handlers) productBySlug(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.deps.Catalog.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if viewer := viewerID(identityFrom(c)); viewer != "" {
		if err := h.deps.Recent.Add(ctx, viewer, *p.Ref()); err != nil {
			h.logger.WithError(err).WithField("product_id", p.ID).Warn("recently viewed not recorded")
		}
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) similar(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.deps.Catalog.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}
	products, err := h.deps.Catalog.Similar(ctx, *p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": products})
}

func (h *handlers) recentlyViewed(c *gin.Context) {
	list, err := h.deps.Recent.List(c.Request.Context(), viewerID(identityFrom(c)))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": list})
}

func viewerID(id domain.Identity) string {
	if id.UserID != "" {
		return id.UserID
	}
	return id.GuestID
}

// parseFilter reads catalog filters from the query string. List values may
// be repeated or comma separated.
func parseFilter(q url.Values) (productrepo.Filter, error) {
	verr := &domain.ValidationError{}
	f := productrepo.Filter{
		Categories:  listParam(q, "category"),
		Brands:      listParam(q, "brand"),
		Conditions:  listParam(q, "condition"),
		Cities:      listParam(q, "city"),
		Search:      strings.TrimSpace(q.Get("q")),
		InStockOnly: q.Get("inStock") == "true" || q.Get("inStock") == "1",
		Sort:        productrepo.Sort(q.Get("sort")),
	}
	for _, cat := range f.Categories {
		if !domain.IsCategory(cat) {
			verr.Add("category", "unknown category "+cat)
		}
	}
	for _, cond := range f.Conditions {
		if !domain.Condition(cond).Valid() {
			verr.Add("condition", "must be A, B or C")
		}
	}
	if v := q.Get("minPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			verr.Add("minPrice", "must be a number")
		} else {
			f.MinPrice = &d
		}
	}
	if v := q.Get("maxPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			verr.Add("maxPrice", "must be a number")
		} else {
			f.MaxPrice = &d
		}
	}
	if v := q.Get("warranty"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			verr.Add("warranty", "must be a non-negative integer")
		} else {
			f.WarrantyMonths = n
		}
	}
	switch f.Sort {
	case "", productrepo.SortPopular, productrepo.SortNewest, productrepo.SortPriceAsc, productrepo.SortPriceDesc:
	default:
		verr.Add("sort", "unknown sort")
	}
	return f, verr.OrNil()
}

func listParam(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
