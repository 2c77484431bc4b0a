package localcart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xRWDev/ReTech/internal/domain"
)

func product(id string, price int64) domain.Product {
	return domain.Product{ID: id, Title: "Phone " + id, Price: decimal.NewFromInt(price), StockCount: 3, IsAvailable: true}
}

func TestAddItemAccumulatesWithoutStockBound(t *testing.T) {
	var c Cart
	c.AddItem(product("p1", 100), 2)
	c.AddItem(product("p1", 100), 5)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 7, c.Items[0].Quantity)
}

func TestAddItemKeepsFirstPrice(t *testing.T) {
	var c Cart
	c.AddItem(product("p1", 100), 1)
	c.AddItem(product("p1", 80), 1)

	require.Len(t, c.Items, 1)
	assert.True(t, c.Items[0].PriceAtAdd.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "200", c.Total().String())
}

func TestUpdateQuantity(t *testing.T) {
	var c Cart
	c.AddItem(product("p1", 100), 1)
	c.AddItem(product("p2", 50), 1)

	c.UpdateQuantity("p1", 4)
	assert.Equal(t, 4, c.Items[0].Quantity)

	c.UpdateQuantity("missing", 3)
	assert.Len(t, c.Items, 2)

	c.UpdateQuantity("p1", 0)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "p2", c.Items[0].ProductID)
}

func TestTotalsAndClear(t *testing.T) {
	var c Cart
	c.AddItem(product("p1", 100), 2)
	c.AddItem(product("p2", 50), 3)

	assert.Equal(t, "350", c.Total().String())
	assert.Equal(t, 5, c.ItemCount())

	c.RemoveItem("p1")
	assert.Equal(t, 3, c.ItemCount())

	c.Clear()
	assert.True(t, c.Empty())
	assert.True(t, c.Total().IsZero())
}
