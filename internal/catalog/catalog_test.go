package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/greencart/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, c.All())

	p, ok := c.Find("gd46g23h")
	require.True(t, ok)
	assert.Equal(t, "Potato 500g", p.Name)
	assert.True(t, p.OfferPrice.Equal(decimal.NewFromInt(20)))

	price, ok := c.OfferPrice("ek52j23k")
	require.True(t, ok)
	assert.Equal(t, "44.5", price.String())

	_, ok = c.OfferPrice("missing")
	assert.False(t, ok)
}

func TestSearch(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	hits := c.Search("TOMATO")
	require.Len(t, hits, 1)
	assert.Equal(t, "gd47g34h", hits[0].ID)

	for _, p := range c.Search("vegetables") {
		assert.True(t, p.InStock, "out of stock products must be hidden")
		assert.NotEqual(t, "gd49g56h", p.ID)
	}
	assert.Len(t, c.Search(""), len(c.All())-1)
}

func TestCategoriesSortedAndDistinct(t *testing.T) {
	c := New([]Product{
		{ID: "a", Category: "Fruits"},
		{ID: "b", Category: "Bakery"},
		{ID: "c", Category: "Fruits"},
		{ID: "a", Category: "Dup"},
		{Category: "NoID"},
	})
	assert.Equal(t, []string{"Bakery", "Fruits"}, c.Categories())
	assert.Len(t, c.All(), 3)
	assert.Len(t, c.ByCategory("fruits"), 2)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"_id":"x","name":"X","offerPrice":"19.995","inStock":true}]`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	price, ok := c.OfferPrice("x")
	require.True(t, ok)
	assert.Equal(t, "19.995", price.String())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	def, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, def.All())
}

func TestPaginateDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	first, next, err := Paginate(c.All(), pagination.Params{Limit: 5})
	require.NoError(t, err)
	require.Len(t, first, 5)
	require.NotEmpty(t, next)

	second, _, err := Paginate(c.All(), pagination.Params{Limit: 5, Cursor: next})
	require.NoError(t, err)
	require.NotEmpty(t, second)
	assert.NotEqual(t, first[0].ID, second[0].ID)
	assert.Equal(t, c.All()[5].ID, second[0].ID)
}
