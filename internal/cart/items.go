// Package cart models the cart as an immutable product id -> quantity map.
// Every reducer returns a fresh Items and leaves its input untouched, and no
// reducer ever stores a quantity below one.
package cart

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Items maps product id to a strictly positive quantity.
type Items map[string]int

// PriceLookup resolves the unit price charged for a product.
type PriceLookup interface {
	OfferPrice(id string) (decimal.Decimal, bool)
}

// FromMap copies m, dropping entries that would break the positive-quantity rule.
func FromMap(m map[string]int) Items {
	out := make(Items, len(m))
	for id, qty := range m {
		if id == "" || qty <= 0 {
			continue
		}
		out[id] = qty
	}
	return out
}

func (i Items) Clone() Items {
	out := make(Items, len(i))
	for id, qty := range i {
		out[id] = qty
	}
	return out
}

// Map returns a plain map copy for the wire.
func (i Items) Map() map[string]int {
	out := make(map[string]int, len(i))
	for id, qty := range i {
		out[id] = qty
	}
	return out
}

func (i Items) Quantity(id string) int {
	return i[id]
}

// IDs returns product ids in sorted order.
func (i Items) IDs() []string {
	ids := make([]string, 0, len(i))
	for id := range i {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (i Items) Equal(other Items) bool {
	if len(i) != len(other) {
		return false
	}
	for id, qty := range i {
		if other[id] != qty {
			return false
		}
	}
	return true
}

// Add increments id by one, creating it at one.
func Add(items Items, id string) Items {
	out := items.Clone()
	out[id]++
	return out
}

// Set stores qty for id. A quantity of zero or less removes the entry.
func Set(items Items, id string, qty int) Items {
	out := items.Clone()
	if qty <= 0 {
		delete(out, id)
		return out
	}
	out[id] = qty
	return out
}

// Remove decrements id by one and deletes it at zero. changed is false when
// id was not in the cart.
func Remove(items Items, id string) (out Items, changed bool) {
	qty, ok := items[id]
	if !ok {
		return items.Clone(), false
	}
	out = items.Clone()
	if qty <= 1 {
		delete(out, id)
	} else {
		out[id] = qty - 1
	}
	return out, true
}

// TotalCount is the sum of all quantities.
func (i Items) TotalCount() int {
	total := 0
	for _, qty := range i {
		total += qty
	}
	return total
}

// TotalAmount sums offer price times quantity over products the lookup knows,
// truncated toward zero at cent precision.
func (i Items) TotalAmount(prices PriceLookup) decimal.Decimal {
	total := decimal.Zero
	if prices == nil {
		return total
	}
	for id, qty := range i {
		if qty <= 0 {
			continue
		}
		price, ok := prices.OfferPrice(id)
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total.RoundFloor(2)
}
