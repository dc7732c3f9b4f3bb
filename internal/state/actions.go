package state

import (
	"github.com/angelmondragon/greencart/internal/backend"
	"github.com/angelmondragon/greencart/internal/cart"
)

// Action is a state transition. Apply must be pure: it may not mutate the
// snapshot it receives or anything reachable from it.
type Action interface {
	Name() string
	Apply(Snapshot) Snapshot
}

// SetSession installs an authenticated user and hydrates the cart from it.
type SetSession struct {
	User *backend.User
}

func (SetSession) Name() string { return "set_session" }

func (a SetSession) Apply(s Snapshot) Snapshot {
	if a.User == nil {
		return ClearSession{}.Apply(s)
	}
	s.User = a.User.Clone()
	s.Cart = cart.FromMap(a.User.CartItems)
	s.ShowLogin = false
	s.CartVersion++
	return s
}

// ClearSession drops the user and empties the cart.
type ClearSession struct{}

func (ClearSession) Name() string { return "clear_session" }

func (ClearSession) Apply(s Snapshot) Snapshot {
	s.User = nil
	s.Cart = cart.Items{}
	s.CartVersion++
	return s
}

// ReconcileSession applies a refetched user, but only if the cart has not
// moved since the refetch started. A nil user clears the session.
type ReconcileSession struct {
	User    *backend.User
	Version uint64
}

func (ReconcileSession) Name() string { return "reconcile_session" }

func (a ReconcileSession) Apply(s Snapshot) Snapshot {
	if s.CartVersion != a.Version {
		return s
	}
	if a.User == nil {
		return ClearSession{}.Apply(s)
	}
	s.User = a.User.Clone()
	s.Cart = cart.FromMap(a.User.CartItems)
	return s
}

// AddItem increments a product. Ignored when anonymous.
type AddItem struct {
	ProductID string
}

func (AddItem) Name() string { return "add_item" }

func (a AddItem) Apply(s Snapshot) Snapshot {
	if s.User == nil || a.ProductID == "" {
		return s
	}
	s.Cart = cart.Add(s.Cart, a.ProductID)
	s.CartVersion++
	return s
}

// SetQuantity stores an exact quantity; zero or less removes the product.
type SetQuantity struct {
	ProductID string
	Quantity  int
}

func (SetQuantity) Name() string { return "set_quantity" }

func (a SetQuantity) Apply(s Snapshot) Snapshot {
	if s.User == nil || a.ProductID == "" {
		return s
	}
	s.Cart = cart.Set(s.Cart, a.ProductID, a.Quantity)
	s.CartVersion++
	return s
}

// RemoveItem decrements a product. Removing an absent product is a no-op.
type RemoveItem struct {
	ProductID string
}

func (RemoveItem) Name() string { return "remove_item" }

func (a RemoveItem) Apply(s Snapshot) Snapshot {
	if s.User == nil {
		return s
	}
	next, changed := cart.Remove(s.Cart, a.ProductID)
	if !changed {
		return s
	}
	s.Cart = next
	s.CartVersion++
	return s
}

// ApplyPushResult installs the cart the backend confirmed for a push made at
// Version. Results for older versions are dropped.
type ApplyPushResult struct {
	Items   map[string]int
	Version uint64
}

func (ApplyPushResult) Name() string { return "apply_push_result" }

func (a ApplyPushResult) Apply(s Snapshot) Snapshot {
	if s.User == nil || s.CartVersion != a.Version {
		return s
	}
	s.Cart = cart.FromMap(a.Items)
	return s
}

type SetSeller struct {
	IsSeller bool
}

func (SetSeller) Name() string { return "set_seller" }

func (a SetSeller) Apply(s Snapshot) Snapshot {
	s.IsSeller = a.IsSeller
	return s
}

// ShowLogin toggles the login prompt.
type ShowLogin struct {
	Show bool
}

func (ShowLogin) Name() string { return "show_login" }

func (a ShowLogin) Apply(s Snapshot) Snapshot {
	s.ShowLogin = a.Show
	return s
}
