// Package engine runs cart mutations: it applies them to the state store
// right away, then pushes the whole cart to the backend in the background and
// reconciles with the server when a push fails.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/greencart/internal/backend"
	"github.com/angelmondragon/greencart/internal/cart"
	"github.com/angelmondragon/greencart/internal/notify"
	"github.com/angelmondragon/greencart/internal/state"
	pkgerrors "github.com/angelmondragon/greencart/pkg/errors"
	"github.com/angelmondragon/greencart/pkg/logger"
	"github.com/angelmondragon/greencart/pkg/metrics"
	"github.com/shopspring/decimal"
)

const (
	MsgLoginToAdd    = "Please login to add items to cart"
	MsgAdded         = "Added to cart"
	MsgUpdated       = "Cart Updated"
	MsgRemoved       = "Remove From Cart"
	MsgUpdateFailed  = "Failed to update cart"
	defaultPushLimit = 10 * time.Second
)

// ErrLoginRequired is returned by AddItem for an anonymous session.
var ErrLoginRequired = pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")

// Pusher sends a full cart snapshot to the backend.
type Pusher interface {
	UpdateCart(ctx context.Context, items map[string]int) (*backend.CartResponse, error)
}

// Reconciler refetches the canonical user and cart.
type Reconciler interface {
	RefreshUser(ctx context.Context) state.Snapshot
}

type Deps struct {
	API         Pusher
	Session     Reconciler
	Store       *state.Store
	Prices      cart.PriceLookup
	Notifier    notify.Notifier
	Logger      *logger.Logger
	Metrics     *metrics.ClientMetrics
	PushTimeout time.Duration
}

type Engine struct {
	api     Pusher
	session Reconciler
	store   *state.Store
	prices  cart.PriceLookup
	notify  notify.Notifier
	logg    *logger.Logger
	metrics *metrics.ClientMetrics
	timeout time.Duration

	inflight sync.WaitGroup
}

func New(deps Deps) (*Engine, error) {
	if deps.API == nil {
		return nil, errors.New("cart api is required")
	}
	if deps.Session == nil {
		return nil, errors.New("session reconciler is required")
	}
	if deps.Store == nil {
		return nil, errors.New("state store is required")
	}
	e := &Engine{
		api:     deps.API,
		session: deps.Session,
		store:   deps.Store,
		prices:  deps.Prices,
		notify:  deps.Notifier,
		logg:    deps.Logger,
		metrics: deps.Metrics,
		timeout: deps.PushTimeout,
	}
	if e.logg == nil {
		e.logg = logger.Nop()
	}
	if e.notify == nil {
		e.notify = notify.NewLog(e.logg)
	}
	if e.timeout <= 0 {
		e.timeout = defaultPushLimit
	}
	return e, nil
}

// AddItem adds one unit of productID. Anonymous callers get ErrLoginRequired
// and the login prompt is opened.
func (e *Engine) AddItem(ctx context.Context, productID string) error {
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	tr := e.store.Dispatch(state.AddItem{ProductID: productID})
	if !tr.Prev.Authenticated() {
		e.notify.Error(ctx, MsgLoginToAdd)
		e.store.Dispatch(state.ShowLogin{Show: true})
		return ErrLoginRequired
	}
	e.push(e.logg.WithProductID(ctx, productID), tr.Next)
	e.notify.Success(ctx, MsgAdded)
	return nil
}

// SetQuantity stores an exact quantity. It does nothing for anonymous callers.
func (e *Engine) SetQuantity(ctx context.Context, productID string, qty int) error {
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	tr := e.store.Dispatch(state.SetQuantity{ProductID: productID, Quantity: qty})
	if !tr.CartChanged() {
		return nil
	}
	e.push(e.logg.WithProductID(ctx, productID), tr.Next)
	e.notify.Success(ctx, MsgUpdated)
	return nil
}

// RemoveItem takes one unit of productID out of the cart. It does nothing for
// anonymous callers or products not in the cart.
func (e *Engine) RemoveItem(ctx context.Context, productID string) error {
	tr := e.store.Dispatch(state.RemoveItem{ProductID: productID})
	if !tr.CartChanged() {
		return nil
	}
	e.push(e.logg.WithProductID(ctx, productID), tr.Next)
	e.notify.Success(ctx, MsgRemoved)
	return nil
}

func (e *Engine) Items() cart.Items {
	return e.store.State().Cart
}

func (e *Engine) TotalCount() int {
	return e.store.State().Cart.TotalCount()
}

// TotalAmount prices the cart at offer prices, truncated to cents.
func (e *Engine) TotalAmount() decimal.Decimal {
	return e.store.State().Cart.TotalAmount(e.prices)
}

// Wait blocks until every push started so far has finished.
func (e *Engine) Wait() {
	e.inflight.Wait()
}

// push sends snap's cart in the background. The result is applied only if
// snap is still the newest cart version.
func (e *Engine) push(ctx context.Context, snap state.Snapshot) {
	version := snap.CartVersion
	items := snap.Cart.Map()
	ctx = e.logg.WithCartVersion(ctx, version)

	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()

		resp, err := e.api.UpdateCart(pctx, items)
		switch {
		case err != nil:
			e.metrics.IncPush(metrics.PushFailed)
			if pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
				// The unauthorized hook ends the session when the push
				// carried the current token.
				return
			}
			dump := pkgerrors.Dump(err)
			e.logg.Warn(e.logg.WithFields(pctx, map[string]any{
				"error":       dump.TopMessage,
				"error_code":  dump.Code,
				"error_chain": dump.Chain,
				"status":      dump.Status,
			}), "cart push failed")
			e.notify.Error(pctx, MsgUpdateFailed)
			e.reconcile(pctx, version)
		case !resp.Success:
			e.metrics.IncPush(metrics.PushRejected)
			msg := resp.Message
			if msg == "" {
				msg = MsgUpdateFailed
			}
			e.logg.Warn(pctx, "cart push rejected: "+msg)
			e.notify.Error(pctx, msg)
			e.reconcile(pctx, version)
		default:
			confirmed := resp.CartItems
			if confirmed == nil {
				confirmed = items
			}
			tr := e.store.Dispatch(state.ApplyPushResult{Items: confirmed, Version: version})
			if tr.Prev.CartVersion != version {
				e.metrics.IncPush(metrics.PushStale)
				e.logg.Debug(pctx, "dropping stale cart push result")
				return
			}
			e.metrics.IncPush(metrics.PushApplied)
		}
	}()
}

// reconcile overwrites local state with the server's, unless a newer local
// mutation exists. That mutation's own push settles the cart instead.
func (e *Engine) reconcile(ctx context.Context, version uint64) {
	if e.store.State().CartVersion != version {
		e.metrics.IncReconcile(metrics.ReconcileStale)
		return
	}
	e.session.RefreshUser(ctx)
}
