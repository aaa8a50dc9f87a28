package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"headless-storefront/internal/domain"
	"headless-storefront/internal/logging"
	"headless-storefront/internal/shopify"
	"headless-storefront/internal/storage"
)

// IDKey is the storage key of the persisted cart id.
const IDKey = "shopify_cart_id"

var (
	ErrNoCart                = errors.New("No cart available")
	ErrInvalidDiscountCode   = errors.New("Invalid discount code")
	ErrEmptyDiscountCode     = errors.New("Please enter a discount code")
	ErrDuplicateDiscountCode = errors.New("Discount code already applied")
)

// API is the subset of the Storefront API the coordinator needs.
type API interface {
	CreateCart(ctx context.Context, input shopify.CartInput) (*domain.Cart, error)
	Cart(ctx context.Context, id string) (*domain.Cart, error)
	AddLines(ctx context.Context, cartID string, lines []shopify.LineInput) (*domain.Cart, error)
	UpdateLines(ctx context.Context, cartID string, lines []shopify.LineUpdate) (*domain.Cart, error)
	RemoveLines(ctx context.Context, cartID string, lineIDs []string) (*domain.Cart, error)
	UpdateBuyerIdentity(ctx context.Context, cartID string, identity shopify.BuyerIdentityInput) (*domain.Cart, error)
	UpdateAttributes(ctx context.Context, cartID string, attrs []domain.Attribute) (*domain.Cart, error)
	UpdateDiscountCodes(ctx context.Context, cartID string, codes []string) (*domain.Cart, error)
	UpdateNote(ctx context.Context, cartID, note string) (*domain.Cart, error)
}

// Coordinator owns the device's cart. Mutations are not serialized: when two run
// concurrently, the last server response to arrive becomes the state.
type Coordinator struct {
	api    API
	store  storage.Store
	logger log.FieldLogger

	initMu sync.Mutex

	mu        sync.Mutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

func New(api API, store storage.Store, logger log.FieldLogger) *Coordinator {
	return &Coordinator{
		api:       api,
		store:     store,
		logger:    logging.Component(logger, "cart"),
		listeners: map[int]func(State){},
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn for every state change and returns its unsubscribe func.
func (c *Coordinator) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Coordinator) update(fn func(*State)) {
	c.mu.Lock()
	fn(&c.state)
	snapshot := c.state.clone()
	listeners := make([]func(State), 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()
	for _, l := range listeners {
		l(snapshot)
	}
}

func (c *Coordinator) currentCart() *domain.Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Cart.Clone()
}

func (c *Coordinator) startLoading() {
	c.update(func(s *State) {
		s.IsLoading = true
		s.Error = ""
	})
}

func (c *Coordinator) fail(op string, err error) error {
	c.logger.WithError(err).WithField("op", op).Warn("cart operation failed")
	c.update(func(s *State) {
		s.IsLoading = false
		s.Error = err.Error()
	})
	return err
}

func (c *Coordinator) setCart(cart *domain.Cart) {
	c.update(func(s *State) {
		s.Cart = cart
		s.IsLoading = false
	})
}

func (c *Coordinator) ClearError() {
	c.update(func(s *State) { s.Error = "" })
}

// Initialize restores the persisted cart or creates a new one. It runs once per
// coordinator; later calls return immediately.
func (c *Coordinator) Initialize(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.State().IsInitialized {
		return nil
	}

	c.startLoading()
	err := c.loadOrCreate(ctx)
	c.update(func(s *State) {
		s.IsInitialized = true
		s.IsLoading = false
		if err != nil {
			s.Error = err.Error()
		}
	})
	if err != nil {
		c.logger.WithError(err).Error("cart initialization failed")
	}
	return err
}

// loadOrCreate fetches the cart behind the stored id, creating a fresh cart when
// there is no id or the server no longer knows it.
func (c *Coordinator) loadOrCreate(ctx context.Context) error {
	id, err := c.store.Get(ctx, IDKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("read cart id: %w", err)
	}
	if id != "" {
		cart, err := c.api.Cart(ctx, id)
		if err != nil {
			return err
		}
		if cart != nil {
			c.setCart(cart)
			return nil
		}
		c.logger.WithField("cart_id", id).Info("stored cart expired, creating a new one")
	}
	_, err = c.createCart(ctx)
	return err
}

func (c *Coordinator) createCart(ctx context.Context) (*domain.Cart, error) {
	cart, err := c.api.CreateCart(ctx, shopify.CartInput{})
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, IDKey, cart.ID); err != nil {
		return nil, fmt.Errorf("persist cart id: %w", err)
	}
	c.setCart(cart)
	return cart, nil
}

// RefreshCart reloads the cart from the server.
func (c *Coordinator) RefreshCart(ctx context.Context) error {
	c.startLoading()
	if err := c.loadOrCreate(ctx); err != nil {
		return c.fail("refresh", err)
	}
	return nil
}

// ClearCart abandons the current cart and starts a new one.
func (c *Coordinator) ClearCart(ctx context.Context) error {
	c.startLoading()
	if err := c.store.Delete(ctx, IDKey); err != nil {
		return c.fail("clear", fmt.Errorf("delete cart id: %w", err))
	}
	if _, err := c.createCart(ctx); err != nil {
		return c.fail("clear", err)
	}
	return nil
}

// AddToCart adds one line, creating the cart first when none is held. There is no
// optimistic projection; IsLoading covers the round-trip.
func (c *Coordinator) AddToCart(ctx context.Context, merchandiseID string, quantity int, attrs []domain.Attribute) error {
	c.startLoading()
	cart := c.currentCart()
	if cart == nil {
		created, err := c.createCart(ctx)
		if err != nil {
			return c.fail("add", err)
		}
		cart = created
		c.update(func(s *State) { s.IsLoading = true })
	}
	if attrs == nil {
		attrs = []domain.Attribute{}
	}
	updated, err := c.api.AddLines(ctx, cart.ID, []shopify.LineInput{{
		MerchandiseID: merchandiseID,
		Quantity:      quantity,
		Attributes:    attrs,
	}})
	if err != nil {
		return c.fail("add", err)
	}
	c.setCart(updated)
	return nil
}

// UpdateCartLine sets a line's quantity optimistically.
func (c *Coordinator) UpdateCartLine(ctx context.Context, lineID string, quantity int) error {
	return c.optimistic(ctx, "update_line",
		func(cart *domain.Cart) { setLineQuantity(cart, lineID, quantity) },
		func(ctx context.Context, cartID string) (*domain.Cart, error) {
			return c.api.UpdateLines(ctx, cartID, []shopify.LineUpdate{{ID: lineID, Quantity: quantity}})
		})
}

// RemoveFromCart drops a line optimistically.
func (c *Coordinator) RemoveFromCart(ctx context.Context, lineID string) error {
	return c.optimistic(ctx, "remove_line",
		func(cart *domain.Cart) { setLineQuantity(cart, lineID, 0) },
		func(ctx context.Context, cartID string) (*domain.Cart, error) {
			return c.api.RemoveLines(ctx, cartID, []string{lineID})
		})
}

// optimistic publishes project(current cart) immediately, then replaces it with the
// server's cart or restores the pre-call snapshot if call fails.
func (c *Coordinator) optimistic(
	ctx context.Context,
	op string,
	project func(*domain.Cart),
	call func(ctx context.Context, cartID string) (*domain.Cart, error),
) error {
	var snapshot *domain.Cart
	c.update(func(s *State) {
		if s.Cart == nil {
			return
		}
		snapshot = s.Cart.Clone()
		project(s.Cart)
		s.IsLoading = true
		s.Error = ""
	})
	if snapshot == nil {
		return c.fail(op, ErrNoCart)
	}

	updated, err := call(ctx, snapshot.ID)
	if err != nil {
		c.logger.WithError(err).WithField("op", op).Warn("rolling back optimistic cart update")
		c.update(func(s *State) {
			s.Cart = snapshot
			s.IsLoading = false
			s.Error = err.Error()
		})
		return err
	}
	c.setCart(updated)
	return nil
}

// setLineQuantity mirrors what the server will do to one line: its total becomes
// quantity × unit price and the cart's totalQuantity is recounted. Quantity 0 removes it.
func setLineQuantity(cart *domain.Cart, lineID string, quantity int) {
	lines := cart.Lines[:0:0]
	for _, l := range cart.Lines {
		if l.ID == lineID {
			if quantity <= 0 {
				continue
			}
			l.Quantity = quantity
			l.Cost.TotalAmount = l.Cost.AmountPerQuantity.Times(quantity)
		}
		lines = append(lines, l)
	}
	cart.Lines = lines
	cart.TotalQuantity = cart.LineQuantity()
}

// mutate runs a non-optimistic cart mutation against the held cart.
func (c *Coordinator) mutate(ctx context.Context, op string, call func(ctx context.Context, cartID string) (*domain.Cart, error)) error {
	c.startLoading()
	cart := c.currentCart()
	if cart == nil {
		return c.fail(op, ErrNoCart)
	}
	updated, err := call(ctx, cart.ID)
	if err != nil {
		return c.fail(op, err)
	}
	c.setCart(updated)
	return nil
}

func (c *Coordinator) UpdateBuyerIdentity(ctx context.Context, identity shopify.BuyerIdentityInput) error {
	return c.mutate(ctx, "buyer_identity", func(ctx context.Context, id string) (*domain.Cart, error) {
		return c.api.UpdateBuyerIdentity(ctx, id, identity)
	})
}

func (c *Coordinator) UpdateAttributes(ctx context.Context, attrs []domain.Attribute) error {
	return c.mutate(ctx, "attributes", func(ctx context.Context, id string) (*domain.Cart, error) {
		return c.api.UpdateAttributes(ctx, id, attrs)
	})
}

func (c *Coordinator) UpdateNote(ctx context.Context, note string) error {
	return c.mutate(ctx, "note", func(ctx context.Context, id string) (*domain.Cart, error) {
		return c.api.UpdateNote(ctx, id, note)
	})
}

// UpdateDiscountCodes replaces the cart's codes with exactly codes.
func (c *Coordinator) UpdateDiscountCodes(ctx context.Context, codes []string) error {
	return c.mutate(ctx, "discount_codes", func(ctx context.Context, id string) (*domain.Cart, error) {
		return c.api.UpdateDiscountCodes(ctx, id, codes)
	})
}

// ApplyDiscountCode adds code to the applied set. Blank and already-present codes
// are rejected without a request.
func (c *Coordinator) ApplyDiscountCode(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return c.fail("apply_discount", ErrEmptyDiscountCode)
	}
	st := c.State()
	if st.Cart == nil {
		return c.fail("apply_discount", ErrNoCart)
	}
	if st.hasDiscountCode(code) {
		return c.fail("apply_discount", ErrDuplicateDiscountCode)
	}
	codes := append(st.AppliedDiscountCodes(), code)
	return c.discountError(c.UpdateDiscountCodes(ctx, codes))
}

// RemoveDiscountCode drops code (case-insensitive) and re-sends the remaining set,
// even when that set is empty.
func (c *Coordinator) RemoveDiscountCode(ctx context.Context, code string) error {
	st := c.State()
	if st.Cart == nil {
		return c.fail("remove_discount", ErrNoCart)
	}
	codes := []string{}
	for _, existing := range st.AppliedDiscountCodes() {
		if !strings.EqualFold(existing, strings.TrimSpace(code)) {
			codes = append(codes, existing)
		}
	}
	return c.discountError(c.UpdateDiscountCodes(ctx, codes))
}

// discountError hides server wording about discounts behind one generic message.
func (c *Coordinator) discountError(err error) error {
	if err == nil || !strings.Contains(strings.ToLower(err.Error()), "discount") {
		return err
	}
	c.logger.WithError(err).Info("discount code rejected")
	c.update(func(s *State) { s.Error = ErrInvalidDiscountCode.Error() })
	return ErrInvalidDiscountCode
}
