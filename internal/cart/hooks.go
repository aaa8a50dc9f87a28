package cart

import (
	"context"

	"headless-storefront/internal/domain"
)

// IncrementItem adds one of a variant, updating its line when it is already in the cart.
func (c *Coordinator) IncrementItem(ctx context.Context, merchandiseID string, attrs []domain.Attribute) error {
	if line, ok := c.State().LineByMerchandise(merchandiseID); ok {
		return c.UpdateCartLine(ctx, line.ID, line.Quantity+1)
	}
	return c.AddToCart(ctx, merchandiseID, 1, attrs)
}

// DecrementItem removes one of a variant; the last one removes the line.
func (c *Coordinator) DecrementItem(ctx context.Context, merchandiseID string) error {
	line, ok := c.State().LineByMerchandise(merchandiseID)
	if !ok {
		return nil
	}
	if line.Quantity > 1 {
		return c.UpdateCartLine(ctx, line.ID, line.Quantity-1)
	}
	return c.RemoveFromCart(ctx, line.ID)
}

// SetItemQuantity converges a variant's line on quantity, adding or removing the line
// as needed.
func (c *Coordinator) SetItemQuantity(ctx context.Context, merchandiseID string, quantity int, attrs []domain.Attribute) error {
	line, ok := c.State().LineByMerchandise(merchandiseID)
	switch {
	case quantity <= 0 && ok:
		return c.RemoveFromCart(ctx, line.ID)
	case quantity <= 0:
		return nil
	case ok:
		return c.UpdateCartLine(ctx, line.ID, quantity)
	default:
		return c.AddToCart(ctx, merchandiseID, quantity, attrs)
	}
}
