package shopify

import (
	"context"
	"errors"
	"fmt"

	"headless-storefront/internal/domain"
	"headless-storefront/internal/graphql"
)

// LineInput adds merchandise to a cart.
type LineInput struct {
	MerchandiseID string             `json:"merchandiseId"`
	Quantity      int                `json:"quantity"`
	Attributes    []domain.Attribute `json:"attributes,omitempty"`
	SellingPlanID string             `json:"sellingPlanId,omitempty"`
}

// LineUpdate changes an existing line. Quantity 0 is a valid update.
type LineUpdate struct {
	ID            string             `json:"id"`
	Quantity      int                `json:"quantity"`
	MerchandiseID string             `json:"merchandiseId,omitempty"`
	Attributes    []domain.Attribute `json:"attributes,omitempty"`
}

type BuyerIdentityInput struct {
	Email                      string           `json:"email,omitempty"`
	Phone                      string           `json:"phone,omitempty"`
	CountryCode                string           `json:"countryCode,omitempty"`
	CustomerAccessToken        string           `json:"customerAccessToken,omitempty"`
	DeliveryAddressPreferences []map[string]any `json:"deliveryAddressPreferences,omitempty"`
}

type CartInput struct {
	Lines         []LineInput         `json:"lines,omitempty"`
	BuyerIdentity *BuyerIdentityInput `json:"buyerIdentity,omitempty"`
	Attributes    []domain.Attribute  `json:"attributes,omitempty"`
	DiscountCodes []string            `json:"discountCodes,omitempty"`
	Note          string              `json:"note,omitempty"`
}

// ErrEmptyPayload is returned when a mutation reports no user errors but no cart either.
var ErrEmptyPayload = errors.New("shopify: mutation returned no cart")

type cartPayload struct {
	Cart       *wireCart           `json:"cart"`
	UserErrors []graphql.UserError `json:"userErrors"`
}

func (c *Client) mutateCart(ctx context.Context, field, query string, vars map[string]any) (*domain.Cart, error) {
	var out map[string]cartPayload
	if err := c.gql.Do(ctx, query, vars, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	payload := out[field]
	if err := graphql.CheckUserErrors(payload.UserErrors); err != nil {
		c.logger.WithField("mutation", field).WithError(err).Info("cart user errors")
		return nil, err
	}
	if payload.Cart == nil {
		return nil, fmt.Errorf("%s: %w", field, ErrEmptyPayload)
	}
	return decodeCart(payload.Cart)
}

func (c *Client) CreateCart(ctx context.Context, input CartInput) (*domain.Cart, error) {
	return c.mutateCart(ctx, "cartCreate", cartCreateMutation, map[string]any{"input": input})
}

// Cart fetches a cart by id. It returns nil, nil when the id no longer resolves,
// e.g. after checkout completed.
func (c *Client) Cart(ctx context.Context, id string) (*domain.Cart, error) {
	var out struct {
		Cart *wireCart `json:"cart"`
	}
	if err := c.gql.Do(ctx, cartQuery, map[string]any{"cartId": id}, &out); err != nil {
		return nil, fmt.Errorf("cart: %w", err)
	}
	return decodeCart(out.Cart)
}

func (c *Client) AddLines(ctx context.Context, cartID string, lines []LineInput) (*domain.Cart, error) {
	return c.mutateCart(ctx, "cartLinesAdd", cartLinesAddMutation, map[string]any{"cartId": cartID, "lines": lines})
}

func (c *Client) UpdateLines(ctx context.Context, cartID string, lines []LineUpdate) (*domain.Cart, error) {
	return c.mutateCart(ctx, "cartLinesUpdate", cartLinesUpdateMutation, map[string]any{"cartId": cartID, "lines": lines})
}

func (c *Client) RemoveLines(ctx context.Context, cartID string, lineIDs []string) (*domain.Cart, error) {
	return c.mutateCart(ctx, "cartLinesRemove", cartLinesRemoveMutation, map[string]any{"cartId": cartID, "lineIds": lineIDs})
}

func (c *Client) UpdateBuyerIdentity(ctx context.Context, cartID string, identity BuyerIdentityInput) (*domain.Cart, error) {
	return c.mutateCart(ctx, "cartBuyerIdentityUpdate", cartBuyerIdentityMutation, map[string]any{"cartId": cartID, "buyerIdentity": identity})
}

func (c *Client) UpdateAttributes(ctx context.Context, cartID string, attrs []domain.Attribute) (*domain.Cart, error) {
	if attrs == nil {
		attrs = []domain.Attribute{}
	}
	return c.mutateCart(ctx, "cartAttributesUpdate", cartAttributesMutation, map[string]any{"cartId": cartID, "attributes": attrs})
}

// UpdateDiscountCodes replaces the whole code list. An empty list clears all codes.
func (c *Client) UpdateDiscountCodes(ctx context.Context, cartID string, codes []string) (*domain.Cart, error) {
	if codes == nil {
		codes = []string{}
	}
	return c.mutateCart(ctx, "cartDiscountCodesUpdate", cartDiscountCodesMutation, map[string]any{"cartId": cartID, "discountCodes": codes})
}

func (c *Client) UpdateNote(ctx context.Context, cartID, note string) (*domain.Cart, error) {
	return c.mutateCart(ctx, "cartNoteUpdate", cartNoteMutation, map[string]any{"cartId": cartID, "note": note})
}
