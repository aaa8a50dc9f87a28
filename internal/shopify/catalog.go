package shopify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"headless-storefront/internal/domain"
	"headless-storefront/internal/graphql"
)

const DefaultPageSize = 20

func pageVars(first int, after string) map[string]any {
	if first <= 0 {
		first = DefaultPageSize
	}
	vars := map[string]any{"first": first}
	if after != "" {
		vars["after"] = after
	}
	return vars
}

// Products lists one page of products.
func (c *Client) Products(ctx context.Context, first int, after string) (*domain.ProductConnection, error) {
	var out struct {
		Products wireProductConnection `json:"products"`
	}
	if err := c.gql.Do(ctx, productsQuery, pageVars(first, after), &out); err != nil {
		return nil, fmt.Errorf("products: %w", err)
	}
	if err := check(out.Products); err != nil {
		return nil, err
	}
	conn := &domain.ProductConnection{PageInfo: out.Products.PageInfo.toDomain(), Products: []domain.Product{}}
	for _, p := range out.Products.nodes() {
		conn.Products = append(conn.Products, p.toDomain())
	}
	return conn, nil
}

// ProductByHandle returns nil, nil when no product has the handle.
func (c *Client) ProductByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	var out struct {
		Product *wireProduct `json:"productByHandle"`
	}
	if err := c.gql.Do(ctx, productByHandleQuery, map[string]any{"handle": handle}, &out); err != nil {
		return nil, fmt.Errorf("product %s: %w", handle, err)
	}
	if out.Product == nil {
		return nil, nil
	}
	if err := check(out.Product); err != nil {
		return nil, err
	}
	p := out.Product.toDomain()
	return &p, nil
}

func (c *Client) Collections(ctx context.Context, first int, after string) (*domain.CollectionConnection, error) {
	var out struct {
		Collections wireCollectionConnection `json:"collections"`
	}
	if err := c.gql.Do(ctx, collectionsQuery, pageVars(first, after), &out); err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}
	if err := check(out.Collections); err != nil {
		return nil, err
	}
	conn := &domain.CollectionConnection{PageInfo: out.Collections.PageInfo.toDomain(), Collections: []domain.Collection{}}
	for _, col := range out.Collections.nodes() {
		conn.Collections = append(conn.Collections, col.toDomain())
	}
	return conn, nil
}

// CollectionByHandle returns nil, nil when no collection has the handle.
func (c *Client) CollectionByHandle(ctx context.Context, handle string) (*domain.Collection, error) {
	var out struct {
		Collection *wireCollection `json:"collectionByHandle"`
	}
	if err := c.gql.Do(ctx, collectionByHandleQuery, map[string]any{"handle": handle}, &out); err != nil {
		return nil, fmt.Errorf("collection %s: %w", handle, err)
	}
	if out.Collection == nil {
		return nil, nil
	}
	if err := check(out.Collection); err != nil {
		return nil, err
	}
	col := out.Collection.toDomain()
	return &col, nil
}

func (c *Client) Shop(ctx context.Context) (*domain.Shop, error) {
	var out struct {
		Shop wireShop `json:"shop"`
	}
	if err := c.gql.Do(ctx, shopQuery, nil, &out); err != nil {
		return nil, fmt.Errorf("shop: %w", err)
	}
	if err := check(out.Shop); err != nil {
		return nil, err
	}
	shop := out.Shop.toDomain()
	return &shop, nil
}

// StoreStatus is the result of probing the storefront with the public token.
type StoreStatus struct {
	Accessible        bool         `json:"accessible"`
	PasswordProtected bool         `json:"passwordProtected"`
	CanAccessProducts bool         `json:"canAccessProducts"`
	Shop              *domain.Shop `json:"shop,omitempty"`
	Error             string       `json:"error,omitempty"`
}

// StoreStatus checks that the shop and at least one product are readable. Probe
// failures are reported in the result, not as an error.
func (c *Client) StoreStatus(ctx context.Context) StoreStatus {
	var out struct {
		Shop     wireShop `json:"shop"`
		Products edges[struct {
			ID string `json:"id"`
		}] `json:"products"`
	}
	err := c.gql.Do(ctx, storeStatusQuery, nil, &out)
	if err != nil {
		status := StoreStatus{Error: err.Error()}
		var re *graphql.ResponseError
		if errors.As(err, &re) && len(re.Errors) > 0 {
			msg := strings.ToLower(re.Errors[0].Message)
			status.Error = re.Errors[0].Message
			status.PasswordProtected = strings.Contains(msg, "password") ||
				strings.Contains(msg, "access denied") ||
				strings.Contains(msg, "forbidden")
		}
		c.logger.WithError(err).Warn("store access check failed")
		return status
	}
	shop := out.Shop.toDomain()
	return StoreStatus{
		Accessible:        true,
		CanAccessProducts: len(out.Products.Edges) > 0,
		Shop:              &shop,
	}
}
