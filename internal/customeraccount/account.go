package customeraccount

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"headless-storefront/internal/domain"
	"headless-storefront/internal/graphql"
)

const DefaultPageSize = 10

type wireCustomer struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DisplayName  string `json:"displayName"`
	EmailAddress *struct {
		EmailAddress string `json:"emailAddress"`
	} `json:"emailAddress"`
}

func (w wireCustomer) toDomain() *domain.Customer {
	c := &domain.Customer{
		ID:          w.ID,
		FirstName:   w.FirstName,
		LastName:    w.LastName,
		DisplayName: w.DisplayName,
	}
	if w.EmailAddress != nil {
		c.Email = w.EmailAddress.EmailAddress
	}
	if c.DisplayName == "" {
		c.DisplayName = displayName(c)
	}
	return c
}

func displayName(c *domain.Customer) string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	case c.LastName != "":
		return c.LastName
	default:
		return c.Email
	}
}

type connection[T any] struct {
	Nodes    []T `json:"nodes"`
	PageInfo struct {
		HasNextPage     bool    `json:"hasNextPage"`
		HasPreviousPage bool    `json:"hasPreviousPage"`
		StartCursor     *string `json:"startCursor"`
		EndCursor       *string `json:"endCursor"`
	} `json:"pageInfo"`
}

func (c connection[T]) pageInfo() domain.PageInfo {
	p := domain.PageInfo{HasNextPage: c.PageInfo.HasNextPage, HasPreviousPage: c.PageInfo.HasPreviousPage}
	if c.PageInfo.StartCursor != nil {
		p.StartCursor = *c.PageInfo.StartCursor
	}
	if c.PageInfo.EndCursor != nil {
		p.EndCursor = *c.PageInfo.EndCursor
	}
	return p
}

type wireOrder struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Number            int       `json:"number"`
	ProcessedAt       time.Time `json:"processedAt"`
	FulfillmentStatus string    `json:"fulfillmentStatus"`
	FinancialStatus   string    `json:"financialStatus"`
	TotalPrice        struct {
		Amount       string `json:"amount"`
		CurrencyCode string `json:"currencyCode"`
	} `json:"totalPrice"`
	LineItems connection[domain.OrderLineItem] `json:"lineItems"`
}

func (w wireOrder) toDomain() (domain.Order, error) {
	amount, err := decimal.NewFromString(w.TotalPrice.Amount)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s total: %w", w.ID, err)
	}
	return domain.Order{
		ID:                w.ID,
		Name:              w.Name,
		Number:            w.Number,
		ProcessedAt:       w.ProcessedAt,
		FulfillmentStatus: w.FulfillmentStatus,
		FinancialStatus:   w.FinancialStatus,
		TotalPrice:        domain.Money{Amount: amount, CurrencyCode: w.TotalPrice.CurrencyCode},
		LineItems:         w.LineItems.Nodes,
	}, nil
}

type wirePaymentMethod struct {
	ID         string `json:"id"`
	Instrument *struct {
		Brand          string `json:"brand"`
		LastFourDigits string `json:"lastFourDigits"`
		ExpiryMonth    int    `json:"expiryMonth"`
		ExpiryYear     int    `json:"expiryYear"`
	} `json:"instrument"`
}

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

// Customer implements auth.CustomerFetcher.
func (c *Client) Customer(ctx context.Context) (*domain.Customer, error) {
	var out struct {
		Customer *wireCustomer `json:"customer"`
	}
	if err := c.do(ctx, customerQuery, nil, &out); err != nil {
		return nil, fmt.Errorf("customer: %w", err)
	}
	if out.Customer == nil {
		return nil, domain.ErrNotFound
	}
	return out.Customer.toDomain(), nil
}

func (c *Client) Addresses(ctx context.Context, first int, after string) (domain.Connection[domain.CustomerAddress], error) {
	var out struct {
		Customer struct {
			Addresses connection[domain.CustomerAddress] `json:"addresses"`
		} `json:"customer"`
	}
	if err := c.do(ctx, addressesQuery, pageVars(first, after), &out); err != nil {
		return domain.Connection[domain.CustomerAddress]{}, fmt.Errorf("addresses: %w", err)
	}
	conn := out.Customer.Addresses
	return domain.Connection[domain.CustomerAddress]{Nodes: conn.Nodes, PageInfo: conn.pageInfo()}, nil
}

func (c *Client) Orders(ctx context.Context, first int, after string) (domain.Connection[domain.Order], error) {
	var out struct {
		Customer struct {
			Orders connection[wireOrder] `json:"orders"`
		} `json:"customer"`
	}
	if err := c.do(ctx, ordersQuery, pageVars(first, after), &out); err != nil {
		return domain.Connection[domain.Order]{}, fmt.Errorf("orders: %w", err)
	}
	conn := out.Customer.Orders
	orders := make([]domain.Order, 0, len(conn.Nodes))
	for _, w := range conn.Nodes {
		o, err := w.toDomain()
		if err != nil {
			return domain.Connection[domain.Order]{}, err
		}
		orders = append(orders, o)
	}
	return domain.Connection[domain.Order]{Nodes: orders, PageInfo: conn.pageInfo()}, nil
}

func (c *Client) SubscriptionContracts(ctx context.Context, first int, after string) (domain.Connection[domain.SubscriptionContract], error) {
	var out struct {
		Customer struct {
			Contracts connection[domain.SubscriptionContract] `json:"subscriptionContracts"`
		} `json:"customer"`
	}
	if err := c.do(ctx, subscriptionContractsQuery, pageVars(first, after), &out); err != nil {
		return domain.Connection[domain.SubscriptionContract]{}, fmt.Errorf("subscription contracts: %w", err)
	}
	conn := out.Customer.Contracts
	return domain.Connection[domain.SubscriptionContract]{Nodes: conn.Nodes, PageInfo: conn.pageInfo()}, nil
}

func (c *Client) PaymentMethods(ctx context.Context, first int, after string) (domain.Connection[domain.PaymentMethod], error) {
	var out struct {
		Customer struct {
			Methods connection[wirePaymentMethod] `json:"paymentMethods"`
		} `json:"customer"`
	}
	if err := c.do(ctx, paymentMethodsQuery, pageVars(first, after), &out); err != nil {
		return domain.Connection[domain.PaymentMethod]{}, fmt.Errorf("payment methods: %w", err)
	}
	conn := out.Customer.Methods
	methods := make([]domain.PaymentMethod, 0, len(conn.Nodes))
	for _, w := range conn.Nodes {
		m := domain.PaymentMethod{ID: w.ID}
		if w.Instrument != nil {
			m.Brand = w.Instrument.Brand
			m.LastFourDigits = w.Instrument.LastFourDigits
			m.ExpiryMonth = w.Instrument.ExpiryMonth
			m.ExpiryYear = w.Instrument.ExpiryYear
		}
		methods = append(methods, m)
	}
	return domain.Connection[domain.PaymentMethod]{Nodes: methods, PageInfo: conn.pageInfo()}, nil
}

// CustomerUpdate holds the editable profile fields.
type CustomerUpdate struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// AddressInput is the mutable part of a customer address.
type AddressInput struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1,omitempty"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city,omitempty"`
	Province  string `json:"zoneCode,omitempty"`
	Country   string `json:"territoryCode,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Phone     string `json:"phoneNumber,omitempty"`
}

var errEmptyPayload = errors.New("customer account: mutation returned no result")

func (c *Client) UpdateCustomer(ctx context.Context, in CustomerUpdate) (*domain.Customer, error) {
	var out struct {
		CustomerUpdate struct {
			Customer   *wireCustomer       `json:"customer"`
			UserErrors []graphql.UserError `json:"userErrors"`
		} `json:"customerUpdate"`
	}
	if err := c.do(ctx, customerUpdateMutation, map[string]any{"customer": in}, &out); err != nil {
		return nil, fmt.Errorf("customerUpdate: %w", err)
	}
	payload := out.CustomerUpdate
	if err := graphql.CheckUserErrors(payload.UserErrors); err != nil {
		return nil, err
	}
	if payload.Customer == nil {
		return nil, errEmptyPayload
	}
	return payload.Customer.toDomain(), nil
}

type addressPayload struct {
	CustomerAddress *domain.CustomerAddress `json:"customerAddress"`
	UserErrors      []graphql.UserError     `json:"userErrors"`
}

func (c *Client) mutateAddress(ctx context.Context, field, query string, vars map[string]any) (*domain.CustomerAddress, error) {
	var out map[string]addressPayload
	if err := c.do(ctx, query, vars, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	payload := out[field]
	if err := graphql.CheckUserErrors(payload.UserErrors); err != nil {
		return nil, err
	}
	if payload.CustomerAddress == nil {
		return nil, errEmptyPayload
	}
	return payload.CustomerAddress, nil
}

func (c *Client) CreateAddress(ctx context.Context, in AddressInput) (*domain.CustomerAddress, error) {
	return c.mutateAddress(ctx, "customerAddressCreate", addressCreateMutation, map[string]any{"address": in})
}

func (c *Client) UpdateAddress(ctx context.Context, id string, in AddressInput) (*domain.CustomerAddress, error) {
	return c.mutateAddress(ctx, "customerAddressUpdate", addressUpdateMutation, map[string]any{
		"addressId": id,
		"address":   in,
	})
}

// DeleteAddress returns the id of the removed address.
func (c *Client) DeleteAddress(ctx context.Context, id string) (string, error) {
	var out struct {
		Delete struct {
			DeletedAddressID *string             `json:"deletedAddressId"`
			UserErrors       []graphql.UserError `json:"userErrors"`
		} `json:"customerAddressDelete"`
	}
	if err := c.do(ctx, addressDeleteMutation, map[string]any{"addressId": id}, &out); err != nil {
		return "", fmt.Errorf("customerAddressDelete: %w", err)
	}
	if err := graphql.CheckUserErrors(out.Delete.UserErrors); err != nil {
		return "", err
	}
	if out.Delete.DeletedAddressID == nil {
		return "", errEmptyPayload
	}
	return *out.Delete.DeletedAddressID, nil
}
