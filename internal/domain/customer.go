package domain

import "time"

// Customer is the signed-in customer's profile. It is re-fetched on demand and never
// persisted.
type Customer struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
}

// CustomerAddress stores address fields returned by the customer account API.
type CustomerAddress struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1,omitempty"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city,omitempty"`
	Province  string `json:"province,omitempty"`
	Country   string `json:"country,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type OrderLineItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

type Order struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Number            int             `json:"number"`
	ProcessedAt       time.Time       `json:"processedAt"`
	FulfillmentStatus string          `json:"fulfillmentStatus,omitempty"`
	FinancialStatus   string          `json:"financialStatus,omitempty"`
	TotalPrice        Money           `json:"totalPrice"`
	LineItems         []OrderLineItem `json:"lineItems,omitempty"`
}

type SubscriptionContract struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	NextBillingDate string `json:"nextBillingDate,omitempty"`
}

type PaymentMethod struct {
	ID             string `json:"id"`
	Brand          string `json:"brand,omitempty"`
	LastFourDigits string `json:"lastFourDigits,omitempty"`
	ExpiryMonth    int    `json:"expiryMonth,omitempty"`
	ExpiryYear     int    `json:"expiryYear,omitempty"`
}

// Connection is one page of a cursor connection.
type Connection[T any] struct {
	Nodes    []T      `json:"nodes"`
	PageInfo PageInfo `json:"pageInfo"`
}
