package domain

import "time"

// Attribute is a free-form key/value pair attached to carts and lines.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Address is a mailing address used by buyer identity and delivery groups.
type Address struct {
	Address1  string `json:"address1,omitempty"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city,omitempty"`
	Company   string `json:"company,omitempty"`
	Country   string `json:"country,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Province  string `json:"province,omitempty"`
	Zip       string `json:"zip,omitempty"`
}

type BuyerCustomer struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type BuyerIdentity struct {
	CountryCode                string         `json:"countryCode,omitempty"`
	Email                      string         `json:"email,omitempty"`
	Phone                      string         `json:"phone,omitempty"`
	Customer                   *BuyerCustomer `json:"customer,omitempty"`
	DeliveryAddressPreferences []Address      `json:"deliveryAddressPreferences,omitempty"`
}

type CartCost struct {
	TotalAmount          Money  `json:"totalAmount"`
	SubtotalAmount       Money  `json:"subtotalAmount"`
	TotalTaxAmount       *Money `json:"totalTaxAmount,omitempty"`
	TotalDutyAmount      *Money `json:"totalDutyAmount,omitempty"`
	CheckoutChargeAmount *Money `json:"checkoutChargeAmount,omitempty"`
}

// DiscountCode is a code on the cart. Applicable is the server's verdict on whether
// the code currently contributes savings.
type DiscountCode struct {
	Code       string `json:"code"`
	Applicable bool   `json:"applicable"`
}

const (
	TargetLineItem     = "LINE_ITEM"
	TargetShippingLine = "SHIPPING_LINE"
)

// DiscountAllocation is server-computed savings for a line or for shipping.
type DiscountAllocation struct {
	DiscountedAmount Money  `json:"discountedAmount"`
	TargetType       string `json:"targetType"`
}

type LineCost struct {
	TotalAmount                Money  `json:"totalAmount"`
	AmountPerQuantity          Money  `json:"amountPerQuantity"`
	CompareAtAmountPerQuantity *Money `json:"compareAtAmountPerQuantity,omitempty"`
}

type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type MerchandiseProduct struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	ProductType string `json:"productType,omitempty"`
	Vendor      string `json:"vendor,omitempty"`
}

// Merchandise is the product variant a cart line references.
type Merchandise struct {
	ID                string             `json:"id"`
	Title             string             `json:"title"`
	Product           MerchandiseProduct `json:"product"`
	SelectedOptions   []SelectedOption   `json:"selectedOptions,omitempty"`
	Image             *Image             `json:"image,omitempty"`
	Price             Money              `json:"price"`
	CompareAtPrice    *Money             `json:"compareAtPrice,omitempty"`
	AvailableForSale  bool               `json:"availableForSale"`
	QuantityAvailable *int               `json:"quantityAvailable,omitempty"`
}

type SellingPlan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CartLine is one merchandise-and-quantity entry. Its ID is distinct from the
// merchandise ID.
type CartLine struct {
	ID          string       `json:"id"`
	Quantity    int          `json:"quantity"`
	Attributes  []Attribute  `json:"attributes,omitempty"`
	Cost        LineCost     `json:"cost"`
	Merchandise Merchandise  `json:"merchandise"`
	SellingPlan *SellingPlan `json:"sellingPlan,omitempty"`
}

type DeliveryGroup struct {
	ID              string   `json:"id"`
	DeliveryAddress Address  `json:"deliveryAddress"`
	LineIDs         []string `json:"lineIds,omitempty"`
}

// Cart is the server-owned cart resource.
type Cart struct {
	ID                  string               `json:"id"`
	CheckoutURL         string               `json:"checkoutUrl"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
	TotalQuantity       int                  `json:"totalQuantity"`
	BuyerIdentity       BuyerIdentity        `json:"buyerIdentity"`
	Attributes          []Attribute          `json:"attributes,omitempty"`
	Cost                CartCost             `json:"cost"`
	DiscountCodes       []DiscountCode       `json:"discountCodes,omitempty"`
	DiscountAllocations []DiscountAllocation `json:"discountAllocations,omitempty"`
	Lines               []CartLine           `json:"lines,omitempty"`
	DeliveryGroups      []DeliveryGroup      `json:"deliveryGroups,omitempty"`
	Note                string               `json:"note,omitempty"`
}

// Clone returns a deep copy so callers can mutate it without touching the original.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.BuyerIdentity = c.BuyerIdentity.clone()
	out.Attributes = cloneSlice(c.Attributes)
	out.Cost = CartCost{
		TotalAmount:          c.Cost.TotalAmount,
		SubtotalAmount:       c.Cost.SubtotalAmount,
		TotalTaxAmount:       cloneMoney(c.Cost.TotalTaxAmount),
		TotalDutyAmount:      cloneMoney(c.Cost.TotalDutyAmount),
		CheckoutChargeAmount: cloneMoney(c.Cost.CheckoutChargeAmount),
	}
	out.DiscountCodes = cloneSlice(c.DiscountCodes)
	out.DiscountAllocations = cloneSlice(c.DiscountAllocations)
	if c.Lines != nil {
		out.Lines = make([]CartLine, len(c.Lines))
		for i, l := range c.Lines {
			out.Lines[i] = l.clone()
		}
	}
	if c.DeliveryGroups != nil {
		out.DeliveryGroups = make([]DeliveryGroup, len(c.DeliveryGroups))
		for i, g := range c.DeliveryGroups {
			g.LineIDs = cloneSlice(g.LineIDs)
			out.DeliveryGroups[i] = g
		}
	}
	return &out
}

// LineQuantity sums the quantities of all lines.
func (c *Cart) LineQuantity() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

func (b BuyerIdentity) clone() BuyerIdentity {
	out := b
	if b.Customer != nil {
		cust := *b.Customer
		out.Customer = &cust
	}
	out.DeliveryAddressPreferences = cloneSlice(b.DeliveryAddressPreferences)
	return out
}

func (l CartLine) clone() CartLine {
	out := l
	out.Attributes = cloneSlice(l.Attributes)
	out.Cost.CompareAtAmountPerQuantity = cloneMoney(l.Cost.CompareAtAmountPerQuantity)
	out.Merchandise.SelectedOptions = cloneSlice(l.Merchandise.SelectedOptions)
	out.Merchandise.CompareAtPrice = cloneMoney(l.Merchandise.CompareAtPrice)
	if l.Merchandise.Image != nil {
		img := *l.Merchandise.Image
		out.Merchandise.Image = &img
	}
	if l.Merchandise.QuantityAvailable != nil {
		q := *l.Merchandise.QuantityAvailable
		out.Merchandise.QuantityAvailable = &q
	}
	if l.SellingPlan != nil {
		sp := *l.SellingPlan
		out.SellingPlan = &sp
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
