package shopify

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"headless-storefront/internal/domain"
)

// ErrMalformedPayload wraps schema violations found while decoding responses.
var ErrMalformedPayload = errors.New("shopify: malformed payload")

var validate = validator.New()

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

type wireMoney struct {
	Amount       string `json:"amount" validate:"required,numeric"`
	CurrencyCode string `json:"currencyCode" validate:"required,len=3"`
}

func (w wireMoney) toDomain() domain.Money {
	d, _ := decimal.NewFromString(w.Amount)
	return domain.Money{Amount: d, CurrencyCode: w.CurrencyCode}
}

func optMoney(w *wireMoney) *domain.Money {
	if w == nil {
		return nil
	}
	m := w.toDomain()
	return &m
}

type edges[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges" validate:"dive"`
}

func (e edges[T]) nodes() []T {
	out := make([]T, 0, len(e.Edges))
	for _, edge := range e.Edges {
		out = append(out, edge.Node)
	}
	return out
}

type wirePageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

func (w wirePageInfo) toDomain() domain.PageInfo {
	p := domain.PageInfo{HasNextPage: w.HasNextPage, HasPreviousPage: w.HasPreviousPage}
	if w.StartCursor != nil {
		p.StartCursor = *w.StartCursor
	}
	if w.EndCursor != nil {
		p.EndCursor = *w.EndCursor
	}
	return p
}

type wireImage struct {
	ID      string  `json:"id"`
	URL     string  `json:"url" validate:"required"`
	AltText *string `json:"altText"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
}

func (w *wireImage) toDomain() *domain.Image {
	if w == nil {
		return nil
	}
	img := &domain.Image{ID: w.ID, URL: w.URL, Width: w.Width, Height: w.Height}
	if w.AltText != nil {
		img.AltText = *w.AltText
	}
	return img
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Cart

type wireAddress struct {
	Address1  *string `json:"address1"`
	Address2  *string `json:"address2"`
	City      *string `json:"city"`
	Company   *string `json:"company"`
	Country   *string `json:"country"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Province  *string `json:"province"`
	Zip       *string `json:"zip"`
}

func (w wireAddress) toDomain() domain.Address {
	return domain.Address{
		Address1:  str(w.Address1),
		Address2:  str(w.Address2),
		City:      str(w.City),
		Company:   str(w.Company),
		Country:   str(w.Country),
		FirstName: str(w.FirstName),
		LastName:  str(w.LastName),
		Phone:     str(w.Phone),
		Province:  str(w.Province),
		Zip:       str(w.Zip),
	}
}

type wireBuyerIdentity struct {
	CountryCode *string `json:"countryCode"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Customer    *struct {
		ID        string  `json:"id" validate:"required"`
		Email     *string `json:"email"`
		FirstName *string `json:"firstName"`
		LastName  *string `json:"lastName"`
	} `json:"customer"`
	DeliveryAddressPreferences []wireAddress `json:"deliveryAddressPreferences"`
}

type wireCartCost struct {
	TotalAmount          wireMoney  `json:"totalAmount"`
	SubtotalAmount       wireMoney  `json:"subtotalAmount"`
	TotalTaxAmount       *wireMoney `json:"totalTaxAmount"`
	TotalDutyAmount      *wireMoney `json:"totalDutyAmount"`
	CheckoutChargeAmount *wireMoney `json:"checkoutChargeAmount"`
}

type wireDiscountAllocation struct {
	DiscountedAmount wireMoney `json:"discountedAmount"`
	TargetType       string    `json:"targetType" validate:"oneof=LINE_ITEM SHIPPING_LINE"`
}

type wireCartLine struct {
	ID         string             `json:"id" validate:"required"`
	Quantity   int                `json:"quantity" validate:"gte=0"`
	Attributes []domain.Attribute `json:"attributes"`
	Cost       struct {
		TotalAmount                wireMoney  `json:"totalAmount"`
		AmountPerQuantity          wireMoney  `json:"amountPerQuantity"`
		CompareAtAmountPerQuantity *wireMoney `json:"compareAtAmountPerQuantity"`
	} `json:"cost"`
	Merchandise struct {
		ID      string `json:"id" validate:"required"`
		Title   string `json:"title"`
		Product struct {
			ID          string  `json:"id" validate:"required"`
			Title       string  `json:"title"`
			Handle      string  `json:"handle"`
			ProductType *string `json:"productType"`
			Vendor      *string `json:"vendor"`
		} `json:"product"`
		SelectedOptions   []domain.SelectedOption `json:"selectedOptions"`
		Image             *wireImage              `json:"image"`
		Price             wireMoney               `json:"price"`
		CompareAtPrice    *wireMoney              `json:"compareAtPrice"`
		AvailableForSale  bool                    `json:"availableForSale"`
		QuantityAvailable *int                    `json:"quantityAvailable"`
	} `json:"merchandise"`
	SellingPlanAllocation *struct {
		SellingPlan struct {
			ID          string  `json:"id"`
			Name        string  `json:"name"`
			Description *string `json:"description"`
		} `json:"sellingPlan"`
	} `json:"sellingPlanAllocation"`
}

func (w wireCartLine) toDomain() domain.CartLine {
	m := w.Merchandise
	line := domain.CartLine{
		ID:         w.ID,
		Quantity:   w.Quantity,
		Attributes: w.Attributes,
		Cost: domain.LineCost{
			TotalAmount:                w.Cost.TotalAmount.toDomain(),
			AmountPerQuantity:          w.Cost.AmountPerQuantity.toDomain(),
			CompareAtAmountPerQuantity: optMoney(w.Cost.CompareAtAmountPerQuantity),
		},
		Merchandise: domain.Merchandise{
			ID:    m.ID,
			Title: m.Title,
			Product: domain.MerchandiseProduct{
				ID:          m.Product.ID,
				Title:       m.Product.Title,
				Handle:      m.Product.Handle,
				ProductType: str(m.Product.ProductType),
				Vendor:      str(m.Product.Vendor),
			},
			SelectedOptions:   m.SelectedOptions,
			Image:             m.Image.toDomain(),
			Price:             m.Price.toDomain(),
			CompareAtPrice:    optMoney(m.CompareAtPrice),
			AvailableForSale:  m.AvailableForSale,
			QuantityAvailable: m.QuantityAvailable,
		},
	}
	if sp := w.SellingPlanAllocation; sp != nil {
		line.SellingPlan = &domain.SellingPlan{
			ID:          sp.SellingPlan.ID,
			Name:        sp.SellingPlan.Name,
			Description: str(sp.SellingPlan.Description),
		}
	}
	return line
}

type wireDeliveryGroup struct {
	ID              string      `json:"id" validate:"required"`
	DeliveryAddress wireAddress `json:"deliveryAddress"`
	CartLines       edges[struct {
		ID string `json:"id"`
	}] `json:"cartLines"`
}

type wireCart struct {
	ID                  string                   `json:"id" validate:"required"`
	CheckoutURL         string                   `json:"checkoutUrl"`
	CreatedAt           time.Time                `json:"createdAt"`
	UpdatedAt           time.Time                `json:"updatedAt"`
	TotalQuantity       int                      `json:"totalQuantity" validate:"gte=0"`
	BuyerIdentity       wireBuyerIdentity        `json:"buyerIdentity"`
	Attributes          []domain.Attribute       `json:"attributes"`
	Cost                wireCartCost             `json:"cost"`
	DiscountCodes       []domain.DiscountCode    `json:"discountCodes"`
	DiscountAllocations []wireDiscountAllocation `json:"discountAllocations" validate:"dive"`
	Lines               edges[wireCartLine]      `json:"lines"`
	DeliveryGroups      edges[wireDeliveryGroup] `json:"deliveryGroups"`
	Note                *string                  `json:"note"`
}

func decodeCart(w *wireCart) (*domain.Cart, error) {
	if w == nil {
		return nil, nil
	}
	if err := check(w); err != nil {
		return nil, err
	}
	cart := &domain.Cart{
		ID:            w.ID,
		CheckoutURL:   w.CheckoutURL,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
		TotalQuantity: w.TotalQuantity,
		BuyerIdentity: domain.BuyerIdentity{
			CountryCode: str(w.BuyerIdentity.CountryCode),
			Email:       str(w.BuyerIdentity.Email),
			Phone:       str(w.BuyerIdentity.Phone),
		},
		Attributes: w.Attributes,
		Cost: domain.CartCost{
			TotalAmount:          w.Cost.TotalAmount.toDomain(),
			SubtotalAmount:       w.Cost.SubtotalAmount.toDomain(),
			TotalTaxAmount:       optMoney(w.Cost.TotalTaxAmount),
			TotalDutyAmount:      optMoney(w.Cost.TotalDutyAmount),
			CheckoutChargeAmount: optMoney(w.Cost.CheckoutChargeAmount),
		},
		DiscountCodes: w.DiscountCodes,
		Note:          str(w.Note),
	}
	if c := w.BuyerIdentity.Customer; c != nil {
		cart.BuyerIdentity.Customer = &domain.BuyerCustomer{
			ID:        c.ID,
			Email:     str(c.Email),
			FirstName: str(c.FirstName),
			LastName:  str(c.LastName),
		}
	}
	for _, a := range w.BuyerIdentity.DeliveryAddressPreferences {
		cart.BuyerIdentity.DeliveryAddressPreferences = append(cart.BuyerIdentity.DeliveryAddressPreferences, a.toDomain())
	}
	for _, da := range w.DiscountAllocations {
		cart.DiscountAllocations = append(cart.DiscountAllocations, domain.DiscountAllocation{
			DiscountedAmount: da.DiscountedAmount.toDomain(),
			TargetType:       da.TargetType,
		})
	}
	for _, l := range w.Lines.nodes() {
		cart.Lines = append(cart.Lines, l.toDomain())
	}
	for _, g := range w.DeliveryGroups.nodes() {
		group := domain.DeliveryGroup{ID: g.ID, DeliveryAddress: g.DeliveryAddress.toDomain()}
		for _, l := range g.CartLines.nodes() {
			group.LineIDs = append(group.LineIDs, l.ID)
		}
		cart.DeliveryGroups = append(cart.DeliveryGroups, group)
	}
	return cart, nil
}

// Catalog

type wirePriceRange struct {
	MinVariantPrice wireMoney  `json:"minVariantPrice"`
	MaxVariantPrice *wireMoney `json:"maxVariantPrice"`
}

func (w wirePriceRange) toDomain() domain.PriceRange {
	pr := domain.PriceRange{MinVariantPrice: w.MinVariantPrice.toDomain()}
	if w.MaxVariantPrice != nil {
		pr.MaxVariantPrice = w.MaxVariantPrice.toDomain()
	} else {
		pr.MaxVariantPrice = pr.MinVariantPrice
	}
	return pr
}

type wireVariant struct {
	ID                string                  `json:"id" validate:"required"`
	Title             string                  `json:"title"`
	AvailableForSale  bool                    `json:"availableForSale"`
	Price             wireMoney               `json:"price"`
	CompareAtPrice    *wireMoney              `json:"compareAtPrice"`
	SelectedOptions   []domain.SelectedOption `json:"selectedOptions"`
	QuantityAvailable *int                    `json:"quantityAvailable"`
	Image             *wireImage              `json:"image"`
}

type wireProduct struct {
	ID                  string                 `json:"id" validate:"required"`
	Title               string                 `json:"title"`
	Handle              string                 `json:"handle" validate:"required"`
	Description         string                 `json:"description"`
	DescriptionHTML     string                 `json:"descriptionHtml"`
	AvailableForSale    bool                   `json:"availableForSale"`
	CreatedAt           time.Time              `json:"createdAt"`
	UpdatedAt           time.Time              `json:"updatedAt"`
	ProductType         string                 `json:"productType"`
	Vendor              string                 `json:"vendor"`
	Tags                []string               `json:"tags"`
	TotalInventory      *int                   `json:"totalInventory"`
	PriceRange          wirePriceRange         `json:"priceRange"`
	CompareAtPriceRange *wirePriceRange        `json:"compareAtPriceRange"`
	Images              edges[wireImage]       `json:"images"`
	Variants            edges[wireVariant]     `json:"variants"`
	Options             []domain.ProductOption `json:"options"`
}

func (w wireProduct) toDomain() domain.Product {
	p := domain.Product{
		ID:               w.ID,
		Title:            w.Title,
		Handle:           w.Handle,
		Description:      w.Description,
		DescriptionHTML:  w.DescriptionHTML,
		AvailableForSale: w.AvailableForSale,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
		ProductType:      w.ProductType,
		Vendor:           w.Vendor,
		Tags:             w.Tags,
		PriceRange:       w.PriceRange.toDomain(),
		Options:          w.Options,
	}
	if w.TotalInventory != nil {
		p.TotalInventory = *w.TotalInventory
	}
	if w.CompareAtPriceRange != nil {
		pr := w.CompareAtPriceRange.toDomain()
		p.CompareAtPriceRange = &pr
	}
	for _, img := range w.Images.nodes() {
		p.Images = append(p.Images, *img.toDomain())
	}
	for _, v := range w.Variants.nodes() {
		variant := domain.Variant{
			ID:               v.ID,
			Title:            v.Title,
			AvailableForSale: v.AvailableForSale,
			Price:            v.Price.toDomain(),
			CompareAtPrice:   optMoney(v.CompareAtPrice),
			SelectedOptions:  v.SelectedOptions,
			Image:            v.Image.toDomain(),
		}
		if v.QuantityAvailable != nil {
			variant.QuantityAvailable = *v.QuantityAvailable
		}
		p.Variants = append(p.Variants, variant)
	}
	return p
}

type wireProductConnection struct {
	edges[wireProduct]
	PageInfo wirePageInfo `json:"pageInfo"`
}

type wireCollection struct {
	ID              string             `json:"id" validate:"required"`
	Title           string             `json:"title"`
	Handle          string             `json:"handle" validate:"required"`
	Description     string             `json:"description"`
	DescriptionHTML string             `json:"descriptionHtml"`
	Image           *wireImage         `json:"image"`
	Products        edges[wireProduct] `json:"products"`
}

func (w wireCollection) toDomain() domain.Collection {
	c := domain.Collection{
		ID:              w.ID,
		Title:           w.Title,
		Handle:          w.Handle,
		Description:     w.Description,
		DescriptionHTML: w.DescriptionHTML,
		Image:           w.Image.toDomain(),
	}
	for _, p := range w.Products.nodes() {
		c.Products = append(c.Products, p.toDomain())
	}
	return c
}

type wireCollectionConnection struct {
	edges[wireCollection]
	PageInfo wirePageInfo `json:"pageInfo"`
}

type wireShop struct {
	Name          string  `json:"name" validate:"required"`
	Description   *string `json:"description"`
	PrimaryDomain struct {
		URL string `json:"url"`
	} `json:"primaryDomain"`
	PaymentSettings *struct {
		CurrencyCode string `json:"currencyCode"`
	} `json:"paymentSettings"`
}

func (w wireShop) toDomain() domain.Shop {
	s := domain.Shop{Name: w.Name, Description: str(w.Description), PrimaryDomainURL: w.PrimaryDomain.URL}
	if w.PaymentSettings != nil {
		s.CurrencyCode = w.PaymentSettings.CurrencyCode
	}
	return s
}
