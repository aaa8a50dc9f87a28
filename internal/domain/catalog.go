package domain

import "time"

type Image struct {
	ID      string `json:"id,omitempty"`
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

// PageInfo carries the cursors of a paginated connection.
type PageInfo struct {
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	StartCursor     string `json:"startCursor,omitempty"`
	EndCursor       string `json:"endCursor,omitempty"`
}

type PriceRange struct {
	MinVariantPrice Money `json:"minVariantPrice"`
	MaxVariantPrice Money `json:"maxVariantPrice"`
}

type Variant struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	AvailableForSale  bool             `json:"availableForSale"`
	Price             Money            `json:"price"`
	CompareAtPrice    *Money           `json:"compareAtPrice,omitempty"`
	SelectedOptions   []SelectedOption `json:"selectedOptions,omitempty"`
	QuantityAvailable int              `json:"quantityAvailable"`
	Image             *Image           `json:"image,omitempty"`
}

type ProductOption struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type Product struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Handle              string          `json:"handle"`
	Description         string          `json:"description,omitempty"`
	DescriptionHTML     string          `json:"descriptionHtml,omitempty"`
	AvailableForSale    bool            `json:"availableForSale"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
	ProductType         string          `json:"productType,omitempty"`
	Vendor              string          `json:"vendor,omitempty"`
	Tags                []string        `json:"tags,omitempty"`
	TotalInventory      int             `json:"totalInventory"`
	PriceRange          PriceRange      `json:"priceRange"`
	CompareAtPriceRange *PriceRange     `json:"compareAtPriceRange,omitempty"`
	Images              []Image         `json:"images,omitempty"`
	Variants            []Variant       `json:"variants,omitempty"`
	Options             []ProductOption `json:"options,omitempty"`
}

type ProductConnection struct {
	Products []Product `json:"products"`
	PageInfo PageInfo  `json:"pageInfo"`
}

type Collection struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Handle          string    `json:"handle"`
	Description     string    `json:"description,omitempty"`
	DescriptionHTML string    `json:"descriptionHtml,omitempty"`
	Image           *Image    `json:"image,omitempty"`
	Products        []Product `json:"products,omitempty"`
}

type CollectionConnection struct {
	Collections []Collection `json:"collections"`
	PageInfo    PageInfo     `json:"pageInfo"`
}

// Shop is the storefront's public shop record.
type Shop struct {
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	PrimaryDomainURL string `json:"primaryDomainUrl,omitempty"`
	CurrencyCode     string `json:"currencyCode,omitempty"`
}
