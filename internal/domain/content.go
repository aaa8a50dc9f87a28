package domain

import "encoding/json"

// Module is a CMS content block. Renderers dispatch on Type; Raw keeps the full body.
type Module struct {
	Key  string          `json:"_key"`
	Type string          `json:"_type"`
	Raw  json.RawMessage `json:"-"`
}

func (m *Module) UnmarshalJSON(b []byte) error {
	type shell struct {
		Key  string `json:"_key"`
		Type string `json:"_type"`
	}
	var s shell
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	m.Key = s.Key
	m.Type = s.Type
	m.Raw = append(json.RawMessage(nil), b...)
	return nil
}

func (m Module) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	return json.Marshal(struct {
		Key  string `json:"_key"`
		Type string `json:"_type"`
	}{m.Key, m.Type})
}

type SEO struct {
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Image       json.RawMessage `json:"image,omitempty"`
}

type CTA struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

type Hero struct {
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Image       json.RawMessage `json:"image,omitempty"`
	CTA         *CTA            `json:"cta,omitempty"`
}

type Home struct {
	ID      string   `json:"_id"`
	Type    string   `json:"_type"`
	Hero    *Hero    `json:"hero,omitempty"`
	Modules []Module `json:"modules,omitempty"`
	SEO     *SEO     `json:"seo,omitempty"`
}

type Slug struct {
	Current string `json:"current"`
}

type PageStore struct {
	Title string `json:"title,omitempty"`
	Slug  Slug   `json:"slug"`
}

type Page struct {
	ID      string    `json:"_id"`
	Type    string    `json:"_type"`
	Title   string    `json:"title,omitempty"`
	Store   PageStore `json:"store"`
	Modules []Module  `json:"modules,omitempty"`
	SEO     *SEO      `json:"seo,omitempty"`
}

type MenuLink struct {
	Key   string          `json:"_key"`
	Type  string          `json:"_type"`
	Title string          `json:"title,omitempty"`
	Raw   json.RawMessage `json:"-"`
}

func (l *MenuLink) UnmarshalJSON(b []byte) error {
	type shell struct {
		Key   string `json:"_key"`
		Type  string `json:"_type"`
		Title string `json:"title"`
	}
	var s shell
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	l.Key, l.Type, l.Title = s.Key, s.Type, s.Title
	l.Raw = append(json.RawMessage(nil), b...)
	return nil
}

func (l MenuLink) MarshalJSON() ([]byte, error) {
	if len(l.Raw) > 0 {
		return l.Raw, nil
	}
	return json.Marshal(struct {
		Key   string `json:"_key"`
		Type  string `json:"_type"`
		Title string `json:"title,omitempty"`
	}{l.Key, l.Type, l.Title})
}

type Menu struct {
	Links []MenuLink `json:"links,omitempty"`
}

type Settings struct {
	ID           string          `json:"_id"`
	Type         string          `json:"_type"`
	Menu         *Menu           `json:"menu,omitempty"`
	Footer       json.RawMessage `json:"footer,omitempty"`
	SEO          *SEO            `json:"seo,omitempty"`
	NotFoundPage json.RawMessage `json:"notFoundPage,omitempty"`
}

// StoreData is the commerce data synced into the CMS for products and collections.
type StoreData struct {
	ID              int64    `json:"id,omitempty"`
	GID             string   `json:"gid,omitempty"`
	Title           string   `json:"title"`
	Handle          string   `json:"handle,omitempty"`
	Slug            Slug     `json:"slug"`
	DescriptionHTML string   `json:"descriptionHtml,omitempty"`
	Status          string   `json:"status,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Vendor          string   `json:"vendor,omitempty"`
	ProductType     string   `json:"productType,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	CompareAtPrice  *float64 `json:"compareAtPrice,omitempty"`
	IsDeleted       bool     `json:"isDeleted"`
	PreviewImageURL string   `json:"previewImageUrl,omitempty"`
}

// CMSDocument is a product or collection document from the CMS.
type CMSDocument struct {
	ID        string    `json:"_id"`
	Type      string    `json:"_type"`
	CreatedAt string    `json:"_createdAt,omitempty"`
	UpdatedAt string    `json:"_updatedAt,omitempty"`
	Title     string    `json:"title,omitempty"`
	Store     StoreData `json:"store"`
}
