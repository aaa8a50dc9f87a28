package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"headless-storefront/internal/graphql"
)

const cartJSON = `{
  "id": "gid://shopify/Cart/c1",
  "checkoutUrl": "https://shop.test/cart/c/c1",
  "createdAt": "2024-05-01T10:00:00Z",
  "updatedAt": "2024-05-01T10:05:00Z",
  "totalQuantity": 3,
  "buyerIdentity": {"countryCode": "US", "email": null, "phone": null, "customer": null, "deliveryAddressPreferences": []},
  "attributes": [{"key": "gift", "value": "yes"}],
  "cost": {
    "totalAmount": {"amount": "27.0", "currencyCode": "USD"},
    "subtotalAmount": {"amount": "30.0", "currencyCode": "USD"},
    "totalTaxAmount": null,
    "totalDutyAmount": null,
    "checkoutChargeAmount": {"amount": "30.0", "currencyCode": "USD"}
  },
  "discountCodes": [{"code": "SAVE10", "applicable": true}],
  "discountAllocations": [{"discountedAmount": {"amount": "3.0", "currencyCode": "USD"}, "targetType": "LINE_ITEM"}],
  "lines": {"edges": [{"node": {
    "id": "gid://shopify/CartLine/l1",
    "quantity": 3,
    "attributes": [],
    "cost": {
      "totalAmount": {"amount": "30.0", "currencyCode": "USD"},
      "amountPerQuantity": {"amount": "10.0", "currencyCode": "USD"},
      "compareAtAmountPerQuantity": null
    },
    "merchandise": {
      "id": "gid://shopify/ProductVariant/v1",
      "title": "Small",
      "product": {"id": "gid://shopify/Product/p1", "title": "Tee", "handle": "tee", "productType": "Shirts", "vendor": "Acme"},
      "selectedOptions": [{"name": "Size", "value": "S"}],
      "image": {"id": "img1", "url": "https://cdn.test/tee.png", "altText": null, "width": 300, "height": 300},
      "price": {"amount": "10.0", "currencyCode": "USD"},
      "compareAtPrice": null,
      "availableForSale": true,
      "quantityAvailable": 12
    },
    "sellingPlanAllocation": null
  }}]},
  "deliveryGroups": {"edges": [{"node": {"id": "dg1", "deliveryAddress": {"city": "Austin"}, "cartLines": {"edges": [{"node": {"id": "gid://shopify/CartLine/l1"}}]}}}]},
  "note": null
}`

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// newServer answers every request with respond(req).
func newServer(t *testing.T, respond func(req gqlRequest) string) (*Client, *[]gqlRequest) {
	t.Helper()
	var seen []gqlRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Shopify-Storefront-Access-Token") != "public-token" {
			t.Errorf("missing storefront token header")
		}
		body, _ := io.ReadAll(r.Body)
		var req gqlRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		seen = append(seen, req)
		_, _ = w.Write([]byte(respond(req)))
	}))
	t.Cleanup(srv.Close)
	return New(Config{Endpoint: srv.URL, AccessToken: "public-token"}, nil), &seen
}

func TestEndpoint(t *testing.T) {
	got := Endpoint("demo.myshopify.com", "")
	if got != "https://demo.myshopify.com/api/2024-01/graphql.json" {
		t.Fatalf("unexpected endpoint %q", got)
	}
}

func TestCart_DecodesFragment(t *testing.T) {
	c, seen := newServer(t, func(gqlRequest) string {
		return `{"data":{"cart":` + cartJSON + `}}`
	})
	cart, err := c.Cart(context.Background(), "gid://shopify/Cart/c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if (*seen)[0].Variables["cartId"] != "gid://shopify/Cart/c1" {
		t.Fatalf("cart id not sent: %+v", (*seen)[0].Variables)
	}
	if cart.TotalQuantity != 3 || len(cart.Lines) != 1 {
		t.Fatalf("unexpected cart: %+v", cart)
	}
	if got := cart.Cost.TotalAmount.Fixed(); got != "27.00" {
		t.Fatalf("expected total 27.00, got %s", got)
	}
	line := cart.Lines[0]
	if line.Merchandise.ID != "gid://shopify/ProductVariant/v1" || line.Merchandise.Product.Vendor != "Acme" {
		t.Fatalf("unexpected merchandise: %+v", line.Merchandise)
	}
	if line.Merchandise.QuantityAvailable == nil || *line.Merchandise.QuantityAvailable != 12 {
		t.Fatalf("expected quantity available 12")
	}
	if len(cart.DiscountAllocations) != 1 || cart.DiscountAllocations[0].TargetType != "LINE_ITEM" {
		t.Fatalf("unexpected allocations: %+v", cart.DiscountAllocations)
	}
	if len(cart.DeliveryGroups) != 1 || cart.DeliveryGroups[0].LineIDs[0] != "gid://shopify/CartLine/l1" {
		t.Fatalf("unexpected delivery groups: %+v", cart.DeliveryGroups)
	}
	if cart.Cost.TotalTaxAmount != nil {
		t.Fatalf("expected nil tax amount")
	}
}

func TestCart_MissingReturnsNil(t *testing.T) {
	c, _ := newServer(t, func(gqlRequest) string { return `{"data":{"cart":null}}` })
	cart, err := c.Cart(context.Background(), "gone")
	if err != nil || cart != nil {
		t.Fatalf("expected nil cart and nil error, got %v, %v", cart, err)
	}
}

func TestCart_MalformedMoney(t *testing.T) {
	bad := strings.Replace(cartJSON, `"27.0"`, `"twenty"`, 1)
	c, _ := newServer(t, func(gqlRequest) string { return `{"data":{"cart":` + bad + `}}` })
	_, err := c.Cart(context.Background(), "c1")
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected malformed payload error, got %v", err)
	}
}

func TestCart_BadTargetType(t *testing.T) {
	bad := strings.Replace(cartJSON, `"LINE_ITEM"`, `"EVERYTHING"`, 1)
	c, _ := newServer(t, func(gqlRequest) string { return `{"data":{"cart":` + bad + `}}` })
	if _, err := c.Cart(context.Background(), "c1"); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected malformed payload error, got %v", err)
	}
}

func TestAddLines_SendsVariablesAndDecodes(t *testing.T) {
	c, seen := newServer(t, func(req gqlRequest) string {
		if !strings.Contains(req.Query, "cartLinesAdd") {
			t.Fatalf("unexpected query %s", req.Query)
		}
		return `{"data":{"cartLinesAdd":{"cart":` + cartJSON + `,"userErrors":[]}}}`
	})
	cart, err := c.AddLines(context.Background(), "c1", []LineInput{{MerchandiseID: "v1", Quantity: 3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.ID != "gid://shopify/Cart/c1" {
		t.Fatalf("unexpected cart id %q", cart.ID)
	}
	lines := (*seen)[0].Variables["lines"].([]any)
	first := lines[0].(map[string]any)
	if first["merchandiseId"] != "v1" || first["quantity"] != float64(3) {
		t.Fatalf("unexpected lines variable: %+v", first)
	}
}

func TestMutation_UserErrors(t *testing.T) {
	c, _ := newServer(t, func(gqlRequest) string {
		return `{"data":{"cartDiscountCodesUpdate":{"cart":null,"userErrors":[{"field":["discountCodes"],"message":"Discount code is invalid"},{"field":null,"message":"second"}]}}}`
	})
	_, err := c.UpdateDiscountCodes(context.Background(), "c1", []string{"BAD"})
	var ue *graphql.UserErrors
	if !errors.As(err, &ue) {
		t.Fatalf("expected user errors, got %v", err)
	}
	if err.Error() != "Discount code is invalid" {
		t.Fatalf("expected first message, got %q", err.Error())
	}
}

func TestUpdateDiscountCodes_EmptyListIsSent(t *testing.T) {
	c, seen := newServer(t, func(gqlRequest) string {
		return `{"data":{"cartDiscountCodesUpdate":{"cart":` + cartJSON + `,"userErrors":[]}}}`
	})
	if _, err := c.UpdateDiscountCodes(context.Background(), "c1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	codes, ok := (*seen)[0].Variables["discountCodes"].([]any)
	if !ok || len(codes) != 0 {
		t.Fatalf("expected explicit empty list, got %#v", (*seen)[0].Variables["discountCodes"])
	}
}

const productJSON = `{
  "id": "gid://shopify/Product/p1", "title": "Tee", "handle": "tee",
  "description": "", "descriptionHtml": "", "availableForSale": true,
  "createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-01T00:00:00Z",
  "productType": "Shirts", "vendor": "Acme", "tags": ["cotton"], "totalInventory": 5,
  "priceRange": {"minVariantPrice": {"amount": "10.0", "currencyCode": "USD"}, "maxVariantPrice": {"amount": "12.5", "currencyCode": "USD"}},
  "compareAtPriceRange": null,
  "images": {"edges": [{"node": {"id": "i1", "url": "https://cdn.test/1.png", "altText": "front", "width": 10, "height": 10}}]},
  "variants": {"edges": [{"node": {"id": "v1", "title": "S", "availableForSale": true, "price": {"amount": "10.0", "currencyCode": "USD"}, "compareAtPrice": null, "selectedOptions": [], "quantityAvailable": 2, "image": null}}]},
  "options": [{"id": "o1", "name": "Size", "values": ["S"]}]
}`

func TestProducts_Pagination(t *testing.T) {
	c, seen := newServer(t, func(gqlRequest) string {
		return `{"data":{"products":{"edges":[{"node":` + productJSON + `}],"pageInfo":{"hasNextPage":true,"hasPreviousPage":false,"startCursor":"a","endCursor":"b"}}}}`
	})
	conn, err := c.Products(context.Background(), 0, "cursor-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vars := (*seen)[0].Variables
	if vars["first"] != float64(DefaultPageSize) || vars["after"] != "cursor-1" {
		t.Fatalf("unexpected variables: %+v", vars)
	}
	if !conn.PageInfo.HasNextPage || conn.PageInfo.EndCursor != "b" {
		t.Fatalf("unexpected page info: %+v", conn.PageInfo)
	}
	p := conn.Products[0]
	if p.PriceRange.MaxVariantPrice.Fixed() != "12.50" || len(p.Variants) != 1 || p.Images[0].AltText != "front" {
		t.Fatalf("unexpected product: %+v", p)
	}
}

func TestProductByHandle_NotFound(t *testing.T) {
	c, _ := newServer(t, func(gqlRequest) string { return `{"data":{"productByHandle":null}}` })
	p, err := c.ProductByHandle(context.Background(), "missing")
	if err != nil || p != nil {
		t.Fatalf("expected nil product, got %v %v", p, err)
	}
}

func TestStoreStatus_PasswordProtected(t *testing.T) {
	c, _ := newServer(t, func(gqlRequest) string {
		return `{"errors":[{"message":"Access denied: store is password protected"}]}`
	})
	st := c.StoreStatus(context.Background())
	if st.Accessible || !st.PasswordProtected {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestStoreStatus_OK(t *testing.T) {
	c, _ := newServer(t, func(gqlRequest) string {
		return `{"data":{"shop":{"name":"Demo","description":null,"primaryDomain":{"url":"https://demo.test"},"paymentSettings":{"currencyCode":"USD"}},"products":{"edges":[{"node":{"id":"p1","title":"Tee"}}]}}}`
	})
	st := c.StoreStatus(context.Background())
	if !st.Accessible || !st.CanAccessProducts || st.Shop.Name != "Demo" {
		t.Fatalf("unexpected status: %+v", st)
	}
}
