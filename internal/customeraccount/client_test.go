package customeraccount

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"headless-storefront/internal/auth"
	"headless-storefront/internal/graphql"
)

type stubTokens struct {
	token      string
	refreshed  string
	refreshErr error
	refreshes  int
	logouts    int
}

func (s *stubTokens) AccessToken(ctx context.Context) (string, error) { return s.token, nil }

func (s *stubTokens) ForceRefresh(ctx context.Context) (string, error) {
	s.refreshes++
	if s.refreshErr != nil {
		return "", s.refreshErr
	}
	s.token = s.refreshed
	return s.token, nil
}

func (s *stubTokens) Logout(ctx context.Context) error {
	s.logouts++
	return nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func newTestClient(t *testing.T, tokens TokenSource, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{Endpoint: srv.URL}, tokens, nil)
}

func TestEndpoint(t *testing.T) {
	got := Endpoint("12345", "")
	want := "https://shopify.com/12345/account/customer/api/2025-07/graphql"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestCustomer_RawAuthorizationHeader(t *testing.T) {
	tokens := &stubTokens{token: "shcat_abc"}
	c := newTestClient(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "shcat_abc" {
			t.Errorf("expected raw token, got %q", got)
		}
		_, _ = w.Write([]byte(`{"data":{"customer":{"id":"gid://shopify/Customer/1","firstName":"Ada","lastName":"Lovelace","emailAddress":{"emailAddress":"ada@example.com"}}}}`))
	})

	customer, err := c.Customer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if customer.Email != "ada@example.com" || customer.DisplayName != "Ada Lovelace" {
		t.Fatalf("unexpected customer %+v", customer)
	}
}

func TestCustomer_RejectsForeignToken(t *testing.T) {
	var calls int32
	c := newTestClient(t, &stubTokens{token: "Bearer xyz"}, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	if _, err := c.Customer(context.Background()); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no request, got %d", calls)
	}
}

func TestDo_RefreshesOnceAndRetries(t *testing.T) {
	tokens := &stubTokens{token: "shcat_old", refreshed: "shcat_new"}
	var calls int32
	c := newTestClient(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") == "shcat_old" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"customer":{"id":"1","displayName":"Ada"}}}`))
	})

	customer, err := c.Customer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if customer.DisplayName != "Ada" {
		t.Fatalf("unexpected customer %+v", customer)
	}
	if tokens.refreshes != 1 || calls != 2 || tokens.logouts != 0 {
		t.Fatalf("expected 1 refresh, 2 calls, 0 logouts; got %d, %d, %d", tokens.refreshes, calls, tokens.logouts)
	}
}

func TestDo_SecondAuthFailureLogsOut(t *testing.T) {
	tokens := &stubTokens{token: "shcat_old", refreshed: "shcat_new"}
	c := newTestClient(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Invalid access token"}]}`))
	})

	_, err := c.Customer(context.Background())
	if !errors.Is(err, auth.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if tokens.refreshes != 1 || tokens.logouts != 1 {
		t.Fatalf("expected 1 refresh and 1 logout, got %d and %d", tokens.refreshes, tokens.logouts)
	}
}

func TestDo_RefreshFailureLogsOut(t *testing.T) {
	tokens := &stubTokens{token: "shcat_old", refreshErr: errors.New("invalid_grant")}
	c := newTestClient(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	if _, err := c.Customer(context.Background()); !errors.Is(err, auth.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if tokens.logouts != 1 {
		t.Fatalf("expected logout, got %d", tokens.logouts)
	}
}

func TestDo_OtherErrorsAreNotRetried(t *testing.T) {
	tokens := &stubTokens{token: "shcat_old"}
	c := newTestClient(t, tokens, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Customer(context.Background())
	var httpErr *graphql.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected HTTPError 500, got %v", err)
	}
	if tokens.refreshes != 0 {
		t.Fatalf("expected no refresh, got %d", tokens.refreshes)
	}
}

func TestOrders_Pagination(t *testing.T) {
	c := newTestClient(t, &stubTokens{token: "shcat_a"}, func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Variables["first"] != float64(5) || req.Variables["after"] != "c1" {
			t.Errorf("unexpected variables %v", req.Variables)
		}
		_, _ = w.Write([]byte(`{"data":{"customer":{"orders":{
			"nodes":[{"id":"o1","name":"#1001","number":1001,"processedAt":"2024-05-01T10:00:00Z",
				"financialStatus":"PAID","totalPrice":{"amount":"42.5","currencyCode":"EUR"},
				"lineItems":{"nodes":[{"id":"li1","title":"Mug","quantity":2}]}}],
			"pageInfo":{"hasNextPage":true,"hasPreviousPage":true,"startCursor":"c2","endCursor":"c2"}}}}}`))
	})

	page, err := c.Orders(context.Background(), 5, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Nodes) != 1 || !page.PageInfo.HasNextPage || page.PageInfo.EndCursor != "c2" {
		t.Fatalf("unexpected page %+v", page)
	}
	order := page.Nodes[0]
	if order.TotalPrice.Format() != "EUR 42.50" || len(order.LineItems) != 1 || order.LineItems[0].Quantity != 2 {
		t.Fatalf("unexpected order %+v", order)
	}
}

func TestPaymentMethods_FlattenInstrument(t *testing.T) {
	c := newTestClient(t, &stubTokens{token: "shcat_a"}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"customer":{"paymentMethods":{
			"nodes":[{"id":"pm1","instrument":{"brand":"VISA","lastFourDigits":"4242","expiryMonth":12,"expiryYear":2030}}],
			"pageInfo":{"hasNextPage":false,"hasPreviousPage":false}}}}}`))
	})

	page, err := c.PaymentMethods(context.Background(), 0, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Nodes) != 1 || page.Nodes[0].LastFourDigits != "4242" || page.Nodes[0].Brand != "VISA" {
		t.Fatalf("unexpected payment methods %+v", page.Nodes)
	}
}

func TestCreateAddress_UserErrors(t *testing.T) {
	c := newTestClient(t, &stubTokens{token: "shcat_a"}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"customerAddressCreate":{"customerAddress":null,
			"userErrors":[{"field":["address","zip"],"message":"Zip is invalid","code":"INVALID"}]}}}`))
	})

	_, err := c.CreateAddress(context.Background(), AddressInput{Zip: "x"})
	var userErrs *graphql.UserErrors
	if !errors.As(err, &userErrs) || err.Error() != "Zip is invalid" {
		t.Fatalf("expected user error, got %v", err)
	}
}

func TestDeleteAddress(t *testing.T) {
	c := newTestClient(t, &stubTokens{token: "shcat_a"}, func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Variables["addressId"] != "a1" {
			t.Errorf("unexpected variables %v", req.Variables)
		}
		_, _ = w.Write([]byte(`{"data":{"customerAddressDelete":{"deletedAddressId":"a1","userErrors":[]}}}`))
	})

	id, err := c.DeleteAddress(context.Background(), "a1")
	if err != nil || id != "a1" {
		t.Fatalf("expected a1, got %q, %v", id, err)
	}
}
