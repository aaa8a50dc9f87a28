package content

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"headless-storefront/internal/domain"
)

func TestProxySource_Routes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sanity/home", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"_id":"home","_type":"home","hero":{"title":"Welcome"}}`))
	})
	mux.HandleFunc("/api/sanity/page/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sanity/page/summer-sale" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`null`))
	})
	mux.HandleFunc("/api/sanity/products", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("expected limit 5, got %q", r.URL.Query().Get("limit"))
		}
		_, _ = w.Write([]byte(`[{"_id":"p1","_type":"product","store":{"title":"Mug","slug":{"current":"mug"},"isDeleted":false}}]`))
	})
	mux.HandleFunc("/api/sanity/settings", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Failed to fetch settings"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewProxySource(srv.URL+"/", nil)
	ctx := context.Background()

	home, err := p.Home(ctx)
	if err != nil || home.Hero == nil || home.Hero.Title != "Welcome" {
		t.Fatalf("unexpected home %+v, %v", home, err)
	}

	page, err := p.Page(ctx, "summer-sale")
	if err != nil || page != nil {
		t.Fatalf("expected nil page, got %+v, %v", page, err)
	}

	products, err := p.Products(ctx, 5)
	if err != nil || len(products) != 1 || products[0].Store.Title != "Mug" {
		t.Fatalf("unexpected products %+v, %v", products, err)
	}

	_, err = p.Settings(ctx)
	var re *RouteError
	if !errors.As(err, &re) || re.StatusCode != http.StatusInternalServerError || err.Error() != "Failed to fetch settings" {
		t.Fatalf("expected route error, got %v", err)
	}
}

type stubCatalog struct {
	pages  map[string]*domain.ProductConnection
	afters []string
}

func (s *stubCatalog) Products(ctx context.Context, first int, after string) (*domain.ProductConnection, error) {
	s.afters = append(s.afters, after)
	return s.pages[after], nil
}

func (s *stubCatalog) Collections(ctx context.Context, first int, after string) (*domain.CollectionConnection, error) {
	return &domain.CollectionConnection{}, nil
}

func TestProductPager_LoadMore(t *testing.T) {
	cat := &stubCatalog{pages: map[string]*domain.ProductConnection{
		"": {
			Products: []domain.Product{{ID: "1"}, {ID: "2"}},
			PageInfo: domain.PageInfo{HasNextPage: true, EndCursor: "c2"},
		},
		"c2": {
			Products: []domain.Product{{ID: "3"}},
			PageInfo: domain.PageInfo{HasNextPage: false, EndCursor: "c3"},
		},
	}}
	pager := ProductPager(cat, 2)
	ctx := context.Background()

	for pager.HasMore() {
		if _, err := pager.Next(ctx); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	if got := len(pager.Items()); got != 3 {
		t.Fatalf("expected 3 products, got %d", got)
	}
	if len(cat.afters) != 2 || cat.afters[0] != "" || cat.afters[1] != "c2" {
		t.Fatalf("expected cursors [\"\" c2], got %q", cat.afters)
	}
	if _, err := pager.Next(ctx); !errors.Is(err, ErrNoMorePages) {
		t.Fatalf("expected ErrNoMorePages, got %v", err)
	}

	pager.Reset()
	if !pager.HasMore() || len(pager.Items()) != 0 {
		t.Fatal("expected reset pager to start over")
	}
}

func TestPager_FailureKeepsCursor(t *testing.T) {
	calls := 0
	pager := NewPager(func(ctx context.Context, first int, after string) ([]int, domain.PageInfo, error) {
		calls++
		if calls == 2 {
			return nil, domain.PageInfo{}, errors.New("offline")
		}
		if calls == 3 && after != "a" {
			t.Errorf("expected retry from cursor a, got %q", after)
		}
		return []int{calls}, domain.PageInfo{HasNextPage: calls == 1, EndCursor: "a"}, nil
	}, 1)
	ctx := context.Background()

	_, _ = pager.Next(ctx)
	if _, err := pager.Next(ctx); err == nil {
		t.Fatal("expected error")
	}
	if _, err := pager.Next(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if pager.HasMore() {
		t.Fatal("expected last page")
	}
}
