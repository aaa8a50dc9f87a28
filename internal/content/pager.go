package content

import (
	"context"
	"errors"
	"sync"

	"headless-storefront/internal/domain"
)

var ErrNoMorePages = errors.New("content: no more pages")

// FetchPage loads one page of a cursor connection.
type FetchPage[T any] func(ctx context.Context, first int, after string) ([]T, domain.PageInfo, error)

// Pager drives "load more" over a cursor connection, feeding each page's end
// cursor back as the next "after".
type Pager[T any] struct {
	fetch FetchPage[T]
	first int

	mu      sync.Mutex
	after   string
	hasMore bool
	items   []T
}

func NewPager[T any](fetch FetchPage[T], first int) *Pager[T] {
	if first <= 0 {
		first = DefaultLimit
	}
	return &Pager[T]{fetch: fetch, first: first, hasMore: true}
}

func (p *Pager[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// Items returns everything loaded so far.
func (p *Pager[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

// Next loads the following page. A failed load leaves the cursor where it was.
func (p *Pager[T]) Next(ctx context.Context) ([]T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hasMore {
		return nil, ErrNoMorePages
	}
	nodes, info, err := p.fetch(ctx, p.first, p.after)
	if err != nil {
		return nil, err
	}
	p.items = append(p.items, nodes...)
	p.after = info.EndCursor
	p.hasMore = info.HasNextPage && info.EndCursor != ""
	return nodes, nil
}

func (p *Pager[T]) Reset() {
	p.mu.Lock()
	p.after = ""
	p.hasMore = true
	p.items = nil
	p.mu.Unlock()
}

// Catalog is the commerce listing API the pagers read from.
type Catalog interface {
	Products(ctx context.Context, first int, after string) (*domain.ProductConnection, error)
	Collections(ctx context.Context, first int, after string) (*domain.CollectionConnection, error)
}

func ProductPager(c Catalog, first int) *Pager[domain.Product] {
	return NewPager(func(ctx context.Context, first int, after string) ([]domain.Product, domain.PageInfo, error) {
		conn, err := c.Products(ctx, first, after)
		if err != nil {
			return nil, domain.PageInfo{}, err
		}
		return conn.Products, conn.PageInfo, nil
	}, first)
}

func CollectionPager(c Catalog, first int) *Pager[domain.Collection] {
	return NewPager(func(ctx context.Context, first int, after string) ([]domain.Collection, domain.PageInfo, error) {
		conn, err := c.Collections(ctx, first, after)
		if err != nil {
			return nil, domain.PageInfo{}, err
		}
		return conn.Collections, conn.PageInfo, nil
	}, first)
}
