package catalog

import "context"

type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	PriceCents  int64  `json:"price_cents"`
	Description string `json:"description"`
}

type Store interface {
	Ping(ctx context.Context) error
	ListSortedByID(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, bool, error)
}
