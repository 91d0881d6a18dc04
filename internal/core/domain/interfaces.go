package domain

import "context"

// ItemRepository handles persistence for the example entity. Implementations
// honor a request-scoped transaction when one is present on the context.
type ItemRepository interface {
	GetAll(ctx context.Context, activeOnly bool) ([]Item, error)
	GetByID(ctx context.Context, id int64) (*Item, error)
	Create(ctx context.Context, in ItemCreate) (*Item, error)
	Update(ctx context.Context, id int64, in ItemUpdate) (*Item, error)
	Delete(ctx context.Context, id int64) (bool, error)
}
