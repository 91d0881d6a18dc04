package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"beacon/internal/core/contracts"
	"beacon/internal/core/domain"
	"beacon/pkg/logging"
)

var tracer = otel.Tracer("item-service")

const (
	cachePrefix = "items:"
	cacheTTL    = time.Minute
)

// ItemService wraps the repository with request-scoped transactions and a
// read-through cache. Cache errors never fail a request.
type ItemService struct {
	repo      domain.ItemRepository
	cache     contracts.Cache
	txManager contracts.TxRunner
	log       *slog.Logger
}

func NewItemService(
	log *slog.Logger,
	repo domain.ItemRepository,
	cache contracts.Cache,
	txManager contracts.TxRunner,
) *ItemService {
	return &ItemService{
		log:       log,
		repo:      repo,
		cache:     cache,
		txManager: txManager,
	}
}

func (s *ItemService) List(ctx context.Context, activeOnly bool) ([]domain.Item, error) {
	ctx, span := tracer.Start(ctx, "ItemService.List", trace.WithAttributes(
		attribute.Bool("items.active_only", activeOnly),
	))
	defer span.End()

	key := cachePrefix + "all"
	if activeOnly {
		key += ":active"
	}
	if data, ok := s.cacheGet(ctx, key); ok {
		var items []domain.Item
		if err := json.Unmarshal(data, &items); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return items, nil
		}
	}

	var items []domain.Item
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		items, err = s.repo.GetAll(txCtx, activeOnly)
		return err
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list failed")
		s.log.ErrorContext(ctx, "items - list failed", logging.Err(err))
		return nil, err
	}
	s.cacheSet(ctx, key, items)
	return items, nil
}

func (s *ItemService) Get(ctx context.Context, id int64) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "ItemService.Get", trace.WithAttributes(
		attribute.Int64("item.id", id),
	))
	defer span.End()

	key := cachePrefix + strconv.FormatInt(id, 10)
	if data, ok := s.cacheGet(ctx, key); ok {
		var item domain.Item
		if err := json.Unmarshal(data, &item); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &item, nil
		}
	}

	var item *domain.Item
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		item, err = s.repo.GetByID(txCtx, id)
		return err
	}); err != nil {
		if err != domain.ErrItemNotFound {
			span.RecordError(err)
			s.log.ErrorContext(ctx, "items - get failed", logging.Item(id), logging.Err(err))
		}
		return nil, err
	}
	s.cacheSet(ctx, key, item)
	return item, nil
}

func (s *ItemService) Create(ctx context.Context, in domain.ItemCreate) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "ItemService.Create")
	defer span.End()

	var item *domain.Item
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		item, err = s.repo.Create(txCtx, in)
		return err
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		s.log.ErrorContext(ctx, "items - create failed", logging.Err(err))
		return nil, err
	}
	s.invalidate(ctx)
	s.log.InfoContext(ctx, "items - created", logging.Item(item.ID))
	return item, nil
}

func (s *ItemService) Update(ctx context.Context, id int64, in domain.ItemUpdate) (*domain.Item, error) {
	ctx, span := tracer.Start(ctx, "ItemService.Update", trace.WithAttributes(
		attribute.Int64("item.id", id),
	))
	defer span.End()

	var item *domain.Item
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		item, err = s.repo.Update(txCtx, id, in)
		return err
	}); err != nil {
		if err != domain.ErrItemNotFound {
			span.RecordError(err)
			s.log.ErrorContext(ctx, "items - update failed", logging.Item(id), logging.Err(err))
		}
		return nil, err
	}
	s.invalidate(ctx)
	s.log.InfoContext(ctx, "items - updated", logging.Item(id))
	return item, nil
}

func (s *ItemService) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "ItemService.Delete", trace.WithAttributes(
		attribute.Int64("item.id", id),
	))
	defer span.End()

	var deleted bool
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		deleted, err = s.repo.Delete(txCtx, id)
		return err
	}); err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "items - delete failed", logging.Item(id), logging.Err(err))
		return false, err
	}
	if deleted {
		s.invalidate(ctx)
		s.log.InfoContext(ctx, "items - deleted", logging.Item(id))
	}
	return deleted, nil
}

func (s *ItemService) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.WarnContext(ctx, "items - cache get failed", slog.String("key", key), logging.Err(err))
		return nil, false
	}
	return data, ok
}

func (s *ItemService) cacheSet(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, cacheTTL); err != nil {
		s.log.WarnContext(ctx, "items - cache set failed", slog.String("key", key), logging.Err(err))
	}
}

func (s *ItemService) invalidate(ctx context.Context) {
	if _, err := s.cache.DeletePrefix(ctx, cachePrefix); err != nil {
		s.log.WarnContext(ctx, "items - cache invalidation failed", logging.Err(err))
	}
}
