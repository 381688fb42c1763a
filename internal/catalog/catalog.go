// Package catalog serves the menu: categories, items filtered by category and id lookup.
// Listings are read through an optional cache, which every menu edit invalidates.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-pos-orderflow/internal/cache"
	"github.com/imrishuroy/go-pos-orderflow/internal/pos"
)

// AllCategories selects every item.
const AllCategories = "All"

var ErrItemNotFound = errors.New("catalog item not found")

// Source loads the menu from the backend.
type Source interface {
	ListCategories(ctx context.Context) ([]pos.Category, error)
	ListMenuItems(ctx context.Context) ([]pos.Item, error)
}

// Editor changes the menu at the backend.
type Editor interface {
	CreateMenuItem(ctx context.Context, in pos.MenuItemInput) error
	UpdateMenuItem(ctx context.Context, id int64, in pos.MenuItemInput) error
	DeleteMenuItem(ctx context.Context, id int64) error
}

// Service reads the menu from a Source through the cache.
type Service struct {
	src   Source
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

// NewService returns a Service. c may be nil to disable caching.
func NewService(src Source, c cache.Cache, ttl time.Duration, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{src: src, cache: c, ttl: ttl, log: log}
}

// With returns a copy reading from src, sharing the cache.
func (s *Service) With(src Source) *Service {
	cp := *s
	cp.src = src
	return &cp
}

// Categories lists the menu categories.
func (s *Service) Categories(ctx context.Context) ([]pos.Category, error) {
	return cached(ctx, s, "categories", s.src.ListCategories)
}

// Items lists the items of category. AllCategories or "" returns everything.
func (s *Service) Items(ctx context.Context, category string) ([]pos.Item, error) {
	items, err := cached(ctx, s, "items", s.src.ListMenuItems)
	if err != nil {
		return nil, err
	}
	return FilterByCategory(items, category), nil
}

// Item resolves id to a catalog item.
func (s *Service) Item(ctx context.Context, id int64) (pos.Item, error) {
	items, err := cached(ctx, s, "items", s.src.ListMenuItems)
	if err != nil {
		return pos.Item{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return pos.Item{}, fmt.Errorf("item %d: %w", id, ErrItemNotFound)
}

// CreateItem adds in to the menu through ed.
func (s *Service) CreateItem(ctx context.Context, ed Editor, in pos.MenuItemInput) error {
	return s.edit(ctx, "create menu item", func() error { return ed.CreateMenuItem(ctx, in) })
}

// UpdateItem replaces item id through ed.
func (s *Service) UpdateItem(ctx context.Context, ed Editor, id int64, in pos.MenuItemInput) error {
	return s.edit(ctx, fmt.Sprintf("update menu item %d", id), func() error { return ed.UpdateMenuItem(ctx, id, in) })
}

// DeleteItem removes item id through ed.
func (s *Service) DeleteItem(ctx context.Context, ed Editor, id int64) error {
	return s.edit(ctx, fmt.Sprintf("delete menu item %d", id), func() error { return ed.DeleteMenuItem(ctx, id) })
}

// edit runs change and then drops the cached listings so the next read sees it. A failed
// invalidation is logged; the change itself already happened.
func (s *Service) edit(ctx context.Context, op string, change func() error) error {
	if err := change(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.Invalidate(ctx); err != nil {
		s.log.Warn("catalog cache invalidation failed", zap.String("op", op), zap.Error(err))
	}
	return nil
}

// Invalidate drops the cached listings.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, s.cache.GenerateKey("categories", "all"), s.cache.GenerateKey("items", "all"))
}

// FilterByCategory keeps the items whose category name equals category.
func FilterByCategory(items []pos.Item, category string) []pos.Item {
	if category == "" || category == AllCategories {
		return items
	}
	out := make([]pos.Item, 0)
	for _, it := range items {
		if it.CategoryName() == category {
			out = append(out, it)
		}
	}
	return out
}

func cached[T any](ctx context.Context, s *Service, op string, load func(context.Context) ([]T, error)) ([]T, error) {
	if s.cache == nil {
		return load(ctx)
	}

	key := s.cache.GenerateKey(op, "all")
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	} else if raw != "" {
		var out []T
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return out, nil
		}
		s.log.Warn("catalog cache entry unreadable", zap.String("key", key))
	}

	out, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", op, err)
	}
	b, err := json.Marshal(out)
	if err == nil {
		if err := s.cache.Set(ctx, key, string(b), s.ttl); err != nil {
			s.log.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}
