package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/pos"
)

type fakeSource struct {
	items     []pos.Item
	cats      []pos.Category
	itemCalls int
	err       error
}

func (f *fakeSource) ListCategories(ctx context.Context) ([]pos.Category, error) {
	return f.cats, f.err
}

func (f *fakeSource) ListMenuItems(ctx context.Context) ([]pos.Item, error) {
	f.itemCalls++
	return f.items, f.err
}

func (f *fakeSource) CreateMenuItem(ctx context.Context, in pos.MenuItemInput) error {
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, pos.Item{ID: int64(len(f.items) + 1), Name: in.Name, Price: in.Price})
	return nil
}

func (f *fakeSource) UpdateMenuItem(ctx context.Context, id int64, in pos.MenuItemInput) error {
	if f.err != nil {
		return f.err
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Name, f.items[i].Price = in.Name, in.Price
		}
	}
	return nil
}

func (f *fakeSource) DeleteMenuItem(ctx context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.items = slices.DeleteFunc(f.items, func(it pos.Item) bool { return it.ID == id })
	return nil
}

type memCache struct {
	mu      sync.Mutex
	data    map[string]string
	failGet bool
}

func newMemCache() *memCache { return &memCache{data: map[string]string{}} }

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return "", errors.New("connection refused")
	}
	return m.data[key], nil
}

func (m *memCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memCache) GenerateKey(operation, key string) string {
	return "pos:catalog:" + operation + ":" + key
}

func menu() *fakeSource {
	burgers := &pos.Category{ID: 1, Name: "Burgers"}
	drinks := &pos.Category{ID: 2, Name: "Drinks"}
	return &fakeSource{
		cats: []pos.Category{*burgers, *drinks},
		items: []pos.Item{
			{ID: 1, Name: "Chicken Burger", Price: decimal.NewFromInt(250), Category: burgers},
			{ID: 2, Name: "Cola", Price: decimal.NewFromInt(60), Category: drinks},
			{ID: 3, Name: "Beef Burger", Price: decimal.NewFromInt(320), Category: burgers},
			{ID: 4, Name: "Special", Price: decimal.NewFromInt(99)},
		},
	}
}

func TestItems_CategoryFilter(t *testing.T) {
	svc := NewService(menu(), nil, time.Minute, nil)
	ctx := context.Background()

	cases := []struct {
		category string
		want     int
	}{
		{"", 4},
		{AllCategories, 4},
		{"Burgers", 2},
		{"Drinks", 1},
		{"burgers", 0},
		{"Desserts", 0},
	}
	for _, tc := range cases {
		got, err := svc.Items(ctx, tc.category)
		if err != nil {
			t.Fatalf("Items(%q) error: %v", tc.category, err)
		}
		if len(got) != tc.want {
			t.Fatalf("Items(%q): expected %d, got %d", tc.category, tc.want, len(got))
		}
	}
}

func TestItem_Lookup(t *testing.T) {
	svc := NewService(menu(), nil, time.Minute, nil)
	it, err := svc.Item(context.Background(), 3)
	if err != nil || it.Name != "Beef Burger" {
		t.Fatalf("unexpected lookup result %+v, %v", it, err)
	}
	if _, err := svc.Item(context.Background(), 99); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestItems_ReadThroughCache(t *testing.T) {
	src := menu()
	c := newMemCache()
	svc := NewService(src, c, time.Minute, nil)
	ctx := context.Background()

	if _, err := svc.Items(ctx, AllCategories); err != nil {
		t.Fatalf("first Items error: %v", err)
	}
	got, err := svc.Items(ctx, "Burgers")
	if err != nil {
		t.Fatalf("second Items error: %v", err)
	}
	if src.itemCalls != 1 {
		t.Fatalf("expected a single source call, got %d", src.itemCalls)
	}
	if len(got) != 2 || !got[0].Price.Equal(decimal.NewFromInt(250)) || got[0].CategoryName() != "Burgers" {
		t.Fatalf("cached items decoded wrongly: %+v", got)
	}

	if err := svc.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate error: %v", err)
	}
	if _, err := svc.Items(ctx, AllCategories); err != nil {
		t.Fatalf("Items after invalidate error: %v", err)
	}
	if src.itemCalls != 2 {
		t.Fatalf("expected reload after invalidate, got %d calls", src.itemCalls)
	}
}

func TestItems_CacheFailureFallsThrough(t *testing.T) {
	src := menu()
	c := newMemCache()
	c.failGet = true
	svc := NewService(src, c, time.Minute, nil)

	got, err := svc.Items(context.Background(), AllCategories)
	if err != nil {
		t.Fatalf("expected fallback to source, got %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 items, got %d", len(got))
	}
}

func TestItems_SourceError(t *testing.T) {
	src := menu()
	src.err = errors.New("backend down")
	svc := NewService(src, newMemCache(), time.Minute, nil)
	if _, err := svc.Items(context.Background(), AllCategories); err == nil {
		t.Fatal("expected error")
	}
}

func TestWith_SharesCache(t *testing.T) {
	c := newMemCache()
	base := NewService(nil, c, time.Minute, nil)
	src := menu()
	cats, err := base.With(src).Categories(context.Background())
	if err != nil || len(cats) != 2 {
		t.Fatalf("unexpected categories %+v, %v", cats, err)
	}
	if c.data["pos:catalog:categories:all"] == "" {
		t.Fatal("expected categories to be cached")
	}
}

func TestEdits_InvalidateCachedListings(t *testing.T) {
	src := menu()
	c := newMemCache()
	svc := NewService(src, c, time.Minute, nil)
	ctx := context.Background()

	if _, err := svc.Items(ctx, AllCategories); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if err := svc.CreateItem(ctx, src, pos.MenuItemInput{Name: "Lassi", Price: decimal.NewFromInt(80), CategoryID: 2}); err != nil {
		t.Fatalf("CreateItem error: %v", err)
	}
	got, err := svc.Item(ctx, 5)
	if err != nil || got.Name != "Lassi" {
		t.Fatalf("new item must be visible after create, got %+v, %v", got, err)
	}

	if err := svc.UpdateItem(ctx, src, 2, pos.MenuItemInput{Name: "Diet Cola", Price: decimal.NewFromInt(70)}); err != nil {
		t.Fatalf("UpdateItem error: %v", err)
	}
	if got, _ := svc.Item(ctx, 2); got.Name != "Diet Cola" {
		t.Fatalf("update not visible, got %+v", got)
	}

	if err := svc.DeleteItem(ctx, src, 2); err != nil {
		t.Fatalf("DeleteItem error: %v", err)
	}
	if _, err := svc.Item(ctx, 2); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("deleted item must be gone, got %v", err)
	}
}

func TestEdits_FailedChangeKeepsCache(t *testing.T) {
	src := menu()
	c := newMemCache()
	svc := NewService(src, c, time.Minute, nil)
	ctx := context.Background()

	if _, err := svc.Items(ctx, AllCategories); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	src.err = errors.New("backend down")
	if err := svc.DeleteItem(ctx, src, 1); err == nil {
		t.Fatal("expected error")
	}
	if c.data["pos:catalog:items:all"] == "" {
		t.Fatal("a failed edit must not drop the cache")
	}
}
