package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"beacon/internal/core/domain"
	"beacon/internal/core/services"
)

type memRepo struct {
	items  map[int64]domain.Item
	nextID int64
}

func (r *memRepo) GetAll(ctx context.Context, activeOnly bool) ([]domain.Item, error) {
	out := []domain.Item{}
	for _, it := range r.items {
		if activeOnly && !it.IsActive {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (r *memRepo) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &it, nil
}

func (r *memRepo) Create(ctx context.Context, in domain.ItemCreate) (*domain.Item, error) {
	it := domain.Item{
		ID:        r.nextID,
		Name:      in.Name,
		Price:     in.Price,
		IsActive:  in.IsActive == nil || *in.IsActive,
		CreatedAt: time.Now(),
	}
	r.items[it.ID] = it
	r.nextID++
	return &it, nil
}

func (r *memRepo) Update(ctx context.Context, id int64, in domain.ItemUpdate) (*domain.Item, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	if in.Name != nil {
		it.Name = *in.Name
	}
	now := time.Now()
	it.UpdatedAt = &now
	r.items[id] = it
	return &it, nil
}

func (r *memRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }
func (noopCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}
func (noopCache) Delete(ctx context.Context, keys ...string) error          { return nil }
func (noopCache) DeletePrefix(ctx context.Context, prefix string) (int, error) { return 0, nil }

type noTx struct{}

func (noTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

func newItemsServer(t *testing.T) (*httptest.Server, *memRepo) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := &memRepo{items: make(map[int64]domain.Item), nextID: 1}
	svc := services.NewItemService(log, repo, noopCache{}, noTx{})
	h := NewItemHandler(svc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1.0/items", h.List)
	mux.HandleFunc("POST /api/v1.0/items", h.Create)
	mux.HandleFunc("GET /api/v1.0/items/{id}", h.Get)
	mux.HandleFunc("PUT /api/v1.0/items/{id}", h.Update)
	mux.HandleFunc("DELETE /api/v1.0/items/{id}", h.Delete)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, repo
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	var decoded map[string]any
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestItemLifecycle(t *testing.T) {
	srv, _ := newItemsServer(t)
	base := srv.URL + "/api/v1.0/items"

	resp, created := doJSON(t, http.MethodPost, base, `{"name":"Widget","price":19.99}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	if created["name"] != "Widget" || created["is_active"] != true {
		t.Fatalf("created = %v", created)
	}
	// A fresh row has never been updated.
	if v, ok := created["updated_at"]; !ok || v != nil {
		t.Fatalf("created updated_at = %v, want null", v)
	}

	resp, got := doJSON(t, http.MethodGet, base+"/1", "")
	if resp.StatusCode != http.StatusOK || got["name"] != "Widget" {
		t.Fatalf("get = %d %v", resp.StatusCode, got)
	}

	resp, updated := doJSON(t, http.MethodPut, base+"/1", `{"name":"Gadget"}`)
	if resp.StatusCode != http.StatusOK || updated["name"] != "Gadget" {
		t.Fatalf("update = %d %v", resp.StatusCode, updated)
	}
	if updated["updated_at"] == nil {
		t.Fatal("updated_at still null after update")
	}

	resp, _ = doJSON(t, http.MethodDelete, base+"/1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, base+"/1", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", resp.StatusCode)
	}
}

func TestItemValidation(t *testing.T) {
	srv, _ := newItemsServer(t)
	base := srv.URL + "/api/v1.0/items"

	cases := map[string]struct {
		body string
		want string
	}{
		"missing name":   {`{"price":1}`, "Field 'Name' is required"},
		"invalid json":   {`{broken`, "Invalid JSON body"},
		"negative price": {`{"name":"x","price":-5}`, "Field 'Price' failed validation: gte"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, base, tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			if body["error"] != tc.want {
				t.Fatalf("error = %v, want %q", body["error"], tc.want)
			}
		})
	}
}

func TestItemBadID(t *testing.T) {
	srv, _ := newItemsServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/v1.0/items/banana", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestItemListActiveOnly(t *testing.T) {
	srv, repo := newItemsServer(t)
	base := srv.URL + "/api/v1.0/items"

	repo.items[10] = domain.Item{ID: 10, Name: "dormant", IsActive: false}
	repo.items[11] = domain.Item{ID: 11, Name: "live", IsActive: true}

	req, _ := http.NewRequest(http.MethodGet, base+"?active_only=true", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()

	var items []domain.Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Name != "live" {
		t.Fatalf("active_only list = %+v", items)
	}
}

func TestDeleteMissingItem(t *testing.T) {
	srv, _ := newItemsServer(t)

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/api/v1.0/items/42", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
