package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"beacon/internal/core/domain"
	"beacon/internal/core/services"
	"beacon/pkg/logging"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ItemHandler is the CRUD surface over the item service.
type ItemHandler struct {
	items *services.ItemService
}

func NewItemHandler(items *services.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// List handles GET /api/v1.0/items?active_only=true.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active_only") == "true"

	items, err := h.items.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to list items")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Get handles GET /api/v1.0/items/{id}.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	item, err := h.items.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			writeError(w, r, http.StatusNotFound, "The requested item doesn't exist!")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to get item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Create handles POST /api/v1.0/items.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.ItemCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	item, err := h.items.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to create item")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// Update handles PUT /api/v1.0/items/{id}. Absent fields keep their value.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	var in domain.ItemUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := validate.Struct(in); err != nil {
		writeError(w, r, http.StatusBadRequest, validationMessage(err))
		return
	}

	item, err := h.items.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			writeError(w, r, http.StatusNotFound, "The requested item doesn't exist!")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to update item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/v1.0/items/{id}.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	deleted, err := h.items.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if !deleted {
		writeError(w, r, http.StatusNotFound, "The requested item doesn't exist!")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Item deleted successfully", "id": id})
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "Invalid item id")
		return 0, false
	}
	return id, true
}

// validationMessage flattens the first field error into a client-facing string.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Tag() == "required" {
			return "Field '" + fe.Field() + "' is required"
		}
		return "Field '" + fe.Field() + "' failed validation: " + fe.Tag()
	}
	return "Invalid request body"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status >= 500 {
		log := logging.FromContext(r.Context())
		log.ErrorContext(r.Context(), "items handler - request failed", "status", status, "reason", msg)
	}
	writeJSON(w, status, map[string]any{"error": msg})
}
