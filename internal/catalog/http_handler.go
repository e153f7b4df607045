package catalog

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"librarium/internal/entity"
	"librarium/internal/httpx"
	"librarium/internal/platform/openlibrary"
	"librarium/internal/store"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type AddBookReq struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	ISBN        string   `json:"isbn" validate:"omitempty,isbn"`
	Rating      int      `json:"rating" validate:"omitempty,min=1,max=5"`
	Status      string   `json:"status" validate:"omitempty,oneof=Read Unread Reading"`
	DateAdded   string   `json:"date_added"`
	Collections []string `json:"collections"`
	// CoverData is a base64-encoded uploaded image; when present it is
	// normalized and embedded instead of any external cover URL.
	CoverData string `json:"cover_data"`
}

// AddBook handles POST /api/books.
func (h *HTTPHandler) AddBook(w http.ResponseWriter, r *http.Request) {
	var req AddBookReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	in := AddBookInput{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Rating:      req.Rating,
		Status:      entity.BookStatus(req.Status),
		Collections: req.Collections,
	}
	if req.DateAdded != "" {
		d, err := entity.ParseDate(req.DateAdded)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "date_added must be YYYY-MM-DD", nil)
			return
		}
		in.DateAdded = d
	}
	if req.CoverData != "" {
		data, err := base64.StdEncoding.DecodeString(req.CoverData)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "cover_data must be base64", nil)
			return
		}
		in.CoverData = data
	}

	book, err := h.service.AddBook(r.Context(), httpx.UsernameFrom(r), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSONCreated(w, book)
}

// ListBooks handles GET /api/books with optional search, status and
// collection query filters.
func (h *HTTPHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{
		Search:     q.Get("search"),
		Status:     q.Get("status"),
		Collection: q.Get("collection"),
	}

	books, err := h.service.ListBooks(r.Context(), httpx.UsernameFrom(r), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSONSuccess(w, books, map[string]any{"total": len(books)})
}

// GetBook handles GET /api/books/{id}.
func (h *HTTPHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.GetBook(r.Context(), httpx.UsernameFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSONSuccess(w, book, nil)
}

// RemoveBook handles DELETE /api/books/{id}.
func (h *HTTPHandler) RemoveBook(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveBook(r.Context(), httpx.UsernameFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSONNoContent(w)
}

// LookupISBN handles GET /api/books/lookup/{isbn}, the form-autofill hook.
func (h *HTTPHandler) LookupISBN(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.LookupISBN(r.Context(), chi.URLParam(r, "isbn"))
	switch {
	case err == nil:
		httpx.JSONSuccess(w, data, nil)
	case errors.Is(err, openlibrary.ErrNoRecord):
		httpx.JSONError(w, http.StatusNotFound, "NO_RECORD", "No metadata found for ISBN", nil)
	case errors.Is(err, ErrLookupUnavailable):
		httpx.JSONError(w, http.StatusServiceUnavailable, "LOOKUP_DISABLED", "Metadata lookup is disabled", nil)
	default:
		httpx.JSONError(w, http.StatusBadGateway, "LOOKUP_FAILED", "Metadata lookup failed", nil)
	}
}

type CreateCollectionReq struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CreateCollection handles POST /api/collections.
func (h *HTTPHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CreateCollectionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	err := h.service.CreateCollection(r.Context(), httpx.UsernameFrom(r), req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSONCreated(w, map[string]any{"name": req.Name})
}

// ListCollections handles GET /api/collections.
func (h *HTTPHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.ListCollections(r.Context(), httpx.UsernameFrom(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSONSuccess(w, views, nil)
}

// Statistics handles GET /api/stats.
func (h *HTTPHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context(), httpx.UsernameFrom(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSONSuccess(w, stats, nil)
}

// Dashboard handles GET /api/dashboard.
func (h *HTTPHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.DashboardSummary(r.Context(), httpx.UsernameFrom(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSONSuccess(w, dash, nil)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, ErrNotFound), errors.Is(err, store.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrAlreadyExists):
		httpx.JSONError(w, http.StatusConflict, "ALREADY_EXISTS", err.Error(), nil)
	case errors.Is(err, store.ErrPersistence):
		httpx.JSONError(w, http.StatusInternalServerError, "PERSISTENCE_ERROR", "Could not persist catalog", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
