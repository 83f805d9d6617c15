package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/bookstore-api/internal/domain/book"
)

type bookRequest struct {
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	ISBN            string  `json:"isbn"`
	Price           float64 `json:"price"`
	StockQuantity   int     `json:"stockQuantity"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Publisher       string  `json:"publisher"`
	PublicationYear int     `json:"publicationYear"`
}

type bookResponse struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	ISBN            string  `json:"isbn"`
	Price           float64 `json:"price"`
	StockQuantity   int     `json:"stockQuantity"`
	Description     string  `json:"description,omitempty"`
	Category        string  `json:"category,omitempty"`
	Publisher       string  `json:"publisher,omitempty"`
	PublicationYear int     `json:"publicationYear,omitempty"`
}

func (r *bookRequest) validate() string {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return "title is required"
	case strings.TrimSpace(r.Author) == "":
		return "author is required"
	case strings.TrimSpace(r.ISBN) == "":
		return "isbn is required"
	case r.Price < 0:
		return "price must not be negative"
	case r.StockQuantity < 0:
		return "stockQuantity must not be negative"
	}
	return ""
}

func (r *bookRequest) toDomain() *book.Book {
	return &book.Book{
		Title:           strings.TrimSpace(r.Title),
		Author:          strings.TrimSpace(r.Author),
		ISBN:            strings.TrimSpace(r.ISBN),
		Price:           decimal.NewFromFloat(r.Price),
		StockQuantity:   r.StockQuantity,
		Description:     r.Description,
		Category:        r.Category,
		Publisher:       r.Publisher,
		PublicationYear: r.PublicationYear,
	}
}

func toBookResponse(b *book.Book) bookResponse {
	return bookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		Price:           b.Price.InexactFloat64(),
		StockQuantity:   b.StockQuantity,
		Description:     b.Description,
		Category:        b.Category,
		Publisher:       b.Publisher,
		PublicationYear: b.PublicationYear,
	}
}

func toBookResponses(books []book.Book) []bookResponse {
	out := make([]bookResponse, len(books))
	for i := range books {
		out[i] = toBookResponse(&books[i])
	}
	return out
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.List(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponses(books))
}

func (h *Handler) listAvailableBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.ListAvailable(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponses(books))
}

func (h *Handler) searchBooksByTitle(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title query parameter is required")
		return
	}
	books, err := h.books.SearchByTitle(r.Context(), title)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponses(books))
}

func (h *Handler) searchBooksByAuthor(w http.ResponseWriter, r *http.Request) {
	author := r.URL.Query().Get("author")
	if author == "" {
		writeError(w, http.StatusBadRequest, "author query parameter is required")
		return
	}
	books, err := h.books.SearchByAuthor(r.Context(), author)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponses(books))
}

func (h *Handler) listBooksByCategory(w http.ResponseWriter, r *http.Request) {
	books, err := h.books.ListByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponses(books))
}

func (h *Handler) getBookByISBN(w http.ResponseWriter, r *http.Request) {
	b, err := h.books.GetByISBN(r.Context(), chi.URLParam(r, "isbn"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(b))
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	b, err := h.books.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(b))
}

func (h *Handler) createBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	created, err := h.books.Create(r.Context(), req.toDomain())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBookResponse(created))
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	updated, err := h.books.Update(r.Context(), chi.URLParam(r, "id"), req.toDomain())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(updated))
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.books.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adjustBookStock(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("quantity")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "quantity query parameter is required")
		return
	}
	delta, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "quantity must be an integer")
		return
	}
	b, err := h.books.AdjustStock(r.Context(), chi.URLParam(r, "id"), delta)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookResponse(b))
}
