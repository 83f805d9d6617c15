package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/bookstore-api/internal/domain/book"
	"github.com/xenking/bookstore-api/internal/domain/customer"
	"github.com/xenking/bookstore-api/internal/domain/order"
)

// errorResponse is the JSON error envelope for every failed request.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondError maps a domain error onto an HTTP status. Unrecognized errors
// are logged and hidden behind a plain 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case isDuplicate(err):
		writeError(w, http.StatusConflict, err.Error())
	case isInsufficientStock(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case isConflictingState(err):
		writeError(w, http.StatusConflict, err.Error())
	case isBadOrderInput(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, book.ErrNotFound) ||
		errors.Is(err, customer.ErrNotFound) ||
		errors.Is(err, order.ErrNotFound)
}

func isDuplicate(err error) bool {
	var (
		isbnErr  *book.DuplicateISBNError
		emailErr *customer.DuplicateEmailError
	)
	return errors.As(err, &isbnErr) || errors.As(err, &emailErr)
}

func isInsufficientStock(err error) bool {
	var stockErr *book.InsufficientStockError
	return errors.As(err, &stockErr)
}

func isConflictingState(err error) bool {
	var transitionErr *order.InvalidTransitionError
	return errors.Is(err, order.ErrCancelDelivered) ||
		errors.Is(err, order.ErrAlreadyCancelled) ||
		errors.Is(err, order.ErrCancelViaUpdate) ||
		errors.As(err, &transitionErr)
}

func isBadOrderInput(err error) bool {
	var qtyErr *order.InvalidQuantityError
	return errors.Is(err, order.ErrEmptyItems) || errors.As(err, &qtyErr)
}
