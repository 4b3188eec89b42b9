package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bookbuddy/bookbuddy-go/internal/middleware"
	"github.com/bookbuddy/bookbuddy-go/internal/model"
	"github.com/bookbuddy/bookbuddy-go/internal/service"
)

// BookHandler handles HTTP requests for book operations. The ownership scope
// for every operation is the identity resolved by the auth middleware,
// never an id supplied by the request.
type BookHandler struct {
	books *service.BookService
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(books *service.BookService) *BookHandler {
	return &BookHandler{books: books}
}

func ownerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return 0, false
	}
	return userID, true
}

func bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "book_id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid book id"))
		return 0, false
	}
	return id, true
}

// HandleCreate handles POST /api/v1/books requests.
func (h *BookHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req model.CreateBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.books.AddBook(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleList handles GET /api/v1/books requests with optional skip/limit
// query parameters.
func (h *BookHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	resp, err := h.books.ListBooks(r.Context(), userID, skip, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /api/v1/books/{book_id} requests.
func (h *BookHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	resp, err := h.books.GetBook(r.Context(), id, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleSearch handles GET /api/v1/books/search?q= requests.
func (h *BookHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	books, err := h.books.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bookList(books))
}

// HandleListByStatus handles GET /api/v1/books/status/{status} requests.
func (h *BookHandler) HandleListByStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	books, err := h.books.ListByStatus(r.Context(), userID, chi.URLParam(r, "status"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bookList(books))
}

// HandleListByGenre handles GET /api/v1/books/genre/{genre} requests.
func (h *BookHandler) HandleListByGenre(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	books, err := h.books.ListByGenre(r.Context(), userID, chi.URLParam(r, "genre"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bookList(books))
}

// HandleStats handles GET /api/v1/books/stats requests.
func (h *BookHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	resp, err := h.books.Statistics(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdate handles PUT /api/v1/books/{book_id} requests.
func (h *BookHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	var req model.UpdateBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.books.UpdateBook(r.Context(), id, userID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdateStatus handles PATCH /api/v1/books/{book_id}/status requests.
func (h *BookHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	var req model.UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.books.UpdateStatus(r.Context(), id, userID, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDelete handles DELETE /api/v1/books/{book_id} requests.
func (h *BookHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := bookID(w, r)
	if !ok {
		return
	}

	if err := h.books.DeleteBook(r.Context(), id, userID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "book deleted"})
}

// HandleDeleteAll handles DELETE /api/v1/books requests.
func (h *BookHandler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	deleted, err := h.books.DeleteAllBooks(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.DeleteAllResponse{Deleted: deleted})
}

// bookList keeps empty results as [] rather than null in JSON.
func bookList(books []model.BookResponse) []model.BookResponse {
	if books == nil {
		return []model.BookResponse{}
	}
	return books
}
