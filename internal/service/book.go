package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookbuddy/bookbuddy-go/internal/model"
	"github.com/bookbuddy/bookbuddy-go/internal/repository"
)

const (
	maxTitleLen  = 200
	maxAuthorLen = 100
	maxNotesLen  = 1000

	defaultListLimit = 100
	maxListLimit     = 500
)

// BookService handles book lifecycle business rules. Every operation is
// scoped to the owning user resolved by the auth middleware.
type BookService struct {
	books *repository.BookRepository
}

// NewBookService creates a new BookService.
func NewBookService(books *repository.BookRepository) *BookService {
	return &BookService{books: books}
}

// AddBook validates and creates a book. An end date on a not-completed book
// wins over the declared status: the book is stored as Completed.
func (s *BookService) AddBook(ctx context.Context, userID int64, req model.CreateBookRequest) (model.BookResponse, error) {
	if err := validateTitle(req.Title); err != nil {
		return model.BookResponse{}, err
	}
	if err := validateAuthor(req.Author); err != nil {
		return model.BookResponse{}, err
	}
	if err := validateNotes(req.Notes); err != nil {
		return model.BookResponse{}, err
	}

	genre, err := model.ParseGenre(req.Genre)
	if err != nil {
		return model.BookResponse{}, validationError(err.Error())
	}

	status := model.StatusToRead
	if req.Status != "" {
		status, err = model.ParseStatus(req.Status)
		if err != nil {
			return model.BookResponse{}, validationError(err.Error())
		}
	}

	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return model.BookResponse{}, ErrEndBeforeStart
	}

	if req.EndDate != nil && status != model.StatusCompleted {
		status = model.StatusCompleted
	}

	if err := validateRating(req.Rating); err != nil {
		return model.BookResponse{}, err
	}

	book := &model.Book{
		UserID:    userID,
		Title:     req.Title,
		Author:    req.Author,
		Genre:     genre,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    status,
		Notes:     req.Notes,
		Rating:    req.Rating,
	}

	if err := s.books.Create(ctx, book); err != nil {
		return model.BookResponse{}, err
	}

	created, err := s.books.GetByIDAndUser(ctx, book.ID, userID)
	if err != nil {
		return model.BookResponse{}, err
	}

	return model.ToBookResponse(created), nil
}

// GetBook retrieves a single book scoped to its owner.
func (s *BookService) GetBook(ctx context.Context, bookID, userID int64) (model.BookResponse, error) {
	book, err := s.getOwned(ctx, bookID, userID)
	if err != nil {
		return model.BookResponse{}, err
	}
	return model.ToBookResponse(book), nil
}

// ListBooks returns a page of the user's books along with the unpaginated total.
func (s *BookService) ListBooks(ctx context.Context, userID int64, skip, limit int) (model.BookListResponse, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	books, err := s.books.ListByUser(ctx, userID, skip, limit)
	if err != nil {
		return model.BookListResponse{}, err
	}

	total, err := s.books.CountByUser(ctx, userID)
	if err != nil {
		return model.BookListResponse{}, err
	}

	return model.BookListResponse{
		Total: total,
		Books: model.ToBookResponses(books),
	}, nil
}

// ListByStatus returns all of the user's books with the given status.
func (s *BookService) ListByStatus(ctx context.Context, userID int64, rawStatus string) ([]model.BookResponse, error) {
	status, err := model.ParseStatus(rawStatus)
	if err != nil {
		return nil, validationError(err.Error())
	}

	books, err := s.books.ListByStatus(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	return model.ToBookResponses(books), nil
}

// ListByGenre returns all of the user's books with the given genre.
func (s *BookService) ListByGenre(ctx context.Context, userID int64, rawGenre string) ([]model.BookResponse, error) {
	genre, err := model.ParseGenre(rawGenre)
	if err != nil {
		return nil, validationError(err.Error())
	}

	books, err := s.books.ListByGenre(ctx, userID, genre)
	if err != nil {
		return nil, err
	}
	return model.ToBookResponses(books), nil
}

// Search returns the user's books whose title or author contains the term.
func (s *BookService) Search(ctx context.Context, userID int64, term string) ([]model.BookResponse, error) {
	if len(term) < 2 {
		return nil, ErrSearchTermTooShort
	}

	books, err := s.books.Search(ctx, userID, term)
	if err != nil {
		return nil, err
	}
	return model.ToBookResponses(books), nil
}

// UpdateBook applies a partial update. The date invariant is re-validated
// against the effective dates: the patch value where present, the stored
// value otherwise.
func (s *BookService) UpdateBook(ctx context.Context, bookID, userID int64, req model.UpdateBookRequest) (model.BookResponse, error) {
	existing, err := s.getOwned(ctx, bookID, userID)
	if err != nil {
		return model.BookResponse{}, err
	}

	patch := model.BookPatch{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Rating:    req.Rating,
	}

	if req.Title != nil {
		if err := validateTitle(*req.Title); err != nil {
			return model.BookResponse{}, err
		}
		patch.Title = req.Title
	}
	if req.Author != nil {
		if err := validateAuthor(*req.Author); err != nil {
			return model.BookResponse{}, err
		}
		patch.Author = req.Author
	}
	if req.Genre != nil {
		genre, err := model.ParseGenre(*req.Genre)
		if err != nil {
			return model.BookResponse{}, validationError(err.Error())
		}
		patch.Genre = &genre
	}
	if req.Status != nil {
		status, err := model.ParseStatus(*req.Status)
		if err != nil {
			return model.BookResponse{}, validationError(err.Error())
		}
		patch.Status = &status
	}
	if req.Notes != nil {
		if err := validateNotes(*req.Notes); err != nil {
			return model.BookResponse{}, err
		}
		patch.Notes = req.Notes
	}

	start := existing.StartDate
	if req.StartDate != nil {
		start = req.StartDate
	}
	end := existing.EndDate
	if req.EndDate != nil {
		end = req.EndDate
	}
	if start != nil && end != nil && end.Before(*start) {
		return model.BookResponse{}, ErrEndBeforeStart
	}

	if err := validateRating(req.Rating); err != nil {
		return model.BookResponse{}, err
	}

	if err := s.books.Update(ctx, bookID, userID, patch); err != nil {
		return model.BookResponse{}, err
	}

	updated, err := s.getOwned(ctx, bookID, userID)
	if err != nil {
		return model.BookResponse{}, err
	}
	return model.ToBookResponse(updated), nil
}

// UpdateStatus sets a book's reading status. Entering Reading sets the start
// date to today only when it is unset; entering Completed sets the end date
// to today only when it is unset. Explicit dates are never overwritten.
func (s *BookService) UpdateStatus(ctx context.Context, bookID, userID int64, rawStatus string) (model.BookResponse, error) {
	status, err := model.ParseStatus(rawStatus)
	if err != nil {
		return model.BookResponse{}, validationError(err.Error())
	}

	book, err := s.getOwned(ctx, bookID, userID)
	if err != nil {
		return model.BookResponse{}, err
	}

	patch := model.BookPatch{Status: &status}

	if status == model.StatusReading && book.StartDate == nil {
		today := model.Today()
		patch.StartDate = &today
	}
	if status == model.StatusCompleted && book.EndDate == nil {
		today := model.Today()
		patch.EndDate = &today
	}

	if err := s.books.Update(ctx, bookID, userID, patch); err != nil {
		return model.BookResponse{}, err
	}

	updated, err := s.getOwned(ctx, bookID, userID)
	if err != nil {
		return model.BookResponse{}, err
	}
	return model.ToBookResponse(updated), nil
}

// MarkAsReading marks a book as currently being read.
func (s *BookService) MarkAsReading(ctx context.Context, bookID, userID int64) (model.BookResponse, error) {
	return s.UpdateStatus(ctx, bookID, userID, string(model.StatusReading))
}

// MarkAsCompleted marks a book as finished.
func (s *BookService) MarkAsCompleted(ctx context.Context, bookID, userID int64) (model.BookResponse, error) {
	return s.UpdateStatus(ctx, bookID, userID, string(model.StatusCompleted))
}

// CurrentlyReading returns all books being read.
func (s *BookService) CurrentlyReading(ctx context.Context, userID int64) ([]model.BookResponse, error) {
	return s.ListByStatus(ctx, userID, string(model.StatusReading))
}

// CompletedBooks returns all finished books.
func (s *BookService) CompletedBooks(ctx context.Context, userID int64) ([]model.BookResponse, error) {
	return s.ListByStatus(ctx, userID, string(model.StatusCompleted))
}

// ToReadBooks returns all books on the to-read list.
func (s *BookService) ToReadBooks(ctx context.Context, userID int64) ([]model.BookResponse, error) {
	return s.ListByStatus(ctx, userID, string(model.StatusToRead))
}

// DeleteBook removes a single book.
func (s *BookService) DeleteBook(ctx context.Context, bookID, userID int64) error {
	err := s.books.Delete(ctx, bookID, userID)
	if errors.Is(err, repository.ErrBookNotFound) {
		return ErrBookNotFound
	}
	return err
}

// DeleteAllBooks removes every book the user owns and returns the count.
// Deleting from an empty collection is not an error.
func (s *BookService) DeleteAllBooks(ctx context.Context, userID int64) (int, error) {
	return s.books.DeleteAllByUser(ctx, userID)
}

// Statistics aggregates the user's collection: totals, per-status counts,
// and a genre breakdown covering only genres actually present.
func (s *BookService) Statistics(ctx context.Context, userID int64) (model.BookStats, error) {
	statusCounts, err := s.books.CountsByStatus(ctx, userID)
	if err != nil {
		return model.BookStats{}, err
	}

	genreCounts, err := s.books.CountsByGenre(ctx, userID)
	if err != nil {
		return model.BookStats{}, err
	}

	total := 0
	for _, c := range statusCounts {
		total += c
	}

	return model.BookStats{
		TotalBooks: total,
		ToRead:     statusCounts[model.StatusToRead],
		Reading:    statusCounts[model.StatusReading],
		Completed:  statusCounts[model.StatusCompleted],
		Genres:     genreCounts,
	}, nil
}

func (s *BookService) getOwned(ctx context.Context, bookID, userID int64) (*model.Book, error) {
	book, err := s.books.GetByIDAndUser(ctx, bookID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

func validateTitle(title string) error {
	if title == "" || len(title) > maxTitleLen {
		return validationError(fmt.Sprintf("title must be between 1 and %d characters", maxTitleLen))
	}
	return nil
}

func validateAuthor(author string) error {
	if author == "" || len(author) > maxAuthorLen {
		return validationError(fmt.Sprintf("author must be between 1 and %d characters", maxAuthorLen))
	}
	return nil
}

func validateNotes(notes string) error {
	if len(notes) > maxNotesLen {
		return validationError(fmt.Sprintf("notes must be at most %d characters", maxNotesLen))
	}
	return nil
}

func validateRating(rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return ErrInvalidRating
	}
	return nil
}
