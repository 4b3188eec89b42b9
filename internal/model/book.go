package model

import (
	"fmt"
	"time"
)

// Status is a book's reading status.
type Status string

const (
	StatusToRead    Status = "To Read"
	StatusReading   Status = "Reading"
	StatusCompleted Status = "Completed"
)

// ParseStatus converts a raw string into a Status, rejecting unknown values.
// Status strings cross this boundary exactly once; everything past the
// handlers works with the typed value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusToRead, StatusReading, StatusCompleted:
		return Status(s), nil
	default:
		return "", fmt.Errorf("invalid status %q: must be one of %q, %q, %q", s, StatusToRead, StatusReading, StatusCompleted)
	}
}

// Genre is a book's genre, drawn from a fixed set.
type Genre string

const (
	GenreFiction    Genre = "Fiction"
	GenreNonFiction Genre = "Non-Fiction"
	GenreMystery    Genre = "Mystery"
	GenreSciFi      Genre = "Sci-Fi"
	GenreBiography  Genre = "Biography"
	GenreFantasy    Genre = "Fantasy"
	GenreRomance    Genre = "Romance"
	GenreThriller   Genre = "Thriller"
	GenreSelfHelp   Genre = "Self-Help"
	GenreHistory    Genre = "History"
	GenreOther      Genre = "Other"
)

// ParseGenre converts a raw string into a Genre, rejecting unknown values.
func ParseGenre(s string) (Genre, error) {
	switch Genre(s) {
	case GenreFiction, GenreNonFiction, GenreMystery, GenreSciFi, GenreBiography,
		GenreFantasy, GenreRomance, GenreThriller, GenreSelfHelp, GenreHistory, GenreOther:
		return Genre(s), nil
	default:
		return "", fmt.Errorf("invalid genre %q", s)
	}
}

// Book represents a reading-tracker entry in the database.
type Book struct {
	ID        int64
	UserID    int64
	Title     string
	Author    string
	Genre     Genre
	StartDate *Date
	EndDate   *Date
	Status    Status
	Notes     string
	Rating    *int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateBookRequest represents an add-book request.
type CreateBookRequest struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	Genre     string `json:"genre"`
	StartDate *Date  `json:"start_date"`
	EndDate   *Date  `json:"end_date"`
	Status    string `json:"status"`
	Notes     string `json:"notes"`
	Rating    *int   `json:"rating"`
}

// UpdateBookRequest represents a partial book update. Nil fields are left
// untouched; there is no way to clear a field through this request.
type UpdateBookRequest struct {
	Title     *string `json:"title"`
	Author    *string `json:"author"`
	Genre     *string `json:"genre"`
	StartDate *Date   `json:"start_date"`
	EndDate   *Date   `json:"end_date"`
	Status    *string `json:"status"`
	Notes     *string `json:"notes"`
	Rating    *int    `json:"rating"`
}

// BookPatch is the typed, validated form of an update applied by the
// repository. Only non-nil fields are written.
type BookPatch struct {
	Title     *string
	Author    *string
	Genre     *Genre
	StartDate *Date
	EndDate   *Date
	Status    *Status
	Notes     *string
	Rating    *int
}

// UpdateStatusRequest represents a status-only update.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// BookResponse represents book data sent back to the client.
type BookResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Genre     Genre     `json:"genre"`
	StartDate *Date     `json:"start_date"`
	EndDate   *Date     `json:"end_date"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	Rating    *int      `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookListResponse is a paginated book listing with the unpaginated total.
type BookListResponse struct {
	Total int            `json:"total"`
	Books []BookResponse `json:"books"`
}

// BookStats represents reading statistics for one user's collection.
type BookStats struct {
	TotalBooks int           `json:"total_books"`
	ToRead     int           `json:"to_read"`
	Reading    int           `json:"reading"`
	Completed  int           `json:"completed"`
	Genres     map[Genre]int `json:"genres"`
}

// DeleteAllResponse reports the outcome of a bulk delete.
type DeleteAllResponse struct {
	Deleted int `json:"deleted"`
}

// ToBookResponse converts a Book to its API representation.
func ToBookResponse(b *Book) BookResponse {
	return BookResponse{
		ID:        b.ID,
		UserID:    b.UserID,
		Title:     b.Title,
		Author:    b.Author,
		Genre:     b.Genre,
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
		Status:    b.Status,
		Notes:     b.Notes,
		Rating:    b.Rating,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// ToBookResponses converts a slice of Books to API representations.
func ToBookResponses(books []Book) []BookResponse {
	result := make([]BookResponse, len(books))
	for i := range books {
		result[i] = ToBookResponse(&books[i])
	}
	return result
}
