package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/bookbuddy/bookbuddy-go/internal/model"
)

var ErrBookNotFound = errors.New("book not found")

const bookColumns = "id, user_id, title, author, genre, start_date, end_date, status, notes, rating, created_at, updated_at"

// BookRepository handles book persistence operations. Every query is scoped
// by user_id so a book id alone never resolves across users.
type BookRepository struct {
	db *sql.DB
}

// NewBookRepository creates a new BookRepository.
func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

// Create inserts a new book and sets the generated ID on the book struct.
func (r *BookRepository) Create(ctx context.Context, book *model.Book) error {
	query := `INSERT INTO books (user_id, title, author, genre, start_date, end_date, status, notes, rating)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		book.UserID,
		book.Title,
		book.Author,
		string(book.Genre),
		book.StartDate,
		book.EndDate,
		string(book.Status),
		nullString(book.Notes),
		book.Rating,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	book.ID = id
	return nil
}

// GetByIDAndUser retrieves a book by ID scoped to its owner.
func (r *BookRepository) GetByIDAndUser(ctx context.Context, id, userID int64) (*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ? AND user_id = ?`

	row := r.db.QueryRowContext(ctx, query, id, userID)
	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	return book, nil
}

// ListByUser retrieves a page of a user's books, oldest first.
func (r *BookRepository) ListByUser(ctx context.Context, userID int64, skip, limit int) ([]model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE user_id = ? ORDER BY id LIMIT ? OFFSET ?`
	return r.list(ctx, query, userID, limit, skip)
}

// CountByUser counts all books owned by a user.
func (r *BookRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}

// ListByStatus retrieves all of a user's books with the given status.
func (r *BookRepository) ListByStatus(ctx context.Context, userID int64, status model.Status) ([]model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE user_id = ? AND status = ? ORDER BY id`
	return r.list(ctx, query, userID, string(status))
}

// ListByGenre retrieves all of a user's books with the given genre.
func (r *BookRepository) ListByGenre(ctx context.Context, userID int64, genre model.Genre) ([]model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE user_id = ? AND genre = ? ORDER BY id`
	return r.list(ctx, query, userID, string(genre))
}

// Search retrieves a user's books whose title or author contains the term,
// case-insensitively. Lowering both sides keeps the behavior independent of
// column collation.
func (r *BookRepository) Search(ctx context.Context, userID int64, term string) ([]model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books
		WHERE user_id = ? AND (LOWER(title) LIKE ? OR LOWER(author) LIKE ?) ORDER BY id`

	pattern := "%" + strings.ToLower(term) + "%"
	return r.list(ctx, query, userID, pattern, pattern)
}

// Update applies a partial update scoped to the owner. Only non-nil patch
// fields are written. Existence is checked by the caller; a same-value write
// reports zero affected rows under MySQL, so the result is not inspected.
func (r *BookRepository) Update(ctx context.Context, id, userID int64, patch model.BookPatch) error {
	var sets []string
	var args []any

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Author != nil {
		sets = append(sets, "author = ?")
		args = append(args, *patch.Author)
	}
	if patch.Genre != nil {
		sets = append(sets, "genre = ?")
		args = append(args, string(*patch.Genre))
	}
	if patch.StartDate != nil {
		sets = append(sets, "start_date = ?")
		args = append(args, *patch.StartDate)
	}
	if patch.EndDate != nil {
		sets = append(sets, "end_date = ?")
		args = append(args, *patch.EndDate)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}
	if patch.Rating != nil {
		sets = append(sets, "rating = ?")
		args = append(args, *patch.Rating)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id, userID)
	query := `UPDATE books SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND user_id = ?`

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Delete removes a book scoped to the owner.
func (r *BookRepository) Delete(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}

// DeleteAllByUser removes every book owned by a user and returns the count.
func (r *BookRepository) DeleteAllByUser(ctx context.Context, userID int64) (int, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}

// CountsByStatus returns per-status book counts for a user.
func (r *BookRepository) CountsByStatus(ctx context.Context, userID int64) (map[model.Status]int, error) {
	query := `SELECT status, COUNT(*) FROM books WHERE user_id = ? GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[model.Status(status)] = count
	}

	return counts, rows.Err()
}

// CountsByGenre returns per-genre book counts for a user. Genres with no
// books do not appear.
func (r *BookRepository) CountsByGenre(ctx context.Context, userID int64) (map[model.Genre]int, error) {
	query := `SELECT genre, COUNT(*) FROM books WHERE user_id = ? GROUP BY genre`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.Genre]int)
	for rows.Next() {
		var genre string
		var count int
		if err := rows.Scan(&genre, &count); err != nil {
			return nil, err
		}
		counts[model.Genre(genre)] = count
	}

	return counts, rows.Err()
}

func (r *BookRepository) list(ctx context.Context, query string, args ...any) ([]model.Book, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *book)
	}

	return books, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*model.Book, error) {
	var (
		book      model.Book
		genre     string
		status    string
		startDate sql.Null[model.Date]
		endDate   sql.Null[model.Date]
		notes     sql.NullString
		rating    sql.NullInt64
	)

	err := row.Scan(
		&book.ID, &book.UserID, &book.Title, &book.Author, &genre,
		&startDate, &endDate, &status, &notes, &rating,
		&book.CreatedAt, &book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	book.Genre = model.Genre(genre)
	book.Status = model.Status(status)
	if startDate.Valid {
		d := startDate.V
		book.StartDate = &d
	}
	if endDate.Valid {
		d := endDate.V
		book.EndDate = &d
	}
	if notes.Valid {
		book.Notes = notes.String
	}
	if rating.Valid {
		v := int(rating.Int64)
		book.Rating = &v
	}

	return &book, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
