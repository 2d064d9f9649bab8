package store

import (
	"context"
	"fmt"

	"bookstore-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const bookColumns = "id, title, author, genre_id, price, quantity, created_at, updated_at"

// ListBooks retrieves all books
func (s *Store) ListBooks(ctx context.Context) ([]models.Book, error) {
	books := []models.Book{}
	err := s.db.SelectContext(ctx, &books, "SELECT "+bookColumns+" FROM books ORDER BY id")
	return books, err
}

// GetBookByID retrieves a book by ID
func (s *Store) GetBookByID(ctx context.Context, id int64) (*models.Book, error) {
	var book models.Book
	err := s.db.GetContext(ctx, &book, "SELECT "+bookColumns+" FROM books WHERE id = $1", id)
	if err != nil {
		return nil, translateError(err)
	}
	return &book, nil
}

// GetBooksByIDs retrieves multiple books by IDs
func (s *Store) GetBooksByIDs(ctx context.Context, ids []int64) ([]models.Book, error) {
	if len(ids) == 0 {
		return []models.Book{}, nil
	}

	query, args, err := sqlx.In("SELECT "+bookColumns+" FROM books WHERE id IN (?) ORDER BY id", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var books []models.Book
	err = s.db.SelectContext(ctx, &books, query, args...)
	return books, err
}

// CreateBook inserts a book and fills its generated fields
func (s *Store) CreateBook(ctx context.Context, book *models.Book) error {
	query := `
		INSERT INTO books (title, author, genre_id, price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		book.Title, book.Author, book.GenreID, book.Price, book.Quantity).
		Scan(&book.ID, &book.CreatedAt, &book.UpdatedAt)
	return translateError(err)
}

// UpdateBook overwrites the mutable fields of a book
func (s *Store) UpdateBook(ctx context.Context, book *models.Book) error {
	query := `
		UPDATE books
		SET title = $1, author = $2, genre_id = $3, price = $4, quantity = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		book.Title, book.Author, book.GenreID, book.Price, book.Quantity, book.ID).
		Scan(&book.CreatedAt, &book.UpdatedAt)
	return translateError(err)
}

// DeleteBook removes a book that no order references
func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM books WHERE id = $1", id)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(res.RowsAffected())
}

func expectAffected(n int64, err error) error {
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
