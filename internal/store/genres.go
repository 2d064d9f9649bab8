package store

import (
	"context"

	"bookstore-service/internal/models"
)

// ListGenres retrieves all genres
func (s *Store) ListGenres(ctx context.Context) ([]models.Genre, error) {
	genres := []models.Genre{}
	err := s.db.SelectContext(ctx, &genres, "SELECT id, name FROM genres ORDER BY id")
	return genres, err
}

// GetGenreByID retrieves a genre by ID
func (s *Store) GetGenreByID(ctx context.Context, id int64) (*models.Genre, error) {
	var genre models.Genre
	if err := s.db.GetContext(ctx, &genre, "SELECT id, name FROM genres WHERE id = $1", id); err != nil {
		return nil, translateError(err)
	}
	return &genre, nil
}

// CreateGenre inserts a genre
func (s *Store) CreateGenre(ctx context.Context, genre *models.Genre) error {
	err := s.db.GetContext(ctx, &genre.ID,
		"INSERT INTO genres (name) VALUES ($1) RETURNING id", genre.Name)
	return translateError(err)
}

// UpdateGenre renames a genre
func (s *Store) UpdateGenre(ctx context.Context, genre *models.Genre) error {
	res, err := s.db.ExecContext(ctx, "UPDATE genres SET name = $1 WHERE id = $2", genre.Name, genre.ID)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(res.RowsAffected())
}

// DeleteGenre removes a genre; books in it keep existing without a genre
func (s *Store) DeleteGenre(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM genres WHERE id = $1", id)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(res.RowsAffected())
}
