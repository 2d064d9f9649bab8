package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookstore-service/internal/apperr"
	"bookstore-service/internal/models"
	"bookstore-service/internal/store"
	"bookstore-service/internal/util"

	"go.uber.org/zap"
)

// GenreService manages book genres
type GenreService struct {
	genres GenreRepository
	logger *zap.Logger
}

func NewGenreService(genres GenreRepository) *GenreService {
	return &GenreService{genres: genres, logger: util.GetLogger()}
}

// SaveGenre is the payload for creating or renaming a genre
type SaveGenre struct {
	GenreID   int64  `json:"genreId"`
	GenreName string `json:"genreName" binding:"required"`
}

func (s *GenreService) ListGenres(ctx context.Context) ([]models.Genre, error) {
	genres, err := s.genres.ListGenres(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	return genres, nil
}

func (s *GenreService) GetGenre(ctx context.Context, id int64) (*models.Genre, error) {
	genre, err := s.genres.GetGenreByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, genreNotFound(id)
		}
		return nil, fmt.Errorf("failed to get genre: %w", err)
	}
	return genre, nil
}

func (s *GenreService) CreateGenre(ctx context.Context, req *SaveGenre) (*models.Genre, error) {
	name, err := genreName(req)
	if err != nil {
		return nil, err
	}
	genre := &models.Genre{Name: name}
	if err := s.genres.CreateGenre(ctx, genre); err != nil {
		return nil, s.writeError(err, genre)
	}
	s.logger.Info("Genre created", zap.Int64("genre_id", genre.ID), zap.String("name", genre.Name))
	return genre, nil
}

// UpdateGenre renames the genre identified by req.GenreID
func (s *GenreService) UpdateGenre(ctx context.Context, req *SaveGenre) (*models.Genre, error) {
	name, err := genreName(req)
	if err != nil {
		return nil, err
	}
	genre := &models.Genre{ID: req.GenreID, Name: name}
	if err := s.genres.UpdateGenre(ctx, genre); err != nil {
		return nil, s.writeError(err, genre)
	}
	return genre, nil
}

func (s *GenreService) DeleteGenre(ctx context.Context, id int64) error {
	if err := s.genres.DeleteGenre(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return genreNotFound(id)
		}
		return fmt.Errorf("failed to delete genre: %w", err)
	}
	s.logger.Info("Genre deleted", zap.Int64("genre_id", id))
	return nil
}

func (s *GenreService) writeError(err error, genre *models.Genre) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return genreNotFound(genre.ID)
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Wrap(apperr.KindBadRequest, err, fmt.Sprintf("Genre %q already exists", genre.Name))
	}
	return fmt.Errorf("failed to save genre: %w", err)
}

func genreName(req *SaveGenre) (string, error) {
	name := strings.TrimSpace(req.GenreName)
	if name == "" {
		return "", apperr.BadRequest("Genre name must not be empty")
	}
	return name, nil
}

func genreNotFound(id int64) error {
	return apperr.NotFound("Genre not found! Genre with id: %d does not exist", id)
}
