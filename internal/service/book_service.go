package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"bookstore-service/internal/apperr"
	"bookstore-service/internal/models"
	"bookstore-service/internal/store"
	"bookstore-service/internal/util"

	"go.uber.org/zap"
)

// Upper bounds of book fields. Quantity is stored as a 32-bit INTEGER.
const (
	MaxBookPrice    int64 = math.MaxInt32
	MaxBookQuantity       = math.MaxInt32
)

// BookService manages the catalog
type BookService struct {
	books  BookRepository
	genres GenreRepository
	cache  StockCache
	logger *zap.Logger
}

func NewBookService(books BookRepository, genres GenreRepository, cache StockCache) *BookService {
	return &BookService{
		books:  books,
		genres: genres,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// BookRequest is the writable part of a book
type BookRequest struct {
	Title    string `json:"title" binding:"required"`
	Author   string `json:"author"`
	GenreID  *int64 `json:"genreId"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// StockLevel is the available quantity of a book
type StockLevel struct {
	BookID   int64 `json:"bookId"`
	Quantity int   `json:"quantity"`
	Cached   bool  `json:"cached"`
}

func (s *BookService) ListBooks(ctx context.Context) ([]models.Book, error) {
	books, err := s.books.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}

func (s *BookService) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	book, err := s.books.GetBookByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, bookNotFound(id)
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return book, nil
}

// GetStock serves the stock level from the cache, falling back to the
// database on a miss or cache error and repopulating the cache.
func (s *BookService) GetStock(ctx context.Context, id int64) (*StockLevel, error) {
	quantity, ok, err := s.cache.GetStock(ctx, id)
	if err != nil {
		util.StockCacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("Stock cache lookup failed, falling back to DB", zap.Int64("book_id", id), zap.Error(err))
	} else if ok {
		util.StockCacheLookups.WithLabelValues("hit").Inc()
		return &StockLevel{BookID: id, Quantity: quantity, Cached: true}, nil
	} else {
		util.StockCacheLookups.WithLabelValues("miss").Inc()
	}

	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mirrorStock(ctx, book)
	return &StockLevel{BookID: id, Quantity: book.Quantity}, nil
}

func (s *BookService) CreateBook(ctx context.Context, req *BookRequest) (*models.Book, error) {
	book := &models.Book{}
	if err := s.apply(ctx, book, req); err != nil {
		return nil, err
	}
	if err := s.books.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	s.mirrorStock(ctx, book)
	s.logger.Info("Book created", zap.Int64("book_id", book.ID), zap.String("title", book.Title))
	return book, nil
}

func (s *BookService) UpdateBook(ctx context.Context, id int64, req *BookRequest) (*models.Book, error) {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, book, req); err != nil {
		return nil, err
	}
	if err := s.books.UpdateBook(ctx, book); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, bookNotFound(id)
		}
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	s.mirrorStock(ctx, book)
	s.logger.Info("Book updated", zap.Int64("book_id", book.ID))
	return book, nil
}

func (s *BookService) DeleteBook(ctx context.Context, id int64) error {
	if err := s.books.DeleteBook(ctx, id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return bookNotFound(id)
		case errors.Is(err, store.ErrReferenced):
			return apperr.Wrap(apperr.KindBadRequest, err, fmt.Sprintf("Book with id: %d is part of existing orders", id))
		}
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if err := s.cache.DeleteStock(ctx, id); err != nil {
		s.logger.Warn("Failed to drop cached stock", zap.Int64("book_id", id), zap.Error(err))
	}
	s.logger.Info("Book deleted", zap.Int64("book_id", id))
	return nil
}

func (s *BookService) apply(ctx context.Context, book *models.Book, req *BookRequest) error {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return apperr.BadRequest("Book title must not be empty")
	}
	if req.Price < 0 {
		return apperr.BadRequest("Book price must not be negative")
	}
	if req.Price > MaxBookPrice {
		return apperr.BadRequest("Book price must not exceed %d", MaxBookPrice)
	}
	if req.Quantity < 0 {
		return apperr.BadRequest("Book quantity must not be negative")
	}
	if req.Quantity > MaxBookQuantity {
		return apperr.BadRequest("Book quantity must not exceed %d", MaxBookQuantity)
	}
	if req.GenreID != nil {
		if _, err := s.genres.GetGenreByID(ctx, *req.GenreID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return genreNotFound(*req.GenreID)
			}
			return fmt.Errorf("failed to get genre: %w", err)
		}
	}

	book.Title = title
	book.Author = strings.TrimSpace(req.Author)
	book.GenreID = req.GenreID
	book.Price = req.Price
	book.Quantity = req.Quantity
	return nil
}

func (s *BookService) mirrorStock(ctx context.Context, book *models.Book) {
	if err := s.cache.SetStock(ctx, book.ID, book.Quantity); err != nil {
		s.logger.Warn("Failed to cache stock", zap.Int64("book_id", book.ID), zap.Error(err))
	}
}

func bookNotFound(id int64) error {
	return apperr.NotFound("Book not found! Book with id: %d does not exist", id)
}
