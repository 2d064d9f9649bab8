package service

import (
	"context"
	"fmt"

	"bookstore-service/internal/models"
	"bookstore-service/internal/util"

	"go.uber.org/zap"
)

// InventorySync keeps the stock cache in line with the database
type InventorySync struct {
	books  BookRepository
	cache  StockCache
	logger *zap.Logger
}

func NewInventorySync(books BookRepository, cache StockCache) *InventorySync {
	return &InventorySync{books: books, cache: cache, logger: util.GetLogger()}
}

// SyncAll copies every book's stock level into the cache
func (is *InventorySync) SyncAll(ctx context.Context) error {
	is.logger.Info("Starting stock sync to cache")

	books, err := is.books.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list books: %w", err)
	}
	if err := is.cache.SetStocks(ctx, stockMap(books)); err != nil {
		return fmt.Errorf("failed to cache stock: %w", err)
	}

	is.logger.Info("Stock sync completed", zap.Int("count", len(books)))
	return nil
}

// RefreshBooks re-reads the given books and caches their stock levels
func (is *InventorySync) RefreshBooks(ctx context.Context, ids []int64) error {
	books, err := is.books.GetBooksByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to get books: %w", err)
	}
	return is.cache.SetStocks(ctx, stockMap(books))
}

// HandleOrderPlaced refreshes the stock of the books an order took
func (is *InventorySync) HandleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	ctx, span := util.StartSpan(ctx, "InventorySync.HandleOrderPlaced")
	defer span.End()

	return is.RefreshBooks(ctx, models.BookIDsFromItems(event.Items))
}

// HandleOrderCanceled refreshes the stock of the books a cancellation returned
func (is *InventorySync) HandleOrderCanceled(ctx context.Context, event *models.OrderCanceledEvent) error {
	ctx, span := util.StartSpan(ctx, "InventorySync.HandleOrderCanceled")
	defer span.End()

	return is.RefreshBooks(ctx, models.BookIDsFromItems(event.Items))
}

func stockMap(books []models.Book) map[int64]int {
	stock := make(map[int64]int, len(books))
	for _, b := range books {
		stock[b.ID] = b.Quantity
	}
	return stock
}
