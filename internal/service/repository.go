package service

import (
	"context"
	"time"

	"bookstore-service/internal/models"
)

// The repository interfaces below are satisfied by *store.Store. Services
// depend on them rather than the store so they can run against fakes.

type OrderRepository interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByUsername(ctx context.Context, username string) ([]models.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	LatestOrder(ctx context.Context) (*models.Order, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	CancelOrder(ctx context.Context, id int64) (*models.Order, bool, error)
	UpdateOrderStatus(ctx context.Context, id int64, from, to models.OrderStatus) error
	DeleteOrder(ctx context.Context, id int64) error
}

type BookRepository interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	GetBookByID(ctx context.Context, id int64) (*models.Book, error)
	GetBooksByIDs(ctx context.Context, ids []int64) ([]models.Book, error)
	CreateBook(ctx context.Context, book *models.Book) error
	UpdateBook(ctx context.Context, book *models.Book) error
	DeleteBook(ctx context.Context, id int64) error
}

type GenreRepository interface {
	ListGenres(ctx context.Context) ([]models.Genre, error)
	GetGenreByID(ctx context.Context, id int64) (*models.Genre, error)
	CreateGenre(ctx context.Context, genre *models.Genre) error
	UpdateGenre(ctx context.Context, genre *models.Genre) error
	DeleteGenre(ctx context.Context, id int64) error
}

type UserRepository interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// StockCache mirrors book stock levels and remembers idempotent order
// placements. Implemented by *redisclient.Client.
type StockCache interface {
	SetStock(ctx context.Context, bookID int64, quantity int) error
	SetStocks(ctx context.Context, stock map[int64]int) error
	GetStock(ctx context.Context, bookID int64) (int, bool, error)
	DeleteStock(ctx context.Context, bookID int64) error
	RememberOrder(ctx context.Context, key string, orderID int64, ttl time.Duration) error
	LookupOrder(ctx context.Context, key string) (int64, bool, error)
}

// EventPublisher is implemented by *broker.EventPublisher.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderCanceled(ctx context.Context, event *models.OrderCanceledEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}
