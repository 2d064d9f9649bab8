package service

import (
	"context"
	"testing"

	"bookstore-service/internal/apperr"
	"bookstore-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookService_CreateAndUpdate(t *testing.T) {
	st := newMemoryStore()
	cache := newMemoryCache()
	svc := NewBookService(st, st, cache)
	ctx := context.Background()

	genre := &models.Genre{Name: "Poetry"}
	require.NoError(t, st.CreateGenre(ctx, genre))

	book, err := svc.CreateBook(ctx, &BookRequest{Title: "  Odes ", Author: "Keats", GenreID: &genre.ID, Price: 1500, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, "Odes", book.Title)
	assert.Equal(t, 4, cache.stock[book.ID])

	updated, err := svc.UpdateBook(ctx, book.ID, &BookRequest{Title: "Odes", Price: 1200, Quantity: 7})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), updated.Price)
	assert.Nil(t, updated.GenreID)
	assert.Equal(t, 7, cache.stock[book.ID])

	_, err = svc.UpdateBook(ctx, 999, &BookRequest{Title: "x"})
	requireKind(t, err, apperr.KindNotFound)
}

func TestBookService_Validation(t *testing.T) {
	st := newMemoryStore()
	svc := NewBookService(st, st, newMemoryCache())
	missing := int64(77)

	tests := []struct {
		name string
		req  BookRequest
		kind apperr.Kind
	}{
		{"blank title", BookRequest{Title: " ", Price: 1}, apperr.KindBadRequest},
		{"negative price", BookRequest{Title: "t", Price: -1}, apperr.KindBadRequest},
		{"negative quantity", BookRequest{Title: "t", Quantity: -1}, apperr.KindBadRequest},
		{"price above bound", BookRequest{Title: "t", Price: MaxBookPrice + 1}, apperr.KindBadRequest},
		{"quantity above bound", BookRequest{Title: "t", Quantity: MaxBookQuantity + 1}, apperr.KindBadRequest},
		{"unknown genre", BookRequest{Title: "t", GenreID: &missing}, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBook(context.Background(), &tt.req)
			requireKind(t, err, tt.kind)
		})
	}

	books, err := svc.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestBookService_UpdateRejectsOversizedValues(t *testing.T) {
	st := newMemoryStore()
	svc := NewBookService(st, st, newMemoryCache())
	book := st.addBook("A", 100, 6)

	_, err := svc.UpdateBook(context.Background(), book.ID, &BookRequest{Title: "A", Price: 100, Quantity: MaxBookQuantity + 1})
	typed := requireKind(t, err, apperr.KindBadRequest)
	assert.Contains(t, typed.Message(), "quantity must not exceed")

	_, err = svc.UpdateBook(context.Background(), book.ID, &BookRequest{Title: "A", Price: MaxBookPrice + 1, Quantity: 6})
	requireKind(t, err, apperr.KindBadRequest)

	assert.Equal(t, 6, st.stock(book.ID))
}

func TestBookService_GetStock(t *testing.T) {
	st := newMemoryStore()
	cache := newMemoryCache()
	svc := NewBookService(st, st, cache)
	ctx := context.Background()
	book := st.addBook("A", 100, 6)

	level, err := svc.GetStock(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, level.Quantity)
	assert.False(t, level.Cached)

	level, err = svc.GetStock(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, level.Cached)
	assert.Equal(t, 6, level.Quantity)

	cache.err = errBoom
	level, err = svc.GetStock(ctx, book.ID)
	require.NoError(t, err)
	assert.False(t, level.Cached)

	cache.err = nil
	_, err = svc.GetStock(ctx, 999)
	typed := requireKind(t, err, apperr.KindNotFound)
	assert.Equal(t, "Book not found! Book with id: 999 does not exist", typed.Message())
}

func TestBookService_GetBookStoreFailureIsInternal(t *testing.T) {
	st := newMemoryStore()
	st.failGet = errBoom
	svc := NewBookService(st, st, newMemoryCache())

	_, err := svc.GetBook(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestBookService_Delete(t *testing.T) {
	st := newMemoryStore()
	cache := newMemoryCache()
	books := NewBookService(st, st, cache)
	orders := NewOrderService(st, st, st, cache, &recordingPublisher{}, OrderLimits{})
	ctx := context.Background()

	st.addUser("reader", models.RoleUser)
	ordered := st.addBook("Ordered", 100, 5)
	spare := st.addBook("Spare", 100, 5)
	require.NoError(t, cache.SetStock(ctx, spare.ID, 5))

	_, err := orders.PlaceOrder(ctx, "reader", &PlaceOrderRequest{OrderedBooks: []int64{ordered.ID}, BookAmount: []int{1}})
	require.NoError(t, err)

	err = books.DeleteBook(ctx, ordered.ID)
	requireKind(t, err, apperr.KindBadRequest)

	require.NoError(t, books.DeleteBook(ctx, spare.ID))
	_, ok := cache.stock[spare.ID]
	assert.False(t, ok)

	err = books.DeleteBook(ctx, spare.ID)
	requireKind(t, err, apperr.KindNotFound)
}

func TestGenreService(t *testing.T) {
	st := newMemoryStore()
	svc := NewGenreService(st)
	ctx := context.Background()

	fantasy, err := svc.CreateGenre(ctx, &SaveGenre{GenreName: " Fantasy "})
	require.NoError(t, err)
	assert.Equal(t, "Fantasy", fantasy.Name)

	_, err = svc.CreateGenre(ctx, &SaveGenre{GenreName: "Fantasy"})
	requireKind(t, err, apperr.KindBadRequest)

	_, err = svc.CreateGenre(ctx, &SaveGenre{GenreName: "   "})
	requireKind(t, err, apperr.KindBadRequest)

	renamed, err := svc.UpdateGenre(ctx, &SaveGenre{GenreID: fantasy.ID, GenreName: "High Fantasy"})
	require.NoError(t, err)
	assert.Equal(t, fantasy.ID, renamed.ID)

	got, err := svc.GetGenre(ctx, fantasy.ID)
	require.NoError(t, err)
	assert.Equal(t, "High Fantasy", got.Name)

	_, err = svc.UpdateGenre(ctx, &SaveGenre{GenreID: 999, GenreName: "Nope"})
	requireKind(t, err, apperr.KindNotFound)

	genres, err := svc.ListGenres(ctx)
	require.NoError(t, err)
	assert.Len(t, genres, 1)

	require.NoError(t, svc.DeleteGenre(ctx, fantasy.ID))
	err = svc.DeleteGenre(ctx, fantasy.ID)
	typed := requireKind(t, err, apperr.KindNotFound)
	assert.Contains(t, typed.Message(), "Genre not found")
}

func TestInventorySync(t *testing.T) {
	st := newMemoryStore()
	cache := newMemoryCache()
	sync := NewInventorySync(st, cache)
	ctx := context.Background()

	a := st.addBook("A", 100, 3)
	b := st.addBook("B", 100, 8)

	require.NoError(t, sync.SyncAll(ctx))
	assert.Equal(t, map[int64]int{a.ID: 3, b.ID: 8}, cache.stock)

	st.books[a.ID].Quantity = 1
	err := sync.HandleOrderPlaced(ctx, &models.OrderPlacedEvent{
		OrderID: 1,
		Items:   []models.OrderItemData{{BookID: a.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.stock[a.ID])

	st.books[b.ID].Quantity = 9
	err = sync.HandleOrderCanceled(ctx, &models.OrderCanceledEvent{
		OrderID: 1,
		Items:   []models.OrderItemData{{BookID: b.ID, Quantity: 1}, {BookID: b.ID, Quantity: 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, 9, cache.stock[b.ID])
}
