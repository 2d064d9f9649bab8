package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"bookstore-service/internal/models"
	"bookstore-service/internal/store"
)

// memoryStore is an in-memory stand-in for *store.Store.
type memoryStore struct {
	mu      sync.Mutex
	books   map[int64]*models.Book
	genres  map[int64]*models.Genre
	users   map[string]*models.User
	orders  map[int64]*models.Order
	nextID  int64
	failGet error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		books:  map[int64]*models.Book{},
		genres: map[int64]*models.Genre{},
		users:  map[string]*models.User{},
		orders: map[int64]*models.Order{},
	}
}

func (m *memoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryStore) addBook(title string, price int64, quantity int) *models.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	book := &models.Book{ID: m.id(), Title: title, Price: price, Quantity: quantity}
	m.books[book.ID] = book
	return book
}

func (m *memoryStore) addUser(username, role string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := &models.User{ID: m.id(), Username: username, Role: role}
	m.users[username] = user
	return user
}

func (m *memoryStore) stock(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.books[id].Quantity
}

func (m *memoryStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func copyOrder(o *models.Order) *models.Order {
	c := *o
	c.Lines = append([]models.OrderLine(nil), o.Lines...)
	return &c
}

func (m *memoryStore) ListBooks(ctx context.Context) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Book{}
	for _, b := range m.books {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) GetBookByID(ctx context.Context, id int64) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	b, ok := m.books[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (m *memoryStore) GetBooksByIDs(ctx context.Context, ids []int64) ([]models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Book{}
	for _, id := range ids {
		if b, ok := m.books[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memoryStore) CreateBook(ctx context.Context, book *models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	book.ID = m.id()
	c := *book
	m.books[book.ID] = &c
	return nil
}

func (m *memoryStore) UpdateBook(ctx context.Context, book *models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[book.ID]; !ok {
		return store.ErrNotFound
	}
	c := *book
	m.books[book.ID] = &c
	return nil
}

func (m *memoryStore) DeleteBook(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return store.ErrNotFound
	}
	for _, o := range m.orders {
		for _, line := range o.Lines {
			if line.BookID == id {
				return store.ErrReferenced
			}
		}
	}
	delete(m.books, id)
	return nil
}

func (m *memoryStore) ListGenres(ctx context.Context) ([]models.Genre, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Genre{}
	for _, g := range m.genres {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) GetGenreByID(ctx context.Context, id int64) (*models.Genre, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.genres[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *g
	return &c, nil
}

func (m *memoryStore) genreNameTaken(name string, except int64) bool {
	for _, g := range m.genres {
		if g.Name == name && g.ID != except {
			return true
		}
	}
	return false
}

func (m *memoryStore) CreateGenre(ctx context.Context, genre *models.Genre) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.genreNameTaken(genre.Name, 0) {
		return store.ErrDuplicate
	}
	genre.ID = m.id()
	c := *genre
	m.genres[genre.ID] = &c
	return nil
}

func (m *memoryStore) UpdateGenre(ctx context.Context, genre *models.Genre) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.genres[genre.ID]; !ok {
		return store.ErrNotFound
	}
	if m.genreNameTaken(genre.Name, genre.ID) {
		return store.ErrDuplicate
	}
	c := *genre
	m.genres[genre.ID] = &c
	return nil
}

func (m *memoryStore) DeleteGenre(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.genres[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.genres, id)
	return nil
}

func (m *memoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *memoryStore) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Username]; ok {
		return store.ErrDuplicate
	}
	user.ID = m.id()
	user.CreatedAt = time.Now()
	c := *user
	m.users[user.Username] = &c
	return nil
}

func (m *memoryStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.orders {
		out = append(out, *copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) ListOrdersByUsername(ctx context.Context, username string) ([]models.Order, error) {
	all, _ := m.ListOrders(ctx)
	out := []models.Order{}
	for _, o := range all {
		if o.Username == username {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memoryStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyOrder(o), nil
}

func (m *memoryStore) LatestOrder(ctx context.Context) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.Order
	for _, o := range m.orders {
		if latest == nil || o.ID > latest.ID {
			latest = o
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	return copyOrder(latest), nil
}

// CreateOrder mirrors the store's all-or-nothing conditional decrement.
func (m *memoryStore) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	need := map[int64]int{}
	for _, line := range order.Lines {
		need[line.BookID] += line.Quantity
	}
	for id, qty := range need {
		b, ok := m.books[id]
		if !ok || b.Quantity < qty {
			return store.ErrInsufficientStock
		}
	}
	for id, qty := range need {
		m.books[id].Quantity -= qty
	}

	order.ID = m.id()
	order.CreatedAt = time.Now()
	for i := range order.Lines {
		order.Lines[i].ID = m.id()
		order.Lines[i].OrderID = order.ID
	}
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *memoryStore) CancelOrder(ctx context.Context, id int64) (*models.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, false, store.ErrNotFound
	}
	if o.Status == models.OrderStatusCanceled {
		return copyOrder(o), false, nil
	}
	if !o.Status.CanTransition(models.OrderStatusCanceled) {
		return nil, false, store.ErrStatusConflict
	}
	for i := range o.Lines {
		if b, ok := m.books[o.Lines[i].BookID]; ok {
			b.Quantity += o.Lines[i].Quantity
		}
		o.Lines[i].Quantity = 0
	}
	o.Status = models.OrderStatusCanceled
	o.OrderTime = time.Now()
	return copyOrder(o), true, nil
}

func (m *memoryStore) UpdateOrderStatus(ctx context.Context, id int64, from, to models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	if o.Status != from {
		return store.ErrStatusConflict
	}
	o.Status = to
	return nil
}

func (m *memoryStore) DeleteOrder(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

// memoryCache is an in-memory StockCache.
type memoryCache struct {
	mu     sync.Mutex
	stock  map[int64]int
	orders map[string]int64
	err    error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{stock: map[int64]int{}, orders: map[string]int64{}}
}

func (c *memoryCache) SetStock(ctx context.Context, bookID int64, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stock[bookID] = quantity
	return c.err
}

func (c *memoryCache) SetStocks(ctx context.Context, stock map[int64]int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, qty := range stock {
		c.stock[id] = qty
	}
	return c.err
}

func (c *memoryCache) GetStock(ctx context.Context, bookID int64) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, false, c.err
	}
	qty, ok := c.stock[bookID]
	return qty, ok, nil
}

func (c *memoryCache) DeleteStock(ctx context.Context, bookID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stock, bookID)
	return c.err
}

func (c *memoryCache) RememberOrder(ctx context.Context, key string, orderID int64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[key] = orderID
	return c.err
}

func (c *memoryCache) LookupOrder(ctx context.Context, key string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, false, c.err
	}
	id, ok := c.orders[key]
	return id, ok, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu       sync.Mutex
	placed   []*models.OrderPlacedEvent
	canceled []*models.OrderCanceledEvent
	changed  []*models.OrderStatusChangedEvent
	err      error
}

func (p *recordingPublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, event)
	return p.err
}

func (p *recordingPublisher) PublishOrderCanceled(ctx context.Context, event *models.OrderCanceledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.canceled = append(p.canceled, event)
	return p.err
}

func (p *recordingPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, event)
	return p.err
}

var errBoom = errors.New("boom")
