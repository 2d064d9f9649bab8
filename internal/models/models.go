package models

import "time"

// Book represents a catalog entry and its stock level
type Book struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Author    string    `db:"author" json:"author"`
	GenreID   *int64    `db:"genre_id" json:"genreId,omitempty"`
	Price     int64     `db:"price" json:"price"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Genre groups books
type Genre struct {
	ID   int64  `db:"id" json:"genreId"`
	Name string `db:"name" json:"genreName"`
}

// User is a bookstore customer or administrator
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Order is a user's purchase of one or more books
type Order struct {
	ID        int64       `db:"id" json:"id"`
	UserID    int64       `db:"user_id" json:"userId"`
	Username  string      `db:"username" json:"username"`
	Status    OrderStatus `db:"status" json:"status"`
	OrderTime time.Time   `db:"order_time" json:"orderTime"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	Lines     []OrderLine `db:"-" json:"lines"`
}

// OrderLine is one book and its ordered quantity within an order.
// Lines are kept after cancellation with Quantity set to zero.
type OrderLine struct {
	ID        int64  `db:"id" json:"id"`
	OrderID   int64  `db:"order_id" json:"orderId"`
	BookID    int64  `db:"book_id" json:"bookId"`
	Title     string `db:"title" json:"title"`
	Quantity  int    `db:"quantity" json:"quantity"`
	UnitPrice int64  `db:"unit_price" json:"unitPrice"`
}

// Total sums price times quantity over the order lines.
func (o *Order) Total() int64 {
	var total int64
	for _, line := range o.Lines {
		total += line.UnitPrice * int64(line.Quantity)
	}
	return total
}

// BookIDs returns the distinct book ids referenced by the order.
func (o *Order) BookIDs() []int64 {
	seen := make(map[int64]struct{}, len(o.Lines))
	ids := make([]int64, 0, len(o.Lines))
	for _, line := range o.Lines {
		if _, ok := seen[line.BookID]; ok {
			continue
		}
		seen[line.BookID] = struct{}{}
		ids = append(ids, line.BookID)
	}
	return ids
}
