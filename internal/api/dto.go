package api

import (
	"time"

	"bookstore-service/internal/models"
)

// OrderDTO is the transport shape of an order
type OrderDTO struct {
	ID           int64            `json:"id"`
	Username     string           `json:"username"`
	Status       string           `json:"status"`
	OrderTime    time.Time        `json:"orderTime"`
	OrderedBooks []OrderedBookDTO `json:"orderedBooks"`
	Total        int64            `json:"total"`
}

type OrderedBookDTO struct {
	BookID    int64  `json:"bookId"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

// UserDTO is the transport shape of a user
type UserDTO struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toOrderDTO(order *models.Order) OrderDTO {
	books := make([]OrderedBookDTO, 0, len(order.Lines))
	for _, line := range order.Lines {
		books = append(books, OrderedBookDTO{
			BookID:    line.BookID,
			Title:     line.Title,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return OrderDTO{
		ID:           order.ID,
		Username:     order.Username,
		Status:       order.Status.String(),
		OrderTime:    order.OrderTime,
		OrderedBooks: books,
		Total:        order.Total(),
	}
}

func toOrderDTOs(orders []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderDTO(&orders[i]))
	}
	return out
}

func toUserDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
