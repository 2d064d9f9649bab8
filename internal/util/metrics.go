package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookstore_orders_placed_total",
		Help: "Total number of orders placed",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_orders_failed_total",
		Help: "Total number of rejected order placements",
	}, []string{"reason"})

	OrdersCanceledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookstore_orders_canceled_total",
		Help: "Total number of canceled orders",
	})

	OrderStatusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_order_status_changes_total",
		Help: "Total number of order status transitions",
	}, []string{"to"})

	OrderValue = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookstore_order_value",
		Help:    "Total value of placed orders",
		Buckets: []float64{100, 500, 1000, 2500, 5000, 7500, 10000},
	})

	BooksReservedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookstore_books_reserved_total",
		Help: "Total number of book copies taken from stock by orders",
	})

	BooksReturnedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookstore_books_returned_total",
		Help: "Total number of book copies returned to stock by cancellations",
	})

	StockCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_stock_cache_lookups_total",
		Help: "Stock cache lookups by result",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
