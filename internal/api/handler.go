package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"bookstore-service/internal/models"
	"bookstore-service/internal/service"
	"bookstore-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// The service interfaces below are satisfied by the types in internal/service.

type OrderService interface {
	PlaceOrder(ctx context.Context, username string, req *service.PlaceOrderRequest) (*models.Order, error)
	CancelOrder(ctx context.Context, actor *models.User, id int64) (*models.Order, error)
	ChangeOrderStatus(ctx context.Context, newStatus string, id int64) (*models.Order, error)
	GetOrder(ctx context.Context, actor *models.User, id int64) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersForUser(ctx context.Context, username string) ([]models.Order, error)
	LatestOrder(ctx context.Context) (*models.Order, error)
	PurgeOrder(ctx context.Context, id int64) error
}

type BookService interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	GetStock(ctx context.Context, id int64) (*service.StockLevel, error)
	CreateBook(ctx context.Context, req *service.BookRequest) (*models.Book, error)
	UpdateBook(ctx context.Context, id int64, req *service.BookRequest) (*models.Book, error)
	DeleteBook(ctx context.Context, id int64) error
}

type GenreService interface {
	ListGenres(ctx context.Context) ([]models.Genre, error)
	GetGenre(ctx context.Context, id int64) (*models.Genre, error)
	CreateGenre(ctx context.Context, req *service.SaveGenre) (*models.Genre, error)
	UpdateGenre(ctx context.Context, req *service.SaveGenre) (*models.Genre, error)
	DeleteGenre(ctx context.Context, id int64) error
}

type UserService interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	Register(ctx context.Context, req *service.RegisterRequest) (*models.User, error)
}

// ReadinessCheck reports whether a dependency can serve requests
type ReadinessCheck func(ctx context.Context) error

// Handler contains HTTP handlers
type Handler struct {
	orders    OrderService
	books     BookService
	genres    GenreService
	users     UserService
	readiness map[string]ReadinessCheck
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(orders OrderService, books BookService, genres GenreService, users UserService) *Handler {
	return &Handler{
		orders:    orders,
		books:     books,
		genres:    genres,
		users:     users,
		readiness: make(map[string]ReadinessCheck),
		logger:    util.GetLogger(),
	}
}

// AddReadinessCheck registers a dependency probed by /ready
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.readiness[name] = check
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(h.requestLogger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	auth := h.basicAuth()
	admin := requireAdmin()

	v1.POST("/users", h.registerUser)
	users := v1.Group("/users", auth)
	{
		users.GET("/me", h.me)
		users.GET("", admin, h.listUsers)
		users.GET("/:username", admin, h.getUser)
	}

	v1.GET("/genres", h.listGenres)
	v1.GET("/genres/:id", h.getGenre)
	genres := v1.Group("/genres", auth, admin)
	{
		genres.POST("", h.createGenre)
		genres.PUT("", h.updateGenre)
		genres.DELETE("/:id", h.deleteGenre)
	}

	v1.GET("/books", h.listBooks)
	v1.GET("/books/:id", h.getBook)
	v1.GET("/books/:id/stock", h.getBookStock)
	books := v1.Group("/books", auth, admin)
	{
		books.POST("", h.createBook)
		books.PUT("/:id", h.updateBook)
		books.DELETE("/:id", h.deleteBook)
	}

	orders := v1.Group("/orders", auth)
	{
		orders.POST("", h.placeOrder)
		orders.GET("/my", h.myOrders)
		orders.GET("/:id", h.getOrder)
		orders.DELETE("/:id", h.cancelOrder)
		orders.GET("", admin, h.listOrders)
		orders.PATCH("/:id/status", admin, h.changeOrderStatus)
	}

	adminGroup := v1.Group("/admin", auth, admin)
	{
		adminGroup.GET("/orders/latest", h.latestOrder)
		adminGroup.DELETE("/orders/:id", h.purgeOrder)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck probes every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.readiness {
		if err := check(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

// requestLogger logs one line per request
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		h.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
