package handlers

import (
	"fmt"
	"net/http"
	"os"

	"bookstore-service/internal/auth"
	"bookstore-service/internal/books"
	"bookstore-service/internal/cart"
	"bookstore-service/internal/orders"
	"bookstore-service/internal/promocodes"
	"bookstore-service/internal/reviews"
	"bookstore-service/internal/stats"
	"bookstore-service/internal/stores/kafka"
	"bookstore-service/internal/users"
	"bookstore-service/middleware"
	"bookstore-service/pkg/ctxmanage"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	b        books.Conf
	c        cart.Conf
	o        *orders.Conf
	p        promocodes.Conf
	r        reviews.Conf
	s        *stats.Conf
	u        *users.Conf
	k        *kafka.Conf
	keys     *auth.Keys
	validate *validator.Validate
}

type Confs struct {
	Books      books.Conf
	Cart       cart.Conf
	Orders     *orders.Conf
	PromoCodes promocodes.Conf
	Reviews    reviews.Conf
	Stats      *stats.Conf
	Users      *users.Conf
	Kafka      *kafka.Conf
}

func NewHandler(cf Confs, keys *auth.Keys) *Handler {
	return &Handler{
		b:        cf.Books,
		c:        cf.Cart,
		o:        cf.Orders,
		p:        cf.PromoCodes,
		r:        cf.Reviews,
		s:        cf.Stats,
		u:        cf.Users,
		k:        cf.Kafka,
		keys:     keys,
		validate: validator.New(),
	}
}

func API(endpointPrefix string, keys *auth.Keys, cf Confs) (*gin.Engine, error) {

	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	m, err := middleware.NewMid(keys)
	if err != nil {
		return nil, fmt.Errorf("building middleware: %w", err)
	}

	h := NewHandler(cf, keys)
	//apply middleware to all the endpoints using r.Use
	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", healthCheck)
	v1 := r.Group(endpointPrefix)
	{
		v1.GET("/books/list", h.ListBooks)
		v1.GET("/books/view/:id", h.GetBook)
		v1.GET("/books/stock/:id", h.BookStock)
		v1.GET("/reviews/book/:id", h.ListBookReviews)
		v1.POST("/signup", h.Signup)
		v1.POST("/login", h.Login)

		v1.Use(m.Authentication())
		v1.POST("/cart/add-item", m.Authorize(h.AddToCart, auth.RoleUser))
		v1.PUT("/cart/update-item", m.Authorize(h.UpdateCartItem, auth.RoleUser))
		v1.DELETE("/cart/remove-item/:bookID", m.Authorize(h.RemoveFromCart, auth.RoleUser))
		v1.DELETE("/cart/clear", m.Authorize(h.ClearCart, auth.RoleUser))
		v1.GET("/cart/items", m.Authorize(h.GetActiveCartItems, auth.RoleUser))

		v1.POST("/checkout", m.Authorize(h.Checkout, auth.RoleUser))
		v1.GET("/orders/list", m.Authorize(h.ListMyOrders, auth.RoleUser))
		v1.GET("/orders/view/:id", m.Authorize(h.GetOrder, auth.RoleUser))

		v1.POST("/reviews/add", m.Authorize(h.AddReview, auth.RoleUser))
		v1.POST("/profile", m.Authorize(h.UpsertProfile, auth.RoleUser))

		v1.POST("/books/create", m.Authorize(h.CreateBook, auth.RoleAdmin))
		v1.PUT("/books/update/:id", m.Authorize(h.UpdateBook, auth.RoleAdmin))
		v1.DELETE("/books/delete/:id", m.Authorize(h.DeleteBook, auth.RoleAdmin))

		v1.POST("/promocodes/create", m.Authorize(h.CreatePromoCode, auth.RoleAdmin))
		v1.GET("/promocodes/list", m.Authorize(h.ListPromoCodes, auth.RoleAdmin))

		v1.PUT("/reviews/approve/:id", m.Authorize(h.ApproveReview, auth.RoleAdmin))

		v1.POST("/stats/recalculate", m.Authorize(h.RecalculateStats, auth.RoleAdmin))
		v1.GET("/stats/daily", m.Authorize(h.DailyStats, auth.RoleAdmin))
		v1.GET("/stats/report", m.Authorize(h.StatsRangeReport, auth.RoleAdmin))
		v1.GET("/stats/monthly/:year", m.Authorize(h.MonthlySales, auth.RoleAdmin))
	}

	return r, nil
}

func healthCheck(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	fmt.Println("healthCheck handler ", traceId)
	//JSON serializes the given struct as JSON into the response body. It also sets the Content-Type as "application/json".
	c.JSON(http.StatusOK, gin.H{"status": "ok"})

}
