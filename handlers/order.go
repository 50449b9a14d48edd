package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"bookstore-service/internal/auth"
	"bookstore-service/internal/orders"
	"bookstore-service/internal/promocodes"
	"bookstore-service/internal/stores/kafka"
	"bookstore-service/internal/users"
	"bookstore-service/pkg/ctxmanage"
	"bookstore-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// Checkout converts the caller's cart into an order. The whole pipeline
// is transactional: either the order, its items, the stock decrements
// and the cart clear all commit, or nothing does.
func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	var newOrder orders.NewOrder
	if err := c.ShouldBindJSON(&newOrder); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if err := h.validate.Struct(newOrder); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Shipping address is required"})
		return
	}

	customer, err := h.u.GetCustomerByUserID(c.Request.Context(), userId)
	if err != nil {
		if errors.Is(err, users.ErrCustomerProfileMissing) {
			slog.Error("customer profile missing", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, userId))
			c.AbortWithStatusJSON(http.StatusPreconditionFailed, gin.H{"message": "Customer profile is missing"})
			return
		}
		slog.Error("error resolving customer", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to create order"})
		return
	}

	order, err := h.o.CreateOrder(c.Request.Context(), customer.ID, userId, newOrder)
	if err != nil {
		slog.Error("error creating order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		abortOrderError(c, err)
		return
	}

	slog.Info("order created", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.OrderID, order.ID), slog.String(logkey.UserID, userId))

	h.produceOrderCreated(order, traceId)

	c.JSON(http.StatusOK, gin.H{
		"order":            order,
		"total_cost":       order.TotalCost(),
		"discount_percent": order.DiscountPercent,
	})
}

// produceOrderCreated publishes the commit event. Delivery is best
// effort; the order already committed, so failures are only logged.
func (h *Handler) produceOrderCreated(order orders.Order, traceId string) {
	if h.k == nil {
		return
	}

	event := kafka.OrderCreatedEvent{
		OrderId:    order.ID,
		CustomerId: order.CustomerID,
		TotalCost:  order.TotalCost(),
		CreatedAt:  time.Now().UTC(),
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, kafka.OrderLine{BookId: item.BookID, Quantity: item.Quantity})
	}

	jsonData, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal order created event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		return
	}

	go func() {
		if err := h.k.ProduceMessage(kafka.TopicOrderCreated, []byte(order.ID), jsonData); err != nil {
			slog.Error("failed to produce order created event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			return
		}
		slog.Info("order created event produced", slog.String(logkey.TraceID, traceId), slog.String(logkey.OrderID, order.ID))
	}()
}

func (h *Handler) ListMyOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	customer, err := h.u.GetCustomerByUserID(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrCustomerProfileMissing) {
			c.JSON(http.StatusOK, gin.H{"orders": []orders.Order{}})
			return
		}
		slog.Error("error resolving customer", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch orders"})
		return
	}

	list, err := h.o.ListOrdersByCustomer(c.Request.Context(), customer.ID)
	if err != nil {
		slog.Error("error listing orders", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *Handler) GetOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	customer, err := h.u.GetCustomerByUserID(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error resolving customer", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Order not found"})
		return
	}

	order, err := h.o.GetOrderByID(c.Request.Context(), c.Param("id"), customer.ID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Order not found"})
			return
		}
		slog.Error("error fetching order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order, "total_cost": order.TotalCost()})
}

// abortOrderError maps order pipeline errors onto HTTP statuses.
func abortOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orders.ErrEmptyCart):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Cart is empty"})
	case errors.Is(err, orders.ErrInsufficientStock):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, promocodes.ErrInvalidOrExpired):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired promocode"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to create order"})
	}
}
