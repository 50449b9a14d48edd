package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"bookstore-service/internal/auth"
	"bookstore-service/internal/cart"
	"bookstore-service/pkg/ctxmanage"
	"bookstore-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AddToCart(c *gin.Context) {
	// Get the traceId for logging
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	// Parse the request body
	var request struct {
		BookID   int64 `json:"book_id"`
		Quantity int   `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if request.BookID <= 0 || request.Quantity <= 0 {
		slog.Error("invalid book ID or quantity", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Book ID and quantity must be valid"})
		return
	}

	err := h.c.AddToCartDB(c.Request.Context(), userId, request.BookID, request.Quantity)
	if err != nil {
		slog.Error("error adding book to cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.Int64(logkey.BookID, request.BookID),
			slog.Int("Quantity", request.Quantity))
		abortCartError(c, err)
		return
	}

	slog.Info("book added to cart", slog.String(logkey.TraceID, traceId),
		slog.Int64(logkey.BookID, request.BookID), slog.Int("Quantity", request.Quantity),
		slog.String(logkey.UserID, userId))

	c.JSON(http.StatusOK, gin.H{"message": "Book added to cart"})
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	var request struct {
		BookID   int64 `json:"book_id"`
		Quantity int   `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if request.BookID <= 0 {
		slog.Error("invalid book ID", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Book ID must be valid"})
		return
	}

	// Zero or negative quantity removes the line.
	err := h.c.UpdateCartItemDB(c.Request.Context(), userId, request.BookID, request.Quantity)
	if err != nil {
		slog.Error("error updating cart item", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.Int64(logkey.BookID, request.BookID))
		abortCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart updated"})
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	bookID, err := strconv.ParseInt(c.Param("bookID"), 10, 64)
	if err != nil || bookID <= 0 {
		slog.Error("invalid book ID", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Book ID must be valid"})
		return
	}

	err = h.c.RemoveFromCartDB(c.Request.Context(), userId, bookID)
	if err != nil {
		slog.Error("error removing book from cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.Int64(logkey.BookID, bookID))
		abortCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book removed from cart"})
}

// ClearCart empties the caller's cart in one go.
func (h *Handler) ClearCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	if err := h.c.ClearCartDB(c.Request.Context(), userId); err != nil {
		slog.Error("error clearing cart", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, userId))
		abortCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

func (h *Handler) GetActiveCartItems(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userId := claims.Subject

	cartResponse, err := h.c.GetActiveCartItems(c.Request.Context(), userId)
	if err != nil {
		slog.Error("error fetching active cart items", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.String(logkey.UserID, userId))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch cart items"})
		return
	}

	slog.Info("fetched active cart items", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, userId))

	c.JSON(http.StatusOK, cartResponse)
}

// abortCartError maps cart domain errors onto HTTP statuses.
func abortCartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cart.ErrOutOfStock):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "Book is out of stock"})
	case errors.Is(err, cart.ErrInsufficientStock):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "Not enough books in stock"})
	case errors.Is(err, cart.ErrNotInCart):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Book not in cart"})
	case errors.Is(err, cart.ErrBookNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Book not found"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to update cart"})
	}
}
