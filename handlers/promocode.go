package handlers

import (
	"log/slog"
	"net/http"

	"bookstore-service/internal/promocodes"
	"bookstore-service/pkg/ctxmanage"
	"bookstore-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreatePromoCode(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var newPromo promocodes.NewPromoCode
	if err := c.ShouldBindJSON(&newPromo); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if err := h.validate.Struct(newPromo); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid promocode payload"})
		return
	}

	if newPromo.ValidTo.Before(newPromo.ValidFrom) {
		slog.Error("promocode window inverted", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "valid_to must not be before valid_from"})
		return
	}

	promo, err := h.p.InsertPromoCode(c.Request.Context(), newPromo)
	if err != nil {
		slog.Error("error creating promocode", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to create promocode"})
		return
	}

	c.JSON(http.StatusOK, promo)
}

func (h *Handler) ListPromoCodes(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	list, err := h.p.ListPromoCodes(c.Request.Context())
	if err != nil {
		slog.Error("error listing promocodes", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch promocodes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"promocodes": list})
}
