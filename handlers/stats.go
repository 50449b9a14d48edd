package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"bookstore-service/pkg/ctxmanage"
	"bookstore-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// RecalculateStats rebuilds the daily sales rollup for one date. Safe to
// call repeatedly; the rollup is a pure projection of committed orders.
func (h *Handler) RecalculateStats(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var request struct {
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	date, err := time.Parse(dateLayout, request.Date)
	if err != nil {
		slog.Error("invalid date", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Date must be in YYYY-MM-DD format"})
		return
	}

	stat, err := h.s.CalculateForDate(c.Request.Context(), date)
	if err != nil {
		slog.Error("error recalculating statistics", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to recalculate statistics"})
		return
	}

	c.JSON(http.StatusOK, stat)
}

// DailyStats reads the stored rollup for one date without recomputing it.
func (h *Handler) DailyStats(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	date, err := time.Parse(dateLayout, c.Query("date"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "date must be in YYYY-MM-DD format"})
		return
	}

	stat, err := h.s.GetForDate(c.Request.Context(), date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "No statistics for this date"})
			return
		}
		slog.Error("error fetching statistics", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch statistics"})
		return
	}

	c.JSON(http.StatusOK, stat)
}

func (h *Handler) StatsRangeReport(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	start, err := time.Parse(dateLayout, c.Query("start"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "start must be in YYYY-MM-DD format"})
		return
	}
	end, err := time.Parse(dateLayout, c.Query("end"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "end must be in YYYY-MM-DD format"})
		return
	}
	if end.Before(start) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "end must not be before start"})
		return
	}

	report, err := h.s.RangeReport(c.Request.Context(), start, end)
	if err != nil {
		slog.Error("error building range report", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to build report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) MonthlySales(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Year must be valid"})
		return
	}

	sales, err := h.s.MonthlySales(c.Request.Context(), year)
	if err != nil {
		slog.Error("error fetching monthly sales", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch monthly sales"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"year": year, "monthly_sales": sales})
}
