package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"bookstore-service/internal/auth"
	"bookstore-service/internal/reviews"
	"bookstore-service/internal/stores/kafka"
	"bookstore-service/internal/users"
	"bookstore-service/pkg/ctxmanage"
	"bookstore-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AddReview(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var newReview reviews.NewReview
	if err := c.ShouldBindJSON(&newReview); err != nil {
		slog.Error("invalid request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	if !reviews.ValidRating(newReview.Rating) {
		slog.Error("invalid rating", slog.String(logkey.TraceID, traceId), slog.Int("Rating", newReview.Rating))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Rating must be between 1 and 5"})
		return
	}

	customer, err := h.u.GetCustomerByUserID(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrCustomerProfileMissing) {
			c.AbortWithStatusJSON(http.StatusPreconditionFailed, gin.H{"message": "Customer profile is missing"})
			return
		}
		slog.Error("error resolving customer", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to add review"})
		return
	}

	review, err := h.r.AddReview(c.Request.Context(), customer.ID, newReview)
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrDuplicateReview):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"message": "You have already reviewed this book"})
		case errors.Is(err, reviews.ErrInvalidRating):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Rating must be between 1 and 5"})
		default:
			slog.Error("error adding review", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to add review"})
		}
		return
	}

	slog.Info("review submitted", slog.String(logkey.TraceID, traceId),
		slog.Int64("ReviewID", review.ID), slog.Int64(logkey.BookID, review.BookID))

	h.produceReviewSubmitted(review, traceId)

	c.JSON(http.StatusOK, gin.H{"review": review})
}

func (h *Handler) produceReviewSubmitted(review reviews.Review, traceId string) {
	if h.k == nil {
		return
	}

	jsonData, err := json.Marshal(kafka.ReviewSubmittedEvent{
		ReviewId:   review.ID,
		BookId:     review.BookID,
		CustomerId: review.CustomerID,
		Rating:     review.Rating,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to marshal review submitted event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		return
	}

	go func() {
		if err := h.k.ProduceMessage(kafka.TopicReviewSubmitted, []byte(strconv.FormatInt(review.ID, 10)), jsonData); err != nil {
			slog.Error("failed to produce review submitted event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	}()
}

func (h *Handler) ApproveReview(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	reviewID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		slog.Error("invalid review ID", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Review ID must be valid"})
		return
	}

	err = h.r.ApproveReview(c.Request.Context(), reviewID)
	if err != nil {
		if errors.Is(err, reviews.ErrReviewNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Review not found"})
			return
		}
		slog.Error("error approving review", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to approve review"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review approved"})
}

// ListBookReviews is public and returns approved reviews only.
func (h *Handler) ListBookReviews(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	bookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		slog.Error("invalid book ID", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Book ID must be valid"})
		return
	}

	list, err := h.r.ListBookReviews(c.Request.Context(), bookID, true)
	if err != nil {
		slog.Error("error listing reviews", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch reviews"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": list})
}
