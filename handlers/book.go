package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"bookstore-service/internal/books"
	"bookstore-service/pkg/ctxmanage"
	"bookstore-service/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func (h *Handler) CreateBook(c *gin.Context) {

	// Get the traceId from the request for tracking logs
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	// Check if the size of the request body exceeds 5 KB
	if c.Request.ContentLength > 5*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId), slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body too large."})
		return
	}

	var newBook books.NewBook
	err := c.ShouldBindJSON(&newBook)
	if err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	err = h.validate.Struct(newBook)
	if err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			for _, vErr := range vErrs {
				switch vErr.Tag() {
				case "required":
					slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErr.Field() + " value missing"})
					return
				case "min":
					slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErr.Field() + " value is less than " + vErr.Param()})
					return
				default:
					slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
					return
				}
			}
		}

		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	if newBook.Price.IsNegative() {
		slog.Error("negative price rejected", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Price must not be negative"})
		return
	}

	insertedBook, err := h.b.InsertBook(c.Request.Context(), newBook)
	if err != nil {
		slog.Error("error in inserting the book", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Book Creation Failed"})
		return
	}

	c.JSON(http.StatusOK, insertedBook)
}

func (h *Handler) GetBook(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	bookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		slog.Error("invalid book ID", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Book ID must be valid"})
		return
	}

	book, err := h.b.GetBookByID(c.Request.Context(), bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("book not found", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.BookID, bookID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		} else {
			slog.Error("error in retrieving book", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.BookID, bookID), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch book"})
		}
		return
	}

	c.JSON(http.StatusOK, book)
}

func (h *Handler) UpdateBook(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	bookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		slog.Error("invalid book ID", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Book ID must be valid"})
		return
	}

	var updatedBook books.NewBook
	if err = c.ShouldBindJSON(&updatedBook); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}

	if err = h.validate.Struct(updatedBook); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Validation failed"})
		return
	}

	book, err := h.b.UpdateBookInDB(c.Request.Context(), bookID, updatedBook)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("book not found", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.BookID, bookID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Book not found"})
			return
		}
		slog.Error("error in updating the book", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.BookID, bookID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Book update failed"})
		return
	}

	slog.Info("book updated successfully", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.BookID, bookID))

	c.JSON(http.StatusOK, gin.H{"message": "Book updated successfully", "book": book})
}

func (h *Handler) DeleteBook(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	bookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		slog.Error("invalid book ID", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Book ID must be valid"})
		return
	}

	err = h.b.DeleteBookFromDB(c.Request.Context(), bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Error("book not found", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.BookID, bookID))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Book not found"})
			return
		}
		slog.Error("error in deleting the book", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.BookID, bookID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Book deletion failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book successfully deleted"})
}

func (h *Handler) ListBooks(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	// Optional query parameters for filtering, pagination and sorting
	filter := books.ListFilter{
		Query: c.Query("q"),
		Sort:  c.DefaultQuery("sort", "title"),
		Order: c.DefaultQuery("order", "asc"),
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		slog.Error("invalid limit parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		slog.Error("invalid offset parameter", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid offset parameter"})
		return
	}
	filter.Limit = limit
	filter.Offset = offset

	if genre := c.Query("genre_id"); genre != "" {
		genreID, err := strconv.ParseInt(genre, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid genre_id parameter"})
			return
		}
		filter.GenreID = genreID
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		d, err := decimal.NewFromString(minPrice)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid min_price parameter"})
			return
		}
		filter.MinPrice = &d
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		d, err := decimal.NewFromString(maxPrice)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid max_price parameter"})
			return
		}
		filter.MaxPrice = &d
	}

	list, err := h.b.ListBooksFromDB(c.Request.Context(), filter)
	if err != nil {
		slog.Error("error in fetching books", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch books"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": list})
}

func (h *Handler) BookStock(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	bookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		slog.Error("invalid book ID", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Book ID must be valid"})
		return
	}

	stock, err := h.b.GetBookStock(c.Request.Context(), bookID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Book not found"})
			return
		}
		slog.Error("error in fetching book stock", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()), slog.Int64(logkey.BookID, bookID))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to retrieve book stock"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"book_id": bookID, "stock": stock})
}
