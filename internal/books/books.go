package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

// InsertBook creates the book row plus its author and genre links.
func (c *Conf) InsertBook(ctx context.Context, newBook NewBook) (Book, error) {
	var book Book

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		queryInsert := `
			INSERT INTO books (title, isbn, description, price, quantity, publisher_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			RETURNING id, title, isbn, description, price, quantity, publisher_id, created_at, updated_at
		`
		err := tx.QueryRowContext(ctx, queryInsert, newBook.Title, newBook.ISBN, newBook.Description,
			newBook.Price, newBook.Quantity, newBook.PublisherID).
			Scan(&book.ID, &book.Title, &book.ISBN, &book.Description, &book.Price,
				&book.Quantity, &book.PublisherID, &book.CreatedAt, &book.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert book: %w", err)
		}

		for _, authorID := range newBook.AuthorIDs {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO book_authors (book_id, author_id) VALUES ($1, $2)`, book.ID, authorID)
			if err != nil {
				return fmt.Errorf("failed to link author %d: %w", authorID, err)
			}
		}
		for _, genreID := range newBook.GenreIDs {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO book_genres (book_id, genre_id) VALUES ($1, $2)`, book.ID, genreID)
			if err != nil {
				return fmt.Errorf("failed to link genre %d: %w", genreID, err)
			}
		}
		return nil
	})
	if err != nil {
		return Book{}, err
	}

	return c.GetBookByID(ctx, book.ID)
}

// GetBookByID fetches the book along with its authors and genres.
// Returns sql.ErrNoRows when the book does not exist.
func (c *Conf) GetBookByID(ctx context.Context, bookID int64) (Book, error) {
	var book Book

	query := `
		SELECT id, title, isbn, description, price, quantity, publisher_id, created_at, updated_at
		FROM books
		WHERE id = $1
	`
	err := c.db.QueryRowContext(ctx, query, bookID).
		Scan(&book.ID, &book.Title, &book.ISBN, &book.Description, &book.Price,
			&book.Quantity, &book.PublisherID, &book.CreatedAt, &book.UpdatedAt)
	if err != nil {
		return Book{}, err
	}

	book.Authors, err = c.bookAuthors(ctx, bookID)
	if err != nil {
		return Book{}, err
	}
	book.Genres, err = c.bookGenres(ctx, bookID)
	if err != nil {
		return Book{}, err
	}
	if book.PublisherID != nil {
		book.Publisher, err = c.publisherByID(ctx, *book.PublisherID)
		if err != nil {
			return Book{}, err
		}
	}

	return book, nil
}

func (c *Conf) publisherByID(ctx context.Context, publisherID int64) (*Publisher, error) {
	var p Publisher
	query := `
		SELECT id, name, address, website
		FROM publishers
		WHERE id = $1
	`
	err := c.db.QueryRowContext(ctx, query, publisherID).
		Scan(&p.ID, &p.Name, &p.Address, &p.Website)
	if err != nil {
		return nil, fmt.Errorf("failed to query publisher: %w", err)
	}
	return &p, nil
}

func (c *Conf) bookAuthors(ctx context.Context, bookID int64) ([]Author, error) {
	query := `
		SELECT a.id, a.name, a.bio
		FROM authors a
		JOIN book_authors ba ON ba.author_id = a.id
		WHERE ba.book_id = $1
		ORDER BY a.name
	`
	rows, err := c.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query book authors: %w", err)
	}
	defer rows.Close()

	var authors []Author
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name, &a.Bio); err != nil {
			return nil, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}

func (c *Conf) bookGenres(ctx context.Context, bookID int64) ([]Genre, error) {
	query := `
		SELECT g.id, g.name, g.description
		FROM genres g
		JOIN book_genres bg ON bg.genre_id = g.id
		WHERE bg.book_id = $1
		ORDER BY g.name
	`
	rows, err := c.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query book genres: %w", err)
	}
	defer rows.Close()

	var genres []Genre
	for rows.Next() {
		var g Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.Description); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

// UpdateBookInDB overwrites the mutable book fields and relinks authors
// and genres.
func (c *Conf) UpdateBookInDB(ctx context.Context, bookID int64, updated NewBook) (Book, error) {
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		queryUpdate := `
			UPDATE books
			SET title = $1, isbn = $2, description = $3, price = $4, quantity = $5,
			    publisher_id = $6, updated_at = NOW()
			WHERE id = $7
		`
		res, err := tx.ExecContext(ctx, queryUpdate, updated.Title, updated.ISBN, updated.Description,
			updated.Price, updated.Quantity, updated.PublisherID, bookID)
		if err != nil {
			return fmt.Errorf("failed to update book: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if n == 0 {
			return sql.ErrNoRows
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM book_authors WHERE book_id = $1`, bookID); err != nil {
			return fmt.Errorf("failed to unlink authors: %w", err)
		}
		for _, authorID := range updated.AuthorIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO book_authors (book_id, author_id) VALUES ($1, $2)`, bookID, authorID); err != nil {
				return fmt.Errorf("failed to link author %d: %w", authorID, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM book_genres WHERE book_id = $1`, bookID); err != nil {
			return fmt.Errorf("failed to unlink genres: %w", err)
		}
		for _, genreID := range updated.GenreIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO book_genres (book_id, genre_id) VALUES ($1, $2)`, bookID, genreID); err != nil {
				return fmt.Errorf("failed to link genre %d: %w", genreID, err)
			}
		}
		return nil
	})
	if err != nil {
		return Book{}, err
	}

	return c.GetBookByID(ctx, bookID)
}

func (c *Conf) DeleteBookFromDB(ctx context.Context, bookID int64) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, bookID)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListBooksFromDB lists catalog entries with optional filtering,
// pagination and a whitelisted sort.
func (c *Conf) ListBooksFromDB(ctx context.Context, filter ListFilter) ([]Book, error) {
	sortColumn, err := sortColumn(filter.Sort)
	if err != nil {
		return nil, err
	}
	order := "ASC"
	if strings.EqualFold(filter.Order, "desc") {
		order = "DESC"
	}

	query := `
		SELECT DISTINCT b.id, b.title, b.isbn, b.description, b.price, b.quantity,
		       b.publisher_id, b.created_at, b.updated_at
		FROM books b
		LEFT JOIN book_authors ba ON ba.book_id = b.id
		LEFT JOIN authors a ON a.id = ba.author_id
		LEFT JOIN book_genres bg ON bg.book_id = b.id
		WHERE 1=1
	`
	args := []any{}
	argPos := 1

	if filter.Query != "" {
		query += fmt.Sprintf(` AND (b.title ILIKE $%d OR b.isbn ILIKE $%d OR b.description ILIKE $%d OR a.name ILIKE $%d)`,
			argPos, argPos, argPos, argPos)
		args = append(args, "%"+filter.Query+"%")
		argPos++
	}
	if filter.GenreID > 0 {
		query += fmt.Sprintf(` AND bg.genre_id = $%d`, argPos)
		args = append(args, filter.GenreID)
		argPos++
	}
	if filter.MinPrice != nil {
		query += fmt.Sprintf(` AND b.price >= $%d`, argPos)
		args = append(args, *filter.MinPrice)
		argPos++
	}
	if filter.MaxPrice != nil {
		query += fmt.Sprintf(` AND b.price <= $%d`, argPos)
		args = append(args, *filter.MaxPrice)
		argPos++
	}

	query += fmt.Sprintf(` ORDER BY %s %s LIMIT $%d OFFSET $%d`, sortColumn, order, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var list []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.ISBN, &b.Description, &b.Price,
			&b.Quantity, &b.PublisherID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// sortColumn maps a request sort key to a real column, rejecting anything
// outside the whitelist.
func sortColumn(sort string) (string, error) {
	switch sort {
	case "", "title":
		return "b.title", nil
	case "price":
		return "b.price", nil
	case "created_at":
		return "b.created_at", nil
	default:
		return "", errors.New("unsupported sort column")
	}
}

// GetBookStock returns the live stock counter for one book.
func (c *Conf) GetBookStock(ctx context.Context, bookID int64) (int, error) {
	var stock int
	err := c.db.QueryRowContext(ctx, `SELECT quantity FROM books WHERE id = $1`, bookID).Scan(&stock)
	if err != nil {
		return 0, err
	}
	return stock, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		er := tx.Rollback()
		if er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
