package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"

	"shelfsim-api-go/internal/models"
)

const bookColumns = `id, title, author, thickness_mm, height_mm, sku, created_at`

// sqliteFold is a Unicode-aware replacement for SQLite's LOWER, which only
// folds ASCII letters.
const sqliteFold = "fold_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(sqliteFold, 1, foldLower)
}

func foldLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

func (s *Store) foldFunc() string {
	if s.driver == DriverSQLite {
		return sqliteFold
	}
	return "LOWER"
}

// ListBooks returns books ordered by title, filtered by a case-insensitive
// substring match on title, author or SKU when search is non-empty.
func (s *Store) ListBooks(ctx context.Context, q models.BookQuery) ([]models.Book, error) {
	offset, ok := pageOffset(q.Page, q.PageSize)
	if !ok {
		return []models.Book{}, nil
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + bookColumns + ` FROM books`)
	args := []any{}
	if q.Search != "" {
		pattern := "%" + escapeLike(q.Search) + "%"
		fmt.Fprintf(&b, ` WHERE %[1]s(title) LIKE %[1]s(?) ESCAPE '!' OR %[1]s(author) LIKE %[1]s(?) ESCAPE '!' OR %[1]s(sku) LIKE %[1]s(?) ESCAPE '!'`, s.foldFunc())
		args = append(args, pattern, pattern, pattern)
	}
	b.WriteString(` ORDER BY title ASC, id ASC LIMIT ? OFFSET ?`)
	args = append(args, q.PageSize, offset)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("select books: %w", err)
	}
	defer rows.Close()

	out := []models.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, *book)
	}
	return out, rows.Err()
}

// GetBook returns a book by ID, or nil when absent.
func (s *Store) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select book: %w", err)
	}
	return book, nil
}

// CreateBook inserts a book with its caller-assigned ID and stamps CreatedAt.
func (s *Store) CreateBook(ctx context.Context, book *models.Book) error {
	book.CreatedAt = fromMillis(toMillis(s.now()))
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO books (`+bookColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		book.Title,
		nullableString(book.Author),
		book.ThicknessMm,
		book.HeightMm,
		nullableString(book.SKU),
		toMillis(book.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", mapError(err))
	}
	return nil
}

// UpdateBook replaces every mutable field of a book. CreatedAt is kept.
func (s *Store) UpdateBook(ctx context.Context, book models.Book) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE books SET title = ?, author = ?, thickness_mm = ?, height_mm = ?, sku = ? WHERE id = ?`,
		book.Title,
		nullableString(book.Author),
		book.ThicknessMm,
		book.HeightMm,
		nullableString(book.SKU),
		book.ID,
	)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return requireAffected(res)
}

// DeleteBook removes a book.
func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return requireAffected(res)
}

func scanBook(row scanner) (*models.Book, error) {
	var (
		book      models.Book
		author    sql.NullString
		sku       sql.NullString
		createdMs int64
	)
	if err := row.Scan(&book.ID, &book.Title, &author, &book.ThicknessMm, &book.HeightMm, &sku, &createdMs); err != nil {
		return nil, err
	}
	book.Author = stringFromNull(author)
	book.SKU = stringFromNull(sku)
	book.CreatedAt = fromMillis(createdMs)
	return &book, nil
}

// escapeLike escapes LIKE wildcards using '!' as the escape character,
// which both MySQL and SQLite accept without string-literal quirks.
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
