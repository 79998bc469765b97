package services

// File: internal/services/book_service.go
// Purpose: Book catalog CRUD with search and pagination.

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shelfsim-api-go/internal/apperr"
	"shelfsim-api-go/internal/db"
	"shelfsim-api-go/internal/models"
)

// DefaultBookPageSize is used when a listing omits pageSize.
const DefaultBookPageSize = 50

// BookService coordinates book persistence.
type BookService struct {
	store    *db.Store
	validate *Validator
	log      *zap.Logger
}

// NewBookService constructs a BookService with dependencies.
func NewBookService(store *db.Store, d Deps) *BookService {
	return &BookService{store: store, validate: d.Validator, log: d.Logger}
}

// List returns one page of books whose title, author or SKU contains the
// search term, case-insensitively.
func (s *BookService) List(ctx context.Context, q models.BookQuery) ([]models.Book, error) {
	q.Page, q.PageSize = normalizePage(q.Page, q.PageSize, DefaultBookPageSize)
	books, err := s.store.ListBooks(ctx, q)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return books, nil
}

// Get fetches a book by ID.
func (s *BookService) Get(ctx context.Context, id int64) (*models.Book, error) {
	book, err := s.store.GetBook(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if book == nil {
		return nil, bookNotFound(id)
	}
	return book, nil
}

// Create validates and stores a new book under its caller-assigned ID.
func (s *BookService) Create(ctx context.Context, req models.BookRequest) (*models.Book, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.ID <= 0 {
		return nil, apperr.Validation(map[string]string{"id": "id must be greater than 0"})
	}
	book := bookFromRequest(req.ID, req)
	if err := s.store.CreateBook(ctx, &book); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.Conflict(apperr.CodeBookAlreadyExists, fmt.Sprintf("Book with ID '%d' already exists.", req.ID))
		}
		return nil, apperr.Internal(err)
	}
	s.log.Info("book created", zap.Int64("book_id", book.ID))
	return &book, nil
}

// Update replaces the mutable fields of book id. The body ID is ignored.
func (s *BookService) Update(ctx context.Context, id int64, req models.BookRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return err
	}
	if err := s.store.UpdateBook(ctx, bookFromRequest(id, req)); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return bookNotFound(id)
		}
		return apperr.Internal(err)
	}
	s.log.Info("book updated", zap.Int64("book_id", id))
	return nil
}

// Delete removes book id.
func (s *BookService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteBook(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return bookNotFound(id)
		}
		return apperr.Internal(err)
	}
	s.log.Info("book deleted", zap.Int64("book_id", id))
	return nil
}

func bookFromRequest(id int64, req models.BookRequest) models.Book {
	return models.Book{
		ID:          id,
		Title:       req.Title,
		Author:      req.Author,
		ThicknessMm: req.ThicknessMm,
		HeightMm:    req.HeightMm,
		SKU:         req.SKU,
	}
}

func bookNotFound(id int64) error {
	return apperr.NotFound(apperr.CodeBookNotFound, fmt.Sprintf("Book with ID '%d' not found.", id))
}
