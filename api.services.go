package main

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	GetAll(ctx context.Context) ([]Book, error)
	GetAvailable(ctx context.Context) ([]Book, error)
	Add(ctx context.Context, req CreateBookRequest) (Book, error)
	Update(ctx context.Context, id int, req UpdateBookRequest) (Book, error)
	Delete(ctx context.Context, id int) (Book, error)
}

// BookService runs each operation against a fresh load of the collection.
// Mutations are serialized so that two concurrent read-modify-write cycles
// of this process cannot drop each other's changes.
type BookService struct {
	logger  *zap.Logger
	config  *Config
	storage BookStorage
	queue   Queuer
	mu      sync.Mutex
}

// NewBookService provides a book service. The queue is optional and
// receives every stored change when set.
func NewBookService(logger *zap.Logger, config *Config, storage BookStorage, queue Queuer) *BookService {
	return &BookService{
		logger:  logger,
		config:  config,
		storage: storage,
		queue:   queue,
	}
}

func (bs *BookService) GetAll(ctx context.Context) ([]Book, error) {
	return bs.storage.LoadAll(ctx)
}

func (bs *BookService) GetAvailable(ctx context.Context) ([]Book, error) {
	books, err := bs.storage.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return FilterAvailableBooks(books), nil
}

// Add validates the request, assigns the next id and appends the book.
func (bs *BookService) Add(ctx context.Context, req CreateBookRequest) (Book, error) {
	if err := ValidateCreateBookRequestBody(&req); err != nil {
		return Book{}, err
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()

	books, err := bs.storage.LoadAll(ctx)
	if err != nil {
		return Book{}, err
	}
	book := Book{
		ID:        NextBookID(books),
		Title:     *req.Title,
		Author:    *req.Author,
		Available: *req.Available,
	}
	books = append(books, book)
	if err = bs.storage.SaveAll(ctx, books); err != nil {
		return Book{}, err
	}
	bs.publish(ctx, CreateQueue, book)
	return book, nil
}

// Update applies the provided fields to the book with the given id.
func (bs *BookService) Update(ctx context.Context, id int, req UpdateBookRequest) (Book, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	books, err := bs.storage.LoadAll(ctx)
	if err != nil {
		return Book{}, err
	}
	idx := FindBookIndex(books, id)
	if idx == -1 {
		return Book{}, ErrBookNotFound
	}
	req.Apply(&books[idx])
	if err = bs.storage.SaveAll(ctx, books); err != nil {
		return Book{}, err
	}
	bs.publish(ctx, UpdateQueue, books[idx])
	return books[idx], nil
}

// Delete removes the book with the given id and returns it.
func (bs *BookService) Delete(ctx context.Context, id int) (Book, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	books, err := bs.storage.LoadAll(ctx)
	if err != nil {
		return Book{}, err
	}
	idx := FindBookIndex(books, id)
	if idx == -1 {
		return Book{}, ErrBookNotFound
	}
	deleted := books[idx]
	books = append(books[:idx], books[idx+1:]...)
	if err = bs.storage.SaveAll(ctx, books); err != nil {
		return Book{}, err
	}
	bs.publish(ctx, DeleteQueue, deleted)
	return deleted, nil
}

// publish pushes a stored change to the mirror queue. Failures are only
// logged: the collection file stays the source of truth.
func (bs *BookService) publish(ctx context.Context, qid string, book Book) {
	if bs.queue == nil {
		return
	}
	if err := bs.queue.Push(ctx, qid, book); err != nil {
		bs.logger.Error("service: failed to push book to queue", zap.String("qid", qid), zap.Int("book.id", book.ID), zap.Error(err))
	}
}
