package main

import (
	"context"
	"sync"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	LoadAllFunc func(ctx context.Context) ([]Book, error)
	SaveAllFunc func(ctx context.Context, books []Book) error
}

// LoadAll mocks the behavior of reading the collection by the repository.
func (m *MockBookStorage) LoadAll(ctx context.Context) ([]Book, error) {
	return m.LoadAllFunc(ctx)
}

// SaveAll mocks the behavior of writing the collection by the repository.
func (m *MockBookStorage) SaveAll(ctx context.Context, books []Book) error {
	return m.SaveAllFunc(ctx, books)
}

// NewMemBookStorage returns a mocked storage keeping the collection in memory.
// Each load returns a copy so callers cannot alter the stored state.
func NewMemBookStorage(books ...Book) (*MockBookStorage, func() []Book) {
	var mu sync.Mutex
	stored := append([]Book{}, books...)
	snapshot := func() []Book {
		mu.Lock()
		defer mu.Unlock()
		return append([]Book{}, stored...)
	}
	return &MockBookStorage{
		LoadAllFunc: func(ctx context.Context) ([]Book, error) {
			return snapshot(), nil
		},
		SaveAllFunc: func(ctx context.Context, books []Book) error {
			mu.Lock()
			defer mu.Unlock()
			stored = append([]Book{}, books...)
			return nil
		},
	}, snapshot
}

type MockQueuer struct {
	PushFunc func(ctx context.Context, qid string, book Book) error
	PopFunc  func(ctx context.Context, qids ...string) (string, Book, error)
}

// Push mocks the behavior of enqueuing a book change.
func (m *MockQueuer) Push(ctx context.Context, qid string, book Book) error {
	return m.PushFunc(ctx, qid, book)
}

// Pop mocks the behavior of dequeuing a book change.
func (m *MockQueuer) Pop(ctx context.Context, qids ...string) (string, Book, error) {
	return m.PopFunc(ctx, qids...)
}

type MockBookMirror struct {
	PutFunc    func(ctx context.Context, book Book) error
	DeleteFunc func(ctx context.Context, id int) error
	GetOneFunc func(ctx context.Context, id int) (Book, error)
	GetAllFunc func(ctx context.Context) ([]Book, error)
}

func (m *MockBookMirror) Put(ctx context.Context, book Book) error {
	return m.PutFunc(ctx, book)
}

func (m *MockBookMirror) Delete(ctx context.Context, id int) error {
	return m.DeleteFunc(ctx, id)
}

func (m *MockBookMirror) GetOne(ctx context.Context, id int) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

func (m *MockBookMirror) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// NewTicker returns a real ticker so the mock can be used by the logger.
func (mck *MockClocker) NewTicker(d time.Duration) *time.Ticker {
	return time.NewTicker(d)
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
