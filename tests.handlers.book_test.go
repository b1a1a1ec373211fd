package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestBooksRouter builds the full public router over an in-memory
// collection file seeded with the given content when not empty.
func newTestBooksRouter(t *testing.T, content string) (*httprouter.Router, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	if content != "" {
		require.NoError(t, afero.WriteFile(fs, testBooksPath, []byte(content), 0o644))
	}
	storage := NewFileBookStorage(zap.NewNop(), fs, testBooksPath, nil)
	bs := NewBookService(zap.NewNop(), &Config{}, storage, nil)
	api := NewAPIHandler(zap.NewNop(), &Config{}, &Statistics{started: NewMockClocker().Now()}, NewMockClocker(), NewMockUIDHandler("abc"), bs)
	m := &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
	return api.SetupRoutes(httprouter.New(), m), fs
}

func doRequest(router http.Handler, method, path, body string) (int, string, http.Header) {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	res := w.Result()
	defer res.Body.Close()
	data, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(data), res.Header
}

// TestStatusHandler ensures api handler can provides its status.
func TestStatusHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	api := NewAPIHandler(zap.NewNop(), nil, &Statistics{started: NewMockClocker().Now()}, NewMockClocker(), nil, nil)
	api.Status(w, req, httprouter.Params{})
	res := w.Result()
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
	m := make(map[string]interface{})
	err = json.Unmarshal(data, &m)
	assert.NoError(t, err)

	_, ok := m["requestid"]
	assert.True(t, ok)

	v, ok := m["status"]
	assert.True(t, ok)
	assert.Equal(t, "up & running since 0 mins", v)

	v, ok = m["message"]
	assert.True(t, ok)
	assert.Equal(t, "Hello. Books store api is available. Enjoy :)", v)
}

func TestGetAllBooksHandler(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		router, _ := newTestBooksRouter(t, "")
		code, body, header := doRequest(router, http.MethodGet, "/books", "")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "application/json; charset=UTF-8", header.Get("Content-Type"))
		assert.JSONEq(t, `[]`, body)
	})

	t.Run("corrupt store", func(t *testing.T) {
		router, _ := newTestBooksRouter(t, "not json")
		code, body, _ := doRequest(router, http.MethodGet, "/books", "")
		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `[]`, body)
	})

	t.Run("stored order", func(t *testing.T) {
		content := `[{"id":2,"title":"B","author":"Y","available":false},{"id":1,"title":"A","author":"X","available":true}]`
		router, _ := newTestBooksRouter(t, content)
		code, body, _ := doRequest(router, http.MethodGet, "/api/books", "")
		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, content, body)
	})

	t.Run("storage failure", func(t *testing.T) {
		storage := &MockBookStorage{LoadAllFunc: func(ctx context.Context) ([]Book, error) {
			return nil, errors.New("boom")
		}}
		api := NewAPIHandler(zap.NewNop(), nil, &Statistics{}, NewMockClocker(), nil, NewBookService(zap.NewNop(), nil, storage, nil))
		w := httptest.NewRecorder()
		api.GetAllBooks(w, httptest.NewRequest(http.MethodGet, "/books", nil), httprouter.Params{})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	})
}

func TestGetAvailableBooksHandler(t *testing.T) {
	content := `[
		{"id":1,"title":"A","author":"X","available":true},
		{"id":2,"title":"B","author":"Y","available":false},
		{"id":3,"title":"C","author":"Z","available":true}
	]`
	router, _ := newTestBooksRouter(t, content)
	for _, path := range BookRoutePrefixes {
		code, body, _ := doRequest(router, http.MethodGet, path+"/available", "")
		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `[
			{"id":1,"title":"A","author":"X","available":true},
			{"id":3,"title":"C","author":"Z","available":true}
		]`, body)
	}
}

// TestCreateBookHandler ensures api handler can create a book.
func TestCreateBookHandler(t *testing.T) {
	t.Run("should pass: empty store", func(t *testing.T) {
		router, fs := newTestBooksRouter(t, "")
		code, body, header := doRequest(router, http.MethodPost, "/books", `{"title":"Dune","author":"Herbert","available":true}`)
		assert.Equal(t, http.StatusCreated, code)
		assert.Equal(t, "application/json; charset=UTF-8", header.Get("Content-Type"))
		assert.JSONEq(t, `{"id":1,"title":"Dune","author":"Herbert","available":true}`, body)

		data, err := afero.ReadFile(fs, testBooksPath)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":1,"title":"Dune","author":"Herbert","available":true}]`, string(data))
	})

	t.Run("should pass: id follows the highest", func(t *testing.T) {
		content := `[{"id":1,"title":"A","author":"X","available":true},{"id":3,"title":"C","author":"Z","available":false}]`
		router, _ := newTestBooksRouter(t, content)
		code, body, _ := doRequest(router, http.MethodPost, "/api/books", `{"title":"New","author":"Someone","available":false}`)
		assert.Equal(t, http.StatusCreated, code)
		assert.JSONEq(t, `{"id":4,"title":"New","author":"Someone","available":false}`, body)
	})

	t.Run("should fail: missing fields", func(t *testing.T) {
		router, fs := newTestBooksRouter(t, "")
		payloads := []string{
			`{"title":"X"}`,
			`{"title":"X","author":"Y"}`,
			`{"title":"X","author":"Y","available":null}`,
			`{"title":"","author":"Y","available":true}`,
			`{}`,
			``,
		}
		for _, payload := range payloads {
			code, body, _ := doRequest(router, http.MethodPost, "/books", payload)
			assert.Equal(t, http.StatusBadRequest, code, payload)
			assert.JSONEq(t, `{"error":"Title, author, and available are required"}`, body)
		}
		exists, err := afero.Exists(fs, testBooksPath)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("should fail: malformed body", func(t *testing.T) {
		router, _ := newTestBooksRouter(t, "")
		code, body, _ := doRequest(router, http.MethodPost, "/books", `{"title":`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.JSONEq(t, `{"error":"Invalid request body"}`, body)
	})

	t.Run("should fail: storage write failure", func(t *testing.T) {
		storage := NewFileBookStorage(zap.NewNop(), afero.NewReadOnlyFs(afero.NewMemMapFs()), testBooksPath, nil)
		api := NewAPIHandler(zap.NewNop(), nil, &Statistics{}, NewMockClocker(), nil, NewBookService(zap.NewNop(), nil, storage, nil))
		payload, err := json.Marshal(map[string]interface{}{"title": "X", "author": "Y", "available": true})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/books", bytes.NewBuffer(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	})
}

func TestUpdateBookHandler(t *testing.T) {
	content := `[{"id":1,"title":"Dune","author":"Herbert","available":true}]`

	t.Run("should pass: partial update", func(t *testing.T) {
		router, fs := newTestBooksRouter(t, content)
		code, body, _ := doRequest(router, http.MethodPut, "/books/1", `{"available":false}`)
		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"id":1,"title":"Dune","author":"Herbert","available":false}`, body)

		data, err := afero.ReadFile(fs, testBooksPath)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":1,"title":"Dune","author":"Herbert","available":false}]`, string(data))
	})

	t.Run("should pass: empty body keeps the book", func(t *testing.T) {
		router, _ := newTestBooksRouter(t, content)
		code, body, _ := doRequest(router, http.MethodPut, "/api/books/1", "")
		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"id":1,"title":"Dune","author":"Herbert","available":true}`, body)
	})

	t.Run("should pass: leading digits", func(t *testing.T) {
		router, _ := newTestBooksRouter(t, content)
		code, body, _ := doRequest(router, http.MethodPut, "/books/1abc", `{"title":"Dune Messiah"}`)
		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"id":1,"title":"Dune Messiah","author":"Herbert","available":true}`, body)
	})

	t.Run("should fail: unknown id", func(t *testing.T) {
		router, _ := newTestBooksRouter(t, content)
		code, body, _ := doRequest(router, http.MethodPut, "/books/2", `{"title":"X"}`)
		assert.Equal(t, http.StatusNotFound, code)
		assert.JSONEq(t, `{"error":"Book not found"}`, body)
	})

	t.Run("should fail: non numeric id", func(t *testing.T) {
		router, _ := newTestBooksRouter(t, content)
		code, body, _ := doRequest(router, http.MethodPut, "/books/abc", `{"title":"X"}`)
		assert.Equal(t, http.StatusNotFound, code)
		assert.JSONEq(t, `{"error":"Book not found"}`, body)
	})

	t.Run("should fail: storage write failure", func(t *testing.T) {
		storage := &MockBookStorage{
			LoadAllFunc: func(ctx context.Context) ([]Book, error) { return []Book{{ID: 1}}, nil },
			SaveAllFunc: func(ctx context.Context, books []Book) error {
				return &StorageWriteError{Path: testBooksPath, Err: errors.New("disk full")}
			},
		}
		api := NewAPIHandler(zap.NewNop(), nil, &Statistics{}, NewMockClocker(), nil, NewBookService(zap.NewNop(), nil, storage, nil))
		req := httptest.NewRequest(http.MethodPut, "/books/1", strings.NewReader(`{"title":"X"}`))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: "1"}})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	})
}

func TestDeleteOneBookHandler(t *testing.T) {
	content := `[{"id":1,"title":"A","author":"X","available":true},{"id":2,"title":"B","author":"Y","available":false}]`

	t.Run("should pass: existing id", func(t *testing.T) {
		router, fs := newTestBooksRouter(t, content)
		code, body, _ := doRequest(router, http.MethodDelete, "/books/2", "")
		assert.Equal(t, http.StatusOK, code)
		assert.JSONEq(t, `{"id":2,"title":"B","author":"Y","available":false}`, body)

		data, err := afero.ReadFile(fs, testBooksPath)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":1,"title":"A","author":"X","available":true}]`, string(data))
	})

	t.Run("should fail: unknown id", func(t *testing.T) {
		router, fs := newTestBooksRouter(t, content)
		code, body, _ := doRequest(router, http.MethodDelete, "/books/99", "")
		assert.Equal(t, http.StatusNotFound, code)
		assert.JSONEq(t, `{"error":"Book not found"}`, body)

		data, err := afero.ReadFile(fs, testBooksPath)
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	})

	t.Run("should fail: non numeric id", func(t *testing.T) {
		router, _ := newTestBooksRouter(t, content)
		code, body, _ := doRequest(router, http.MethodDelete, "/api/books/abc", "")
		assert.Equal(t, http.StatusNotFound, code)
		assert.JSONEq(t, `{"error":"Book not found"}`, body)
	})

	t.Run("should fail: storage write failure", func(t *testing.T) {
		storage := &MockBookStorage{
			LoadAllFunc: func(ctx context.Context) ([]Book, error) { return []Book{{ID: 1}}, nil },
			SaveAllFunc: func(ctx context.Context, books []Book) error {
				return &StorageWriteError{Path: testBooksPath, Err: errors.New("disk full")}
			},
		}
		api := NewAPIHandler(zap.NewNop(), nil, &Statistics{}, NewMockClocker(), nil, NewBookService(zap.NewNop(), nil, storage, nil))
		w := httptest.NewRecorder()
		api.DeleteOneBook(w, httptest.NewRequest(http.MethodDelete, "/books/1", nil), httprouter.Params{{Key: "id", Value: "1"}})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	})
}

func TestCreateBookHandler_KeepsHTMLCharacters(t *testing.T) {
	router, fs := newTestBooksRouter(t, "")
	code, body, _ := doRequest(router, http.MethodPost, "/books", `{"title":"a<b&c","author":"X","available":true}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, `{"id":1,"title":"a<b&c","author":"X","available":true}`+"\n", body)

	data, err := afero.ReadFile(fs, testBooksPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"title": "a<b&c"`))
}
