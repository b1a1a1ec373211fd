package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var _ BookStorage = (*fileBookStorage)(nil) // ensure fileBookStorage implements BookStorage.

// fileBookStorage keeps the whole collection as one indented JSON array.
// Nothing is cached: each call goes to the filesystem.
type fileBookStorage struct {
	logger  *zap.Logger
	fs      afero.Fs
	path    string
	metrics *Metrics
}

// NewFileBookStorage provides an instance of file-based book storage.
func NewFileBookStorage(logger *zap.Logger, fs afero.Fs, path string, metrics *Metrics) BookStorage {
	return &fileBookStorage{
		logger:  logger,
		fs:      fs,
		path:    path,
		metrics: metrics,
	}
}

// LoadAll reads the collection file. A missing, unreadable or malformed
// file is reported as an empty collection.
func (fbs *fileBookStorage) LoadAll(ctx context.Context) ([]Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(fbs.fs, fbs.path)
	if err != nil {
		fbs.logger.Error("storage: failed to read books file", zap.String("storage.path", fbs.path), zap.Error(err))
		fbs.metrics.StorageReadFallback("read")
		return []Book{}, nil
	}

	books := []Book{}
	if err = json.Unmarshal(data, &books); err != nil {
		fbs.logger.Error("storage: failed to parse books file", zap.String("storage.path", fbs.path), zap.Error(err))
		fbs.metrics.StorageReadFallback("parse")
		return []Book{}, nil
	}
	if books == nil {
		books = []Book{}
	}
	fbs.metrics.SetBooksTotal(len(books))
	return books, nil
}

// SaveAll replaces the collection file with the given books. The content
// goes to a temporary file in the same folder which is then renamed over
// the previous document.
func (fbs *fileBookStorage) SaveAll(_ context.Context, books []Book) error {
	if books == nil {
		books = []Book{}
	}
	data, err := encodeBooks(books)
	if err != nil {
		fbs.metrics.StorageWrite(false)
		return &StorageWriteError{Path: fbs.path, Err: err}
	}

	if err = fbs.replace(data); err != nil {
		fbs.logger.Error("storage: failed to write books file", zap.String("storage.path", fbs.path), zap.Error(err))
		fbs.metrics.StorageWrite(false)
		return &StorageWriteError{Path: fbs.path, Err: err}
	}
	fbs.metrics.StorageWrite(true)
	fbs.metrics.SetBooksTotal(len(books))
	return nil
}

// encodeBooks renders the collection with 2-space indentation, without
// html escaping and without a trailing newline.
func encodeBooks(books []Book) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(books); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func (fbs *fileBookStorage) replace(data []byte) error {
	dir := filepath.Dir(fbs.path)
	if err := fbs.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := afero.TempFile(fbs.fs, dir, filepath.Base(fbs.path)+".tmp-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		_ = fbs.fs.Remove(tmpName)
		return err
	}
	if err = tmp.Close(); err != nil {
		_ = fbs.fs.Remove(tmpName)
		return err
	}
	if err = fbs.fs.Chmod(tmpName, 0o644); err != nil {
		_ = fbs.fs.Remove(tmpName)
		return err
	}
	if err = fbs.fs.Rename(tmpName, fbs.path); err != nil {
		_ = fbs.fs.Remove(tmpName)
		return err
	}
	return nil
}
