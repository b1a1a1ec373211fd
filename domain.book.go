package main

import "context"

// Book represents a book entity as persisted in the collection file.
type Book struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Available bool   `json:"available"`
}

// CreateBookRequest is the payload of a book creation. Pointers
// let us tell a missing field apart from its zero value.
type CreateBookRequest struct {
	Title     *string `json:"title"`
	Author    *string `json:"author"`
	Available *bool   `json:"available"`
}

// UpdateBookRequest is the payload of a partial book update.
// Only non-nil fields are applied.
type UpdateBookRequest struct {
	Title     *string `json:"title"`
	Author    *string `json:"author"`
	Available *bool   `json:"available"`
}

// BookStorage reads and writes the whole book collection as one unit.
type BookStorage interface {
	LoadAll(ctx context.Context) ([]Book, error)
	SaveAll(ctx context.Context, books []Book) error
}

// NextBookID returns the id to assign to a new book: the highest
// existing id plus one, or 1 for an empty collection.
func NextBookID(books []Book) int {
	if len(books) == 0 {
		return 1
	}
	max := books[0].ID
	for _, b := range books[1:] {
		if b.ID > max {
			max = b.ID
		}
	}
	return max + 1
}

// FindBookIndex returns the position of the book with the given id or -1.
func FindBookIndex(books []Book, id int) int {
	for i, b := range books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// FilterAvailableBooks keeps the books marked as available, in order.
func FilterAvailableBooks(books []Book) []Book {
	available := []Book{}
	for _, b := range books {
		if b.Available {
			available = append(available, b)
		}
	}
	return available
}

// Apply sets the provided fields on the book.
func (u UpdateBookRequest) Apply(book *Book) {
	if u.Title != nil {
		book.Title = *u.Title
	}
	if u.Author != nil {
		book.Author = *u.Author
	}
	if u.Available != nil {
		book.Available = *u.Available
	}
}
