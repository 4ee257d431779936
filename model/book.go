// model/book.go
package model

import "time"

type BookStatus string

const (
	BookAvailable  BookStatus = "Available"
	BookReserved   BookStatus = "Reserved"
	BookOutOfStock BookStatus = "Out of Stock"
)

type Book struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	ISBN            *string    `json:"isbn,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Genre           string     `json:"genre"`
	CoverImage      *string    `json:"cover_image,omitempty"`
	TotalCopies     int64      `json:"total_copies"`
	AvailableCopies int64      `json:"available_copies"`
	Status          BookStatus `json:"status"`
	Location        string     `json:"location"`
	AddedBy         int64      `json:"added_by"`
	CreatedAt       time.Time  `json:"created_at"`
}
