package model

// Links holds the absolute URLs of the neighbouring pages.
type Links struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// Page is one page of a paginated list response.
type Page[T any] struct {
	Links       Links `json:"links"`
	Count       int   `json:"count"`
	TotalPages  int   `json:"total_pages"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	Results     []T   `json:"results"`
}

// HasNext reports whether a following page exists.
func (p *Page[T]) HasNext() bool { return p.Links.Next != nil }

// HasPrevious reports whether a preceding page exists.
func (p *Page[T]) HasPrevious() bool { return p.Links.Previous != nil }
