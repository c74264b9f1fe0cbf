package store

import "github.com/cppla/inkwell/models"

// Page is one slice of a newest-first post listing.
type Page struct {
	Items   []models.Post
	Page    int
	PerPage int
	Total   int64
}

// Pages is the number of pages needed for Total items, at least 1.
func (p *Page) Pages() int {
	if p.Total == 0 || p.PerPage <= 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func (p *Page) HasPrev() bool { return p.Page > 1 }

func (p *Page) HasNext() bool { return p.Page < p.Pages() }

func (p *Page) PrevNum() int {
	if !p.HasPrev() {
		return 0
	}
	return p.Page - 1
}

func (p *Page) NextNum() int {
	if !p.HasNext() {
		return 0
	}
	return p.Page + 1
}
