package listings

import (
	"fmt"

	"techtrust-backend/internal/domain"

	"github.com/google/uuid"
)

const (
	PageSize         = 5
	DescriptionLimit = 100
	BadgeSell        = "For Sale"
	BadgeBuy         = "Wanted"
)

// BrowseState is the sell/buy toggle plus the current page.
type BrowseState struct {
	Type domain.ListingType `json:"type"`
	Page int                `json:"page"`
}

func NewBrowseState() BrowseState {
	return BrowseState{Type: domain.ListingTypeSell, Page: 1}
}

// Toggle flips sell and buy and goes back to the first page.
func (b *BrowseState) Toggle() {
	if b.Type == domain.ListingTypeBuy {
		b.Type = domain.ListingTypeSell
	} else {
		b.Type = domain.ListingTypeBuy
	}
	b.Page = 1
}

func (b *BrowseState) Next(totalPages int) {
	if b.Page < totalPages {
		b.Page++
	}
}

func (b *BrowseState) Prev() {
	if b.Page > 1 {
		b.Page--
	}
}

// Card is one grid entry.
type Card struct {
	ID          uuid.UUID          `json:"id"`
	Type        domain.ListingType `json:"type"`
	Badge       string             `json:"badge"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	PriceLabel  string             `json:"price_label"`
	ImageURL    string             `json:"image_url,omitempty"`
}

// Page is the presented grid for one type.
type Page struct {
	Type          domain.ListingType `json:"type"`
	Items         []Card             `json:"items"`
	Page          int                `json:"page"`
	TotalPages    int                `json:"total_pages"`
	PageSize      int                `json:"page_size"`
	Total         int                `json:"total"`
	HasPrev       bool               `json:"has_prev"`
	HasNext       bool               `json:"has_next"`
	ShowCreateCTA bool               `json:"show_create_cta"`
}

// Presenter turns derived views into pages of cards.
type Presenter struct {
	// ImageURL maps a stored image path to a public URL; nil leaves paths as they are.
	ImageURL func(path string) string
}

// TotalPages is ceil(n/PageSize), and 1 for an empty partition.
func TotalPages(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + PageSize - 1) / PageSize
}

// Present partitions view by state.Type and slices out the requested page.
// totalUnfiltered is the snapshot size before any search or filter.
func (p Presenter) Present(view []domain.Listing, totalUnfiltered int, state BrowseState) Page {
	typ := state.Type
	if !typ.Valid() {
		typ = domain.ListingTypeSell
	}
	var part []domain.Listing
	for _, l := range view {
		if l.Type == typ {
			part = append(part, l)
		}
	}

	n := len(part)
	pages := TotalPages(n)
	page := state.Page
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if end > n {
		end = n
	}
	items := make([]Card, 0, PageSize)
	if start < n {
		for _, l := range part[start:end] {
			items = append(items, p.card(l))
		}
	}

	return Page{
		Type:          typ,
		Items:         items,
		Page:          page,
		TotalPages:    pages,
		PageSize:      PageSize,
		Total:         n,
		HasPrev:       page > 1,
		HasNext:       page < pages && n > 0,
		ShowCreateCTA: totalUnfiltered == 0,
	}
}

func (p Presenter) card(l domain.Listing) Card {
	c := Card{
		ID:          l.ID,
		Type:        l.Type,
		Title:       l.Title,
		Description: Truncate(l.Description, DescriptionLimit),
		Category:    l.Category,
		PriceLabel:  PriceLabel(l),
	}
	if l.Type == domain.ListingTypeBuy {
		c.Badge = BadgeBuy
	} else {
		c.Badge = BadgeSell
	}
	if len(l.Images) > 0 {
		c.ImageURL = p.url(l.Images[0])
	}
	return c
}

func (p Presenter) url(path string) string {
	if p.ImageURL == nil {
		return path
	}
	return p.ImageURL(path)
}

// PriceLabel renders the active amount in rupees.
func PriceLabel(l domain.Listing) string {
	if l.Type == domain.ListingTypeBuy {
		return fmt.Sprintf("Budget: ₹%.2f", l.Budget)
	}
	return fmt.Sprintf("Ask: ₹%.2f", l.Price)
}

// Truncate cuts s to limit runes and appends "..." when anything was cut.
func Truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
