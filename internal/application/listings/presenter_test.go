package listings

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"techtrust-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func many(typ domain.ListingType, n int) []domain.Listing {
	out := make([]domain.Listing, n)
	for i := range out {
		out[i] = domain.Listing{Type: typ, Title: fmt.Sprintf("%s-%d", typ, i), CreatedAt: t0.Add(-time.Duration(i) * time.Minute)}
	}
	return out
}

func TestPresent_EmptyPartition(t *testing.T) {
	page := Presenter{}.Present(nil, 0, NewBrowseState())
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.Page)
	assert.False(t, page.HasPrev)
	assert.False(t, page.HasNext)
	assert.True(t, page.ShowCreateCTA)
	assert.Empty(t, page.Items)
}

func TestPresent_PartitionIgnoresOtherType(t *testing.T) {
	view := append(many(domain.ListingTypeSell, 3), many(domain.ListingTypeBuy, 2)...)

	sell := Presenter{}.Present(view, len(view), BrowseState{Type: domain.ListingTypeSell, Page: 1})
	buy := Presenter{}.Present(view, len(view), BrowseState{Type: domain.ListingTypeBuy, Page: 1})
	assert.Equal(t, 3, sell.Total)
	assert.Equal(t, 2, buy.Total)
	for _, c := range sell.Items {
		assert.Equal(t, BadgeSell, c.Badge)
	}
	for _, c := range buy.Items {
		assert.Equal(t, BadgeBuy, c.Badge)
	}
	// the other partition's emptiness never shows the create prompt
	onlySell := Presenter{}.Present(many(domain.ListingTypeSell, 2), 2, BrowseState{Type: domain.ListingTypeBuy})
	assert.Equal(t, 0, onlySell.Total)
	assert.False(t, onlySell.ShowCreateCTA)
}

func TestPresent_Pagination(t *testing.T) {
	view := many(domain.ListingTypeSell, 12)
	p := Presenter{}

	first := p.Present(view, 12, BrowseState{Type: domain.ListingTypeSell, Page: 1})
	assert.Equal(t, 3, first.TotalPages)
	assert.Len(t, first.Items, 5)
	assert.False(t, first.HasPrev)
	assert.True(t, first.HasNext)

	last := p.Present(view, 12, BrowseState{Type: domain.ListingTypeSell, Page: 3})
	assert.Len(t, last.Items, 2)
	assert.True(t, last.HasPrev)
	assert.False(t, last.HasNext)

	clamped := p.Present(view, 12, BrowseState{Type: domain.ListingTypeSell, Page: 99})
	assert.Equal(t, 3, clamped.Page)
	assert.Equal(t, last.Items, clamped.Items)

	assert.Equal(t, 1, p.Present(view, 12, BrowseState{Type: domain.ListingTypeSell, Page: -4}).Page)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0))
	assert.Equal(t, 1, TotalPages(5))
	assert.Equal(t, 2, TotalPages(6))
	assert.Equal(t, 3, TotalPages(11))
}

func TestBrowseState(t *testing.T) {
	s := NewBrowseState()
	s.Next(3)
	s.Next(3)
	s.Next(3)
	assert.Equal(t, 3, s.Page)
	s.Toggle()
	assert.Equal(t, domain.ListingTypeBuy, s.Type)
	assert.Equal(t, 1, s.Page)
	s.Prev()
	assert.Equal(t, 1, s.Page)
	s.Toggle()
	assert.Equal(t, domain.ListingTypeSell, s.Type)
}

func TestCard(t *testing.T) {
	p := Presenter{ImageURL: func(path string) string { return "https://cdn/" + path }}
	long := strings.Repeat("é", 120)
	page := p.Present([]domain.Listing{
		{Type: domain.ListingTypeSell, Title: "Laptop", Description: long, Price: 1500, Images: []string{"a.jpg", "b.jpg"}},
	}, 1, NewBrowseState())

	c := page.Items[0]
	assert.Equal(t, strings.Repeat("é", 100)+"...", c.Description)
	assert.Equal(t, "Ask: ₹1500.00", c.PriceLabel)
	assert.Equal(t, "https://cdn/a.jpg", c.ImageURL)

	assert.Equal(t, "Budget: ₹99.50", PriceLabel(domain.Listing{Type: domain.ListingTypeBuy, Budget: 99.5, Price: 7}))
	assert.Equal(t, "short", Truncate("short", 100))
}
