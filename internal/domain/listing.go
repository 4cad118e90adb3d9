package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListingType selects which of price/budget is active on a listing.
type ListingType string

const (
	ListingTypeSell ListingType = "sell"
	ListingTypeBuy  ListingType = "buy"
)

func (t ListingType) Valid() bool {
	return t == ListingTypeSell || t == ListingTypeBuy
}

// Listing is a sell or buy posting (table "listings").
type Listing struct {
	ID            uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Type          ListingType                 `gorm:"column:type;type:varchar(10);not null;index" json:"type"`
	Title         string                      `gorm:"column:title;not null" json:"title"`
	Description   string                      `gorm:"column:description;type:text;not null" json:"description"`
	Category      string                      `gorm:"column:category;not null;index" json:"category"`
	Price         float64                     `gorm:"column:price;type:decimal(12,2);not null" json:"price"`
	Budget        float64                     `gorm:"column:budget;type:decimal(12,2);not null" json:"budget"`
	Images        datatypes.JSONSlice[string] `gorm:"column:images;type:json" json:"images"`
	ContactName   string                      `gorm:"column:contact_name;not null" json:"contact_name"`
	ContactNumber string                      `gorm:"column:contact_number;not null" json:"contact_number"`
	Email         string                      `gorm:"column:email" json:"email"`
	UserID        string                      `gorm:"column:user_id;not null;index" json:"user_id"`
	CreatedAt     time.Time                   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Listing) TableName() string {
	return "listings"
}

// BeforeCreate sets id if not already set (DBs without default uuid).
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// ActiveAmount is the price of a sell listing or the budget of a buy listing.
func (l *Listing) ActiveAmount() float64 {
	if l.Type == ListingTypeBuy {
		return l.Budget
	}
	return l.Price
}

// IsOwnedBy reports whether userID created the listing.
func (l *Listing) IsOwnedBy(userID string) bool {
	return userID != "" && l.UserID == userID
}

// Normalize brings a row read from the backend in line with the listing invariants:
// images is never nil and always empty for buy listings, and amounts are never negative.
// The inert amount is left as stored.
func (l *Listing) Normalize() {
	if l.Images == nil || l.Type == ListingTypeBuy {
		l.Images = datatypes.JSONSlice[string]{}
	}
	if l.Price < 0 {
		l.Price = 0
	}
	if l.Budget < 0 {
		l.Budget = 0
	}
}

// Clone returns a copy that shares no slice memory with l.
func (l Listing) Clone() Listing {
	out := l
	out.Images = append(datatypes.JSONSlice[string]{}, l.Images...)
	return out
}
