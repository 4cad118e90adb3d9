package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"techtrust-backend/internal/pkg/apperrors"

	"gorm.io/datatypes"
)

var ErrNegativeAmount = errors.New("amount must not be negative")

// ListingForm is the raw create/edit form. Amounts stay strings so coercion happens here, once.
// Owner fields come from the session, never from the form.
type ListingForm struct {
	Type          string
	Title         string
	Description   string
	Category      string
	Price         string
	Budget        string
	ContactName   string
	ContactNumber string
	Images        []string
}

// Validate checks required fields and amounts without building a listing.
func (f ListingForm) Validate() error {
	_, err := NewListing(f, Principal{})
	return err
}

// NewListing builds a listing from form input, stamping ownership from p.
// The inactive amount is zeroed and buy listings never carry images.
func NewListing(f ListingForm, p Principal) (*Listing, error) {
	t := ListingType(strings.ToLower(strings.TrimSpace(f.Type)))
	if t == "" {
		t = ListingTypeSell
	}
	if !t.Valid() {
		return nil, apperrors.Validation("type", `type must be "sell" or "buy"`)
	}

	required := []struct{ field, value string }{
		{"title", f.Title},
		{"description", f.Description},
		{"category", f.Category},
		{"contact_name", f.ContactName},
		{"contact_number", f.ContactNumber},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, apperrors.Validation(r.field, "Missing required field: "+r.field)
		}
	}
	if DigitsOnly(f.ContactNumber) == "" {
		return nil, apperrors.Validation("contact_number", "contact_number must contain digits")
	}

	l := &Listing{
		Type:          t,
		Title:         strings.TrimSpace(f.Title),
		Description:   strings.TrimSpace(f.Description),
		Category:      strings.TrimSpace(f.Category),
		ContactName:   strings.TrimSpace(f.ContactName),
		ContactNumber: strings.TrimSpace(f.ContactNumber),
		Email:         p.Email,
		UserID:        p.UserID,
		Images:        datatypes.JSONSlice[string]{},
	}

	switch t {
	case ListingTypeSell:
		price, err := ParseAmount(f.Price)
		if err != nil {
			return nil, apperrors.Validation("price", "price must not be negative")
		}
		l.Price = price
		for _, img := range f.Images {
			if img = strings.TrimSpace(img); img != "" {
				l.Images = append(l.Images, img)
			}
		}
	case ListingTypeBuy:
		budget, err := ParseAmount(f.Budget)
		if err != nil {
			return nil, apperrors.Validation("budget", "budget must not be negative")
		}
		l.Budget = budget
	}
	return l, nil
}

// ParseAmount coerces form input leniently: blank or non-numeric input is 0.
// Only a negative number is an error.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, nil
	}
	if v < 0 {
		return 0, ErrNegativeAmount
	}
	return v, nil
}

// DigitsOnly strips everything but ASCII digits (used for contact links).
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
