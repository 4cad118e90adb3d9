package gateway

import (
	"context"

	"techtrust-backend/internal/domain"

	"github.com/google/uuid"
)

// Column names the backend can order owner queries by.
const (
	ColumnCreatedAt = "created_at"
	ColumnPrice     = "price"
)

// Order is a server-side ordering request. Zero value means created_at descending.
type Order struct {
	Column    string
	Ascending bool
}

// Gateway is the structured data backend for the listings table. Each call is a single
// request/response with no retry of its own; failures come back as BackendError or NotFound.
type Gateway interface {
	Insert(ctx context.Context, l *domain.Listing) (*domain.Listing, error)
	SelectAll(ctx context.Context) ([]domain.Listing, error)
	SelectByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
	SelectByOwner(ctx context.Context, userID string, order Order) ([]domain.Listing, error)
	Update(ctx context.Context, id uuid.UUID, l *domain.Listing) (*domain.Listing, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// EventLog stores listing audit events.
type EventLog interface {
	AppendEvent(ctx context.Context, ev *domain.ListingEvent) error
	EventsForListing(ctx context.Context, listingID uuid.UUID) ([]domain.ListingEvent, error)
}
