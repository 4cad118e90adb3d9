package gateway

import (
	"context"
	"errors"

	"techtrust-backend/internal/domain"
	"techtrust-backend/internal/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// mutableColumns are rewritten by Update; id, user_id, email and created_at never are.
var mutableColumns = []string{
	"type", "title", "description", "category", "price", "budget",
	"images", "contact_name", "contact_number",
}

var orderColumns = map[string]bool{ColumnCreatedAt: true, ColumnPrice: true}

// GormGateway implements Gateway and EventLog on the Supabase Postgres database.
type GormGateway struct {
	DB *gorm.DB
}

func (g *GormGateway) Insert(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	row := l.Clone()
	row.ID = uuid.Nil
	if err := g.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, apperrors.Backend("Failed to create listing", err)
	}
	row.Normalize()
	return &row, nil
}

func (g *GormGateway) SelectAll(ctx context.Context) ([]domain.Listing, error) {
	var listings []domain.Listing
	if err := g.DB.WithContext(ctx).Find(&listings).Error; err != nil {
		return nil, apperrors.Backend("Failed to fetch listings", err)
	}
	return normalizeAll(listings), nil
}

func (g *GormGateway) SelectByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	var l domain.Listing
	if err := g.DB.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Listing not found")
		}
		return nil, apperrors.Backend("Failed to fetch listing", err)
	}
	l.Normalize()
	return &l, nil
}

func (g *GormGateway) SelectByOwner(ctx context.Context, userID string, order Order) ([]domain.Listing, error) {
	col := order.Column
	if !orderColumns[col] {
		col = ColumnCreatedAt
	}
	var listings []domain.Listing
	err := g.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: !order.Ascending}).
		Find(&listings).Error
	if err != nil {
		return nil, apperrors.Backend("Failed to fetch user listings", err)
	}
	return normalizeAll(listings), nil
}

// Update replaces every mutable column with l's values (zero values included).
func (g *GormGateway) Update(ctx context.Context, id uuid.UUID, l *domain.Listing) (*domain.Listing, error) {
	row := l.Clone()
	row.ID = id
	res := g.DB.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("id = ?", id).
		Select(mutableColumns).
		Updates(&row)
	if res.Error != nil {
		return nil, apperrors.Backend("Failed to update listing", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("Listing not found")
	}
	return g.SelectByID(ctx, id)
}

// DeleteByID is idempotent: deleting a missing id succeeds.
func (g *GormGateway) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if err := g.DB.WithContext(ctx).Where("id = ?", id).Delete(&domain.Listing{}).Error; err != nil {
		return apperrors.Backend("Failed to delete listing", err)
	}
	return nil
}

func (g *GormGateway) AppendEvent(ctx context.Context, ev *domain.ListingEvent) error {
	if err := g.DB.WithContext(ctx).Create(ev).Error; err != nil {
		return apperrors.Backend("Failed to record listing event", err)
	}
	return nil
}

func (g *GormGateway) EventsForListing(ctx context.Context, listingID uuid.UUID) ([]domain.ListingEvent, error) {
	var events []domain.ListingEvent
	if err := g.DB.WithContext(ctx).Where("listing_id = ?", listingID).Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, apperrors.Backend("Failed to fetch listing events", err)
	}
	return events, nil
}

func normalizeAll(listings []domain.Listing) []domain.Listing {
	if listings == nil {
		return []domain.Listing{}
	}
	for i := range listings {
		listings[i].Normalize()
	}
	return listings
}
