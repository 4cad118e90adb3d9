package gateway

import (
	"context"
	"testing"
	"time"

	"techtrust-backend/internal/domain"
	"techtrust-backend/internal/pkg/apperrors"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupGatewayTest(t *testing.T) (*GormGateway, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Listing{}, &domain.ListingEvent{}))
	return &GormGateway{DB: db}, db
}

func sellListing(owner string, title string, price float64) *domain.Listing {
	return &domain.Listing{
		Type:          domain.ListingTypeSell,
		Title:         title,
		Description:   "desc",
		Category:      "Electronics",
		Price:         price,
		Images:        datatypes.JSONSlice[string]{"a.jpg", "b.jpg"},
		ContactName:   "Asha",
		ContactNumber: "9876543210",
		Email:         owner + "@example.com",
		UserID:        owner,
	}
}

func TestInsertSelectDelete_RoundTrip(t *testing.T) {
	g, _ := setupGatewayTest(t)
	ctx := context.Background()

	created, err := g.Insert(ctx, sellListing("u1", "Laptop", 100))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := g.SelectByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Laptop", got.Title)
	assert.Equal(t, 100.0, got.Price)
	assert.Equal(t, datatypes.JSONSlice[string]{"a.jpg", "b.jpg"}, got.Images)
	assert.Equal(t, "u1", got.UserID)
	assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Second)

	require.NoError(t, g.DeleteByID(ctx, created.ID))
	_, err = g.SelectByID(ctx, created.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	// second delete is a no-op
	assert.NoError(t, g.DeleteByID(ctx, created.ID))
}

func TestInsert_IgnoresClientID(t *testing.T) {
	g, _ := setupGatewayTest(t)
	l := sellListing("u1", "Laptop", 100)
	clientID := uuid.New()
	l.ID = clientID

	created, err := g.Insert(context.Background(), l)
	require.NoError(t, err)
	assert.NotEqual(t, clientID, created.ID)
}

func TestSelectByOwner_Ordering(t *testing.T) {
	g, db := setupGatewayTest(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, price := range []float64{30, 10, 20} {
		l := sellListing("u1", "item", price)
		l.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, db.Create(l).Error)
	}
	_, err := g.Insert(ctx, sellListing("u2", "other", 5))
	require.NoError(t, err)

	latest, err := g.SelectByOwner(ctx, "u1", Order{})
	require.NoError(t, err)
	require.Len(t, latest, 3)
	assert.Equal(t, []float64{20, 10, 30}, prices(latest))

	cheapest, err := g.SelectByOwner(ctx, "u1", Order{Column: ColumnPrice, Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30}, prices(cheapest))

	// unknown columns fall back to created_at
	fallback, err := g.SelectByOwner(ctx, "u1", Order{Column: "title; DROP TABLE listings"})
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 10, 30}, prices(fallback))
}

func TestUpdate_FullReplaceKeepsOwner(t *testing.T) {
	g, _ := setupGatewayTest(t)
	ctx := context.Background()
	created, err := g.Insert(ctx, sellListing("u1", "Laptop", 100))
	require.NoError(t, err)

	edit := &domain.Listing{
		Type:          domain.ListingTypeBuy,
		Title:         "Want a laptop",
		Description:   "any brand",
		Category:      "Electronics",
		Budget:        80,
		Images:        datatypes.JSONSlice[string]{},
		ContactName:   "Asha",
		ContactNumber: "9876543210",
		UserID:        "intruder",
	}
	updated, err := g.Update(ctx, created.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingTypeBuy, updated.Type)
	assert.Equal(t, 0.0, updated.Price)
	assert.Equal(t, 80.0, updated.Budget)
	assert.Empty(t, updated.Images)
	assert.Equal(t, "u1", updated.UserID)
	assert.Equal(t, "u1@example.com", updated.Email)
	assert.WithinDuration(t, created.CreatedAt, updated.CreatedAt, time.Second)
}

func TestUpdate_Missing(t *testing.T) {
	g, _ := setupGatewayTest(t)
	_, err := g.Update(context.Background(), uuid.New(), sellListing("u1", "x", 1))
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestEvents(t *testing.T) {
	g, _ := setupGatewayTest(t)
	ctx := context.Background()
	id := uuid.New()
	require.NoError(t, g.AppendEvent(ctx, &domain.ListingEvent{ListingID: id, EventType: domain.ListingEventCreated, EventData: datatypes.JSON(`{"price":1}`), ActorUserID: "u1"}))
	require.NoError(t, g.AppendEvent(ctx, &domain.ListingEvent{ListingID: id, EventType: domain.ListingEventDeleted, EventData: datatypes.JSON(`{}`), ActorUserID: "u1"}))
	require.NoError(t, g.AppendEvent(ctx, &domain.ListingEvent{ListingID: uuid.New(), EventType: domain.ListingEventCreated, EventData: datatypes.JSON(`{}`), ActorUserID: "u2"}))

	events, err := g.EventsForListing(ctx, id)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.ListingEventCreated, events[0].EventType)
	assert.Equal(t, domain.ListingEventDeleted, events[1].EventType)
}

func prices(ls []domain.Listing) []float64 {
	out := make([]float64, len(ls))
	for i, l := range ls {
		out[i] = l.Price
	}
	return out
}
