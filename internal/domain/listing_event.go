package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ListingEventCreated = "CREATED"
	ListingEventUpdated = "UPDATED"
	ListingEventDeleted = "DELETED"
)

// ListingEvent is an audit entry for a listing mutation. Rows outlive the listing they describe.
type ListingEvent struct {
	EventID     uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	ListingID   uuid.UUID      `gorm:"column:listing_id;type:uuid;not null;index" json:"listing_id"`
	EventType   string         `gorm:"column:event_type;type:varchar(30);not null" json:"event_type"`
	EventData   datatypes.JSON `gorm:"column:event_data;type:jsonb;not null" json:"event_data"`
	ActorUserID string         `gorm:"column:actor_user_id;not null" json:"actor_user_id"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ListingEvent) TableName() string {
	return "listing_events"
}

func (le *ListingEvent) BeforeCreate(tx *gorm.DB) error {
	if le.EventID == uuid.Nil {
		le.EventID = uuid.New()
	}
	return nil
}
