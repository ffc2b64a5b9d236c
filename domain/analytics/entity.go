// Package analytics holds the append-only listing analytics events, the
// daily rollup job and the weekly seller digest job.
package analytics

import (
	"time"

	"github.com/uptrace/bun"
)

// EventType classifies an analytics event
type EventType string

const (
	EventView  EventType = "view"
	EventSave  EventType = "save"
	EventClick EventType = "click"
)

// Event is one append-only analytics event in app.analytics_events.
// Rows marked IsTest come from smoke checks and are excluded from every
// aggregation.
type Event struct {
	bun.BaseModel `bun:"table:app.analytics_events,alias:ae"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	SaleID    string    `bun:"sale_id,notnull,type:uuid" json:"saleId"`
	OwnerID   string    `bun:"owner_id,notnull,type:uuid" json:"ownerId"`
	EventType EventType `bun:"event_type,notnull" json:"eventType"`
	IsTest    bool      `bun:"is_test,notnull,default:false" json:"isTest"`
	CreatedAt time.Time `bun:"created_at,notnull,default:now()" json:"createdAt"`
}
