// Package sales holds the garage sale listing and its child items, plus the
// image link validation job that runs after a listing is created.
package sales

import (
	"time"

	"github.com/uptrace/bun"
)

// SaleStatus represents the lifecycle state of a sale listing
type SaleStatus string

const (
	StatusDraft     SaleStatus = "draft"
	StatusPublished SaleStatus = "published"
	StatusCompleted SaleStatus = "completed"
	StatusCancelled SaleStatus = "cancelled"
)

// Sale is a garage sale listing in app.sales
type Sale struct {
	bun.BaseModel `bun:"table:app.sales,alias:s"`

	ID       string     `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	OwnerID  string     `bun:"owner_id,notnull,type:uuid" json:"ownerId"`
	Title    string     `bun:"title,notnull" json:"title"`
	Status   SaleStatus `bun:"status,notnull,default:'draft'" json:"status"`
	ImageURL *string    `bun:"image_url" json:"imageUrl,omitempty"`

	// SaleDate is the calendar day of the sale; StartTime is the wall-clock
	// start as "HH:MM". They are stored separately because sellers edit them
	// independently.
	SaleDate  time.Time `bun:"sale_date,notnull" json:"saleDate"`
	StartTime string    `bun:"start_time,notnull,default:'08:00'" json:"startTime"`

	CreatedAt time.Time `bun:"created_at,notnull,default:now()" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:now()" json:"updatedAt"`
}

// StartsAt computes the sale's start instant in UTC from SaleDate and
// StartTime. An unparseable StartTime falls back to the start of the day.
func (s *Sale) StartsAt() time.Time {
	day := time.Date(
		s.SaleDate.Year(), s.SaleDate.Month(), s.SaleDate.Day(),
		0, 0, 0, 0, time.UTC,
	)

	clock, err := time.Parse("15:04", s.StartTime)
	if err != nil {
		return day
	}
	return day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
}

// IsPublished reports whether the sale is visible to buyers
func (s *Sale) IsPublished() bool {
	return s.Status == StatusPublished
}

// Item is a single item offered at a sale, in app.items
type Item struct {
	bun.BaseModel `bun:"table:app.items,alias:i"`

	ID         string    `bun:"id,pk,type:uuid,default:gen_random_uuid()" json:"id"`
	SaleID     string    `bun:"sale_id,notnull,type:uuid" json:"saleId"`
	Name       string    `bun:"name,notnull" json:"name"`
	PriceCents *int      `bun:"price_cents" json:"priceCents,omitempty"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:now()" json:"createdAt"`
}
