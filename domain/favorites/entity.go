// Package favorites tracks which accounts saved which sales and sends the
// starting-soon digest built on those saves.
package favorites

import (
	"time"

	"github.com/uptrace/bun"
)

// Favorite is a saved sale in app.favorites. NotifiedAt stamps the row once a
// starting-soon digest covering it has been sent; stamped rows are never
// reconsidered.
type Favorite struct {
	bun.BaseModel `bun:"table:app.favorites,alias:f"`

	ID         string     `bun:"id,pk,type:uuid" json:"id"`
	UserID     string     `bun:"user_id,notnull,type:uuid" json:"userId"`
	SaleID     string     `bun:"sale_id,notnull,type:uuid" json:"saleId"`
	NotifiedAt *time.Time `bun:"notified_at" json:"notifiedAt,omitempty"`
	CreatedAt  time.Time  `bun:"created_at,notnull,default:now()" json:"createdAt"`
}
