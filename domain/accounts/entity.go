// Package accounts exposes the registered account directory and the
// per-account notification preferences consumed by the digest jobs.
package accounts

import (
	"time"

	"github.com/uptrace/bun"
)

// Account is a registered account in app.accounts
type Account struct {
	bun.BaseModel `bun:"table:app.accounts,alias:a"`

	ID          string    `bun:"id,pk,type:uuid" json:"id"`
	Email       string    `bun:"email,notnull" json:"email"`
	DisplayName *string   `bun:"display_name" json:"displayName,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:now()" json:"createdAt"`
}

// Profile carries an account's notification preferences in app.profiles.
// Accounts without a profile row default to every notification enabled.
type Profile struct {
	bun.BaseModel `bun:"table:app.profiles,alias:p"`

	ID                 string    `bun:"id,pk,type:uuid" json:"id"`
	StartingSoonDigest bool      `bun:"pref_starting_soon_digest,notnull,default:true" json:"startingSoonDigest"`
	WeeklyAnalytics    bool      `bun:"pref_weekly_analytics,notnull,default:true" json:"weeklyAnalytics"`
	UpdatedAt          time.Time `bun:"updated_at,notnull,default:now()" json:"updatedAt"`
}

// Prefs is the resolved notification preference flags for one account
type Prefs struct {
	StartingSoonDigest bool
	WeeklyAnalytics    bool
}
