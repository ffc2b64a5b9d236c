package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/yardline-app/yardline/domain/accounts"
	"github.com/yardline-app/yardline/domain/email"
	"github.com/yardline-app/yardline/domain/sales"
	"github.com/yardline-app/yardline/pkg/logger"
)

// WeeklyPayload is the input of the weekly seller digest job
type WeeklyPayload struct {
	// Date anchors the run as "2006-01-02"; the digest covers the last fully
	// completed Monday-to-Monday UTC week before it. Empty means now.
	Date string `json:"date,omitempty"`
}

// OwnerMetrics is one seller's event counts for the digest week
type OwnerMetrics struct {
	Views  int
	Saves  int
	Clicks int
}

func (m OwnerMetrics) isZero() bool {
	return m.Views == 0 && m.Saves == 0 && m.Clicks == 0
}

// SaleLister lists sales created inside the digest window
type SaleLister interface {
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*sales.Sale, error)
}

// PrefsSource resolves notification preferences for a set of accounts
type PrefsSource interface {
	NotificationPrefs(ctx context.Context, accountIDs []string) (map[string]accounts.Prefs, error)
}

// WeeklyDigest emails each active seller their view, save and click counts
// for the last completed Monday-to-Monday UTC week. Sellers whose week was
// entirely quiet get nothing.
type WeeklyDigest struct {
	events    EventSource
	sales     SaleLister
	directory accounts.Directory
	prefs     PrefsSource
	sender    email.Sender
	templates *email.TemplateService
	log       *slog.Logger
	now       func() time.Time
}

// NewWeeklyDigest creates the weekly seller digest handler
func NewWeeklyDigest(
	events EventSource,
	sales SaleLister,
	directory accounts.Directory,
	prefs PrefsSource,
	sender email.Sender,
	templates *email.TemplateService,
	log *slog.Logger,
) *WeeklyDigest {
	return &WeeklyDigest{
		events:    events,
		sales:     sales,
		directory: directory,
		prefs:     prefs,
		sender:    sender,
		templates: templates,
		log:       log.With(logger.Scope("digest.weekly")),
		now:       time.Now,
	}
}

// Handle runs one weekly digest pass. Enumeration failures return an error so
// the job retries; per-seller delivery failures are logged and skipped.
func (d *WeeklyDigest) Handle(ctx context.Context, payload json.RawMessage) error {
	var p WeeklyPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("weekly digest: decode payload: %w", err)
		}
	}

	anchor := d.now().UTC()
	if p.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", p.Date, time.UTC)
		if err != nil {
			return fmt.Errorf("weekly digest: invalid date %q: %w", p.Date, err)
		}
		anchor = parsed
	}

	weekEnd := startOfWeekUTC(anchor)
	weekStart := weekEnd.AddDate(0, 0, -7)

	events, err := d.events.ListWindow(ctx, weekStart, weekEnd, "")
	if err != nil {
		return fmt.Errorf("weekly digest: %w", err)
	}
	newSales, err := d.sales.ListCreatedBetween(ctx, weekStart, weekEnd)
	if err != nil {
		return fmt.Errorf("weekly digest: %w", err)
	}

	// Candidates are sellers who either created a sale or had any event
	// activity inside the week. Zero-metric candidates drop out below.
	metrics := make(map[string]OwnerMetrics)
	for _, e := range events {
		m := metrics[e.OwnerID]
		switch e.EventType {
		case EventView:
			m.Views++
		case EventSave:
			m.Saves++
		case EventClick:
			m.Clicks++
		}
		metrics[e.OwnerID] = m
	}
	for _, s := range newSales {
		if _, ok := metrics[s.OwnerID]; !ok {
			metrics[s.OwnerID] = OwnerMetrics{}
		}
	}
	if len(metrics) == 0 {
		return nil
	}

	accountList, err := d.directory.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("weekly digest: %w", err)
	}
	accountsByID := make(map[string]accounts.Account, len(accountList))
	for _, a := range accountList {
		accountsByID[a.ID] = a
	}

	ownerIDs := make([]string, 0, len(metrics))
	for id := range metrics {
		ownerIDs = append(ownerIDs, id)
	}
	sort.Strings(ownerIDs)

	prefsByID, err := d.prefs.NotificationPrefs(ctx, ownerIDs)
	if err != nil {
		d.log.Warn("preference lookup failed, treating all sellers as opted in",
			logger.Error(err))
		prefsByID = map[string]accounts.Prefs{}
	}

	sent := 0
	for _, ownerID := range ownerIDs {
		m := metrics[ownerID]
		if m.isZero() {
			continue
		}
		if pref, ok := prefsByID[ownerID]; ok && !pref.WeeklyAnalytics {
			continue
		}

		account, ok := accountsByID[ownerID]
		if !ok {
			d.log.Warn("seller has activity but no account record, skipping",
				slog.String("owner_id", ownerID))
			continue
		}

		if d.deliver(ctx, account, m, weekStart, weekEnd) {
			sent++
		}
	}

	d.log.Info("weekly digest pass complete",
		slog.String("week_start", weekStart.Format("2006-01-02")),
		slog.Int("candidates", len(metrics)),
		slog.Int("sellers_notified", sent))
	return nil
}

func (d *WeeklyDigest) deliver(ctx context.Context, account accounts.Account, m OwnerMetrics, weekStart, weekEnd time.Time) bool {
	name := account.Email
	if account.DisplayName != nil && *account.DisplayName != "" {
		name = *account.DisplayName
	}

	html, err := d.templates.Render("weekly_analytics", email.TemplateContext{
		"recipientName": name,
		"weekStart":     weekStart.Format("Jan 2"),
		"weekEnd":       weekEnd.Format("Jan 2"),
		"views":         m.Views,
		"saves":         m.Saves,
		"clicks":        m.Clicks,
	})
	if err != nil {
		d.log.Warn("failed to render weekly digest",
			slog.String("account_id", account.ID),
			logger.Error(err))
		return false
	}

	result, err := d.sender.Send(ctx, email.SendOptions{
		To:      account.Email,
		ToName:  name,
		Subject: "Your week on Yardline",
		HTML:    html,
	})
	if err != nil {
		d.log.Warn("failed to send weekly digest",
			slog.String("account_id", account.ID),
			logger.Error(err))
		return false
	}
	if !result.Success {
		d.log.Warn("weekly digest rejected by provider",
			slog.String("account_id", account.ID),
			slog.String("reason", result.Error))
		return false
	}
	return true
}

// startOfWeekUTC returns the most recent Monday midnight UTC at or before t
func startOfWeekUTC(t time.Time) time.Time {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	back := (int(t.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -back)
}
