package favorites

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
	"github.com/yardline-app/yardline/internal/config"
	"github.com/yardline-app/yardline/pkg/logger"
)

// FavoriteStore is the favorites access the digest needs
type FavoriteStore interface {
	ListUnnotified(ctx context.Context) ([]Favorite, error)
	MarkNotified(ctx context.Context, ids []string, at time.Time) error
}

// SaleSource resolves favorited sale ids to sale rows
type SaleSource interface {
	ListByIDs(ctx context.Context, ids []string) ([]*sales.Sale, error)
}

// PrefsSource resolves notification preferences for a set of accounts
type PrefsSource interface {
	NotificationPrefs(ctx context.Context, accountIDs []string) (map[string]accounts.Prefs, error)
}

// StartingSoonDigest emails each account a single digest of their saved sales
// that start within the configured look-ahead window. A one hour grace behind
// now keeps sales that just started from being silently skipped.
type StartingSoonDigest struct {
	cfg       *config.Config
	favorites FavoriteStore
	sales     SaleSource
	directory accounts.Directory
	prefs     PrefsSource
	sender    email.Sender
	templates *email.TemplateService
	log       *slog.Logger
	now       func() time.Time
}

// NewStartingSoonDigest creates the starting-soon digest handler
func NewStartingSoonDigest(
	cfg *config.Config,
	favorites FavoriteStore,
	sales SaleSource,
	directory accounts.Directory,
	prefs PrefsSource,
	sender email.Sender,
	templates *email.TemplateService,
	log *slog.Logger,
) *StartingSoonDigest {
	return &StartingSoonDigest{
		cfg:       cfg,
		favorites: favorites,
		sales:     sales,
		directory: directory,
		prefs:     prefs,
		sender:    sender,
		templates: templates,
		log:       log.With(logger.Scope("digest.starting_soon")),
		now:       time.Now,
	}
}

// Handle runs one digest pass. Enumeration failures (favorites, sales,
// accounts) return an error so the job retries; per-account delivery failures
// are logged and skipped so one bad address cannot starve the rest.
func (d *StartingSoonDigest) Handle(ctx context.Context, _ json.RawMessage) error {
	if !d.cfg.Digest.StartingSoonEnabled {
		d.log.Debug("starting-soon digest disabled, skipping")
		return nil
	}

	favs, err := d.favorites.ListUnnotified(ctx)
	if err != nil {
		return fmt.Errorf("starting-soon digest: %w", err)
	}
	if len(favs) == 0 {
		return nil
	}

	saleIDs := make([]string, 0, len(favs))
	seen := make(map[string]bool, len(favs))
	for _, f := range favs {
		if !seen[f.SaleID] {
			seen[f.SaleID] = true
			saleIDs = append(saleIDs, f.SaleID)
		}
	}

	saleRows, err := d.sales.ListByIDs(ctx, saleIDs)
	if err != nil {
		return fmt.Errorf("starting-soon digest: %w", err)
	}

	now := d.now().UTC()
	windowStart := now.Add(-time.Hour)
	windowEnd := now.Add(d.cfg.Digest.StartingSoonWindow())

	eligible := make(map[string]*sales.Sale)
	for _, s := range saleRows {
		startsAt := s.StartsAt()
		if !s.IsPublished() {
			continue
		}
		if startsAt.Before(windowStart) || startsAt.After(windowEnd) {
			continue
		}
		eligible[s.ID] = s
	}
	if len(eligible) == 0 {
		return nil
	}

	// Group the eligible favorites by account
	type bundle struct {
		favIDs []string
		sales  []*sales.Sale
	}
	byAccount := make(map[string]*bundle)
	for _, f := range favs {
		s, ok := eligible[f.SaleID]
		if !ok {
			continue
		}
		b := byAccount[f.UserID]
		if b == nil {
			b = &bundle{}
			byAccount[f.UserID] = b
		}
		b.favIDs = append(b.favIDs, f.ID)
		b.sales = append(b.sales, s)
	}
	if len(byAccount) == 0 {
		return nil
	}

	accountList, err := d.directory.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("starting-soon digest: %w", err)
	}
	accountsByID := make(map[string]accounts.Account, len(accountList))
	for _, a := range accountList {
		accountsByID[a.ID] = a
	}

	accountIDs := make([]string, 0, len(byAccount))
	for id := range byAccount {
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)

	// A preference lookup failure means everyone stays opted in rather than
	// the whole digest silently dropping
	prefsByID, err := d.prefs.NotificationPrefs(ctx, accountIDs)
	if err != nil {
		d.log.Warn("preference lookup failed, treating all accounts as opted in",
			logger.Error(err))
		prefsByID = map[string]accounts.Prefs{}
	}

	sent := 0
	for _, accountID := range accountIDs {
		if p, ok := prefsByID[accountID]; ok && !p.StartingSoonDigest {
			continue
		}

		account, ok := accountsByID[accountID]
		if !ok {
			d.log.Warn("favorite references unknown account, skipping",
				slog.String("account_id", accountID))
			continue
		}

		b := byAccount[accountID]
		if d.deliver(ctx, account, b.sales) {
			if err := d.favorites.MarkNotified(ctx, b.favIDs, now); err != nil {
				d.log.Warn("failed to stamp notified favorites",
					slog.String("account_id", accountID),
					logger.Error(err))
			}
			sent++
		}
	}

	d.log.Info("starting-soon digest pass complete",
		slog.Int("accounts_notified", sent),
		slog.Int("eligible_sales", len(eligible)))
	return nil
}

func (d *StartingSoonDigest) deliver(ctx context.Context, account accounts.Account, saleRows []*sales.Sale) bool {
	saleData := make([]map[string]interface{}, 0, len(saleRows))
	for _, s := range saleRows {
		saleData = append(saleData, map[string]interface{}{
			"title":    s.Title,
			"startsAt": s.StartsAt().Format("Mon Jan 2, 3:04 PM MST"),
		})
	}

	name := account.Email
	if account.DisplayName != nil && *account.DisplayName != "" {
		name = *account.DisplayName
	}

	html, err := d.templates.Render("starting_soon", email.TemplateContext{
		"recipientName": name,
		"windowHours":   d.cfg.Digest.StartingSoonHours,
		"sales":         saleData,
	})
	if err != nil {
		d.log.Warn("failed to render starting-soon digest",
			slog.String("account_id", account.ID),
			logger.Error(err))
		return false
	}

	subject := "Sales you saved are starting soon"
	if len(saleRows) == 1 {
		subject = fmt.Sprintf("%s is starting soon", saleRows[0].Title)
	}

	result, err := d.sender.Send(ctx, email.SendOptions{
		To:      account.Email,
		ToName:  name,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		d.log.Warn("failed to send starting-soon digest",
			slog.String("account_id", account.ID),
			logger.Error(err))
		return false
	}
	if !result.Success {
		d.log.Warn("starting-soon digest rejected by provider",
			slog.String("account_id", account.ID),
			slog.String("reason", result.Error))
		return false
	}
	return true
}
