package favorites

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yardline-app/yardline/domain/accounts"
	"github.com/yardline-app/yardline/domain/email"
	"github.com/yardline-app/yardline/domain/sales"
	"github.com/yardline-app/yardline/internal/config"
)

type fakeFavoriteStore struct {
	favs    []Favorite
	listErr error
	marked  [][]string
	markErr error
}

func (f *fakeFavoriteStore) ListUnnotified(context.Context) ([]Favorite, error) {
	return f.favs, f.listErr
}

func (f *fakeFavoriteStore) MarkNotified(_ context.Context, ids []string, _ time.Time) error {
	f.marked = append(f.marked, ids)
	return f.markErr
}

type fakeSaleSource struct {
	sales []*sales.Sale
	err   error
}

func (f *fakeSaleSource) ListByIDs(context.Context, []string) ([]*sales.Sale, error) {
	return f.sales, f.err
}

type fakeDirectory struct {
	accounts []accounts.Account
	err      error
}

func (f *fakeDirectory) ListAccounts(context.Context) ([]accounts.Account, error) {
	return f.accounts, f.err
}

type fakePrefs struct {
	prefs map[string]accounts.Prefs
	err   error
}

func (f *fakePrefs) NotificationPrefs(context.Context, []string) (map[string]accounts.Prefs, error) {
	return f.prefs, f.err
}

type recordingSender struct {
	sent    []email.SendOptions
	failTo  map[string]bool
	sendErr error
}

func (s *recordingSender) Send(_ context.Context, opts email.SendOptions) (*email.SendResult, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	s.sent = append(s.sent, opts)
	if s.failTo[opts.To] {
		return &email.SendResult{Success: false, Error: "mailbox unavailable"}, nil
	}
	return &email.SendResult{Success: true, MessageID: "msg-" + opts.To}, nil
}

var digestNow = time.Date(2025, 6, 6, 18, 0, 0, 0, time.UTC)

func publishedSale(id, owner, title string, startsAt time.Time) *sales.Sale {
	return &sales.Sale{
		ID:        id,
		OwnerID:   owner,
		Title:     title,
		Status:    sales.StatusPublished,
		SaleDate:  time.Date(startsAt.Year(), startsAt.Month(), startsAt.Day(), 0, 0, 0, 0, time.UTC),
		StartTime: startsAt.Format("15:04"),
	}
}

func digestFixture(t *testing.T, favStore FavoriteStore, saleSrc SaleSource, dir accounts.Directory, prefs PrefsSource, sender email.Sender) *StartingSoonDigest {
	t.Helper()

	log := slog.New(slog.DiscardHandler)
	templates, err := email.NewTemplateService(log)
	require.NoError(t, err)

	cfg := &config.Config{
		Digest: config.DigestConfig{StartingSoonEnabled: true, StartingSoonHours: 24},
	}

	d := NewStartingSoonDigest(cfg, favStore, saleSrc, dir, prefs, sender, templates, log)
	d.now = func() time.Time { return digestNow }
	return d
}

func strPtr(s string) *string { return &s }

func TestStartingSoonDigest_OneEmailPerAccount(t *testing.T) {
	// Three unnotified favorites for one account, two of them on sales that
	// start inside the window. The account gets exactly one email covering
	// both, and only those two favorites get stamped.
	favStore := &fakeFavoriteStore{favs: []Favorite{
		{ID: "fav-1", UserID: "acct-1", SaleID: "sale-1"},
		{ID: "fav-2", UserID: "acct-1", SaleID: "sale-2"},
		{ID: "fav-3", UserID: "acct-1", SaleID: "sale-far"},
	}}
	saleSrc := &fakeSaleSource{sales: []*sales.Sale{
		publishedSale("sale-1", "owner-1", "Maple St Moving Sale", digestNow.Add(3*time.Hour)),
		publishedSale("sale-2", "owner-2", "Vintage Tools", digestNow.Add(20*time.Hour)),
		publishedSale("sale-far", "owner-3", "Next Month Sale", digestNow.Add(96*time.Hour)),
	}}
	dir := &fakeDirectory{accounts: []accounts.Account{
		{ID: "acct-1", Email: "dana@example.com", DisplayName: strPtr("Dana")},
	}}
	sender := &recordingSender{}

	d := digestFixture(t, favStore, saleSrc, dir, &fakePrefs{}, sender)
	require.NoError(t, d.Handle(context.Background(), nil))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "dana@example.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].HTML, "Maple St Moving Sale")
	assert.Contains(t, sender.sent[0].HTML, "Vintage Tools")
	assert.NotContains(t, sender.sent[0].HTML, "Next Month Sale")

	require.Len(t, favStore.marked, 1)
	assert.ElementsMatch(t, []string{"fav-1", "fav-2"}, favStore.marked[0])
}

func TestStartingSoonDigest_WindowEdges(t *testing.T) {
	tests := []struct {
		name     string
		startsAt time.Time
		status   sales.SaleStatus
		want     bool
	}{
		{"just started within grace", digestNow.Add(-30 * time.Minute), sales.StatusPublished, true},
		{"started over an hour ago", digestNow.Add(-2 * time.Hour), sales.StatusPublished, false},
		{"at the far edge", digestNow.Add(24 * time.Hour), sales.StatusPublished, true},
		{"beyond the window", digestNow.Add(25 * time.Hour), sales.StatusPublished, false},
		{"draft sale in window", digestNow.Add(2 * time.Hour), sales.StatusDraft, false},
		{"cancelled sale in window", digestNow.Add(2 * time.Hour), sales.StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := publishedSale("sale-1", "owner-1", "Edge Case Sale", tt.startsAt)
			s.Status = tt.status

			favStore := &fakeFavoriteStore{favs: []Favorite{
				{ID: "fav-1", UserID: "acct-1", SaleID: "sale-1"},
			}}
			dir := &fakeDirectory{accounts: []accounts.Account{
				{ID: "acct-1", Email: "dana@example.com"},
			}}
			sender := &recordingSender{}

			d := digestFixture(t, favStore, &fakeSaleSource{sales: []*sales.Sale{s}}, dir, &fakePrefs{}, sender)
			require.NoError(t, d.Handle(context.Background(), nil))

			if tt.want {
				assert.Len(t, sender.sent, 1)
			} else {
				assert.Empty(t, sender.sent)
				assert.Empty(t, favStore.marked)
			}
		})
	}
}

func TestStartingSoonDigest_PrefsFailOpen(t *testing.T) {
	favStore := &fakeFavoriteStore{favs: []Favorite{
		{ID: "fav-1", UserID: "acct-1", SaleID: "sale-1"},
	}}
	saleSrc := &fakeSaleSource{sales: []*sales.Sale{
		publishedSale("sale-1", "owner-1", "Maple St Moving Sale", digestNow.Add(3*time.Hour)),
	}}
	dir := &fakeDirectory{accounts: []accounts.Account{
		{ID: "acct-1", Email: "dana@example.com"},
	}}
	sender := &recordingSender{}

	d := digestFixture(t, favStore, saleSrc, dir, &fakePrefs{err: errors.New("profiles table offline")}, sender)
	require.NoError(t, d.Handle(context.Background(), nil))

	assert.Len(t, sender.sent, 1, "a preference lookup failure must not suppress delivery")
}

func TestStartingSoonDigest_ExplicitOptOut(t *testing.T) {
	favStore := &fakeFavoriteStore{favs: []Favorite{
		{ID: "fav-1", UserID: "acct-1", SaleID: "sale-1"},
	}}
	saleSrc := &fakeSaleSource{sales: []*sales.Sale{
		publishedSale("sale-1", "owner-1", "Maple St Moving Sale", digestNow.Add(3*time.Hour)),
	}}
	dir := &fakeDirectory{accounts: []accounts.Account{
		{ID: "acct-1", Email: "dana@example.com"},
	}}
	prefs := &fakePrefs{prefs: map[string]accounts.Prefs{
		"acct-1": {StartingSoonDigest: false, WeeklyAnalytics: true},
	}}
	sender := &recordingSender{}

	d := digestFixture(t, favStore, saleSrc, dir, prefs, sender)
	require.NoError(t, d.Handle(context.Background(), nil))

	assert.Empty(t, sender.sent)
	assert.Empty(t, favStore.marked, "opted-out favorites stay unstamped")
}

func TestStartingSoonDigest_SendFailureIsolation(t *testing.T) {
	// acct-1's mailbox rejects the send; acct-2 still gets its digest and
	// only acct-2's favorite is stamped. The rejected favorite stays
	// unstamped so a later pass can retry it.
	favStore := &fakeFavoriteStore{favs: []Favorite{
		{ID: "fav-1", UserID: "acct-1", SaleID: "sale-1"},
		{ID: "fav-2", UserID: "acct-2", SaleID: "sale-1"},
	}}
	saleSrc := &fakeSaleSource{sales: []*sales.Sale{
		publishedSale("sale-1", "owner-1", "Maple St Moving Sale", digestNow.Add(3*time.Hour)),
	}}
	dir := &fakeDirectory{accounts: []accounts.Account{
		{ID: "acct-1", Email: "bounce@example.com"},
		{ID: "acct-2", Email: "dana@example.com"},
	}}
	sender := &recordingSender{failTo: map[string]bool{"bounce@example.com": true}}

	d := digestFixture(t, favStore, saleSrc, dir, &fakePrefs{}, sender)
	require.NoError(t, d.Handle(context.Background(), nil))

	require.Len(t, favStore.marked, 1)
	assert.Equal(t, []string{"fav-2"}, favStore.marked[0])
}

func TestStartingSoonDigest_FeatureFlagOff(t *testing.T) {
	favStore := &fakeFavoriteStore{favs: []Favorite{
		{ID: "fav-1", UserID: "acct-1", SaleID: "sale-1"},
	}}
	sender := &recordingSender{}

	d := digestFixture(t, favStore, &fakeSaleSource{}, &fakeDirectory{}, &fakePrefs{}, sender)
	d.cfg.Digest.StartingSoonEnabled = false

	require.NoError(t, d.Handle(context.Background(), nil))
	assert.Empty(t, sender.sent)
}

func TestStartingSoonDigest_EnumerationFailureRetries(t *testing.T) {
	favStore := &fakeFavoriteStore{listErr: errors.New("favorites table offline")}
	d := digestFixture(t, favStore, &fakeSaleSource{}, &fakeDirectory{}, &fakePrefs{}, &recordingSender{})

	assert.Error(t, d.Handle(context.Background(), nil))
}
