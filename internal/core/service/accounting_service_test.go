package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
	"github.com/greenmiles/rewards-api/internal/infrastructure/db/memory"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fixedRandom struct {
	f float64
	n int
}

func (r fixedRandom) Float64() float64 { return r.f }
func (r fixedRandom) Intn(int) int     { return r.n }

type recordingJournal struct {
	mu      sync.Mutex
	entries []domain.JournalEntry
}

func (j *recordingJournal) Enqueue(e domain.JournalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, e)
}

// failingActivities wraps a store so that impact activity writes fail, also
// inside transactions.
type failingActivities struct {
	ports.LedgerStore
}

func (f failingActivities) CreateImpactActivity(context.Context, *domain.ImpactActivity) (*domain.ImpactActivity, error) {
	return nil, errors.New("disk full")
}

func (f failingActivities) WithTx(ctx context.Context, fn func(tx ports.LedgerStore) error) error {
	return f.LedgerStore.WithTx(ctx, func(tx ports.LedgerStore) error {
		return fn(failingActivities{LedgerStore: tx})
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newLedger(t *testing.T) *memory.Store {
	t.Helper()
	return memory.NewStore(memory.WithClock(fixedClock))
}

func newAccounting(store ports.LedgerStore, journal ports.JournalSink) *AccountingService {
	return NewAccountingService(store, journal, zerolog.Nop(),
		WithClock(fixedClock), WithRandom(fixedRandom{f: 0.5}))
}

func mustUser(t *testing.T, store ports.LedgerStore, name string) *domain.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), &domain.User{Username: name, Role: domain.RoleCommuter})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func mustRoute(t *testing.T, store ports.LedgerStore, tokens int64, co2 string) *domain.Route {
	t.Helper()
	r, err := store.CreateRoute(context.Background(), &domain.Route{
		Name:          "Green Commute",
		Type:          domain.RouteOffice,
		StartLocation: "Home",
		EndLocation:   "Office",
		StartLat:      decimal.RequireFromString("28.6139"),
		StartLng:      decimal.RequireFromString("77.2090"),
		EndLat:        decimal.RequireFromString("28.4950"),
		EndLng:        decimal.RequireFromString("77.0895"),
		CO2Saved:      decimal.RequireFromString(co2),
		Tokens:        tokens,
		TransportName: "Delhi Metro",
	})
	if err != nil {
		t.Fatalf("create route: %v", err)
	}
	return r
}

func mustOption(t *testing.T, store ports.LedgerStore, cost int64, active bool) *domain.RedemptionOption {
	t.Helper()
	o, err := store.CreateRedemptionOption(context.Background(), &domain.RedemptionOption{Title: "Metro pass", Cost: cost, Active: active})
	if err != nil {
		t.Fatalf("create option: %v", err)
	}
	return o
}

func credit(t *testing.T, store ports.LedgerStore, userID, amount int64, at time.Time) {
	t.Helper()
	err := store.WithTx(context.Background(), func(tx ports.LedgerStore) error {
		typ := domain.TransactionEarned
		if amount < 0 {
			typ = domain.TransactionRedeemed
		}
		_, err := applyTransaction(context.Background(), tx, &domain.TokenTransaction{UserID: userID, Amount: amount, Type: typ, CreatedAt: at})
		return err
	})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
}

// ---------------------------------------------------------------------------
// RecordRouteSelection
// ---------------------------------------------------------------------------

func TestAccounting_RecordRouteSelection_CreditsAndLogsImpact(t *testing.T) {
	store := newLedger(t)
	journal := &recordingJournal{}
	svc := newAccounting(store, journal)
	ctx := context.Background()
	u := mustUser(t, store, "alice")
	r := mustRoute(t, store, 50, "2.4")

	sel, err := svc.RecordRouteSelection(ctx, u.ID, r.ID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if sel.UserID != u.ID || sel.RouteID != r.ID {
		t.Errorf("unexpected selection: %+v", sel)
	}

	got, _ := store.GetUser(ctx, u.ID)
	if got.Tokens != 50 {
		t.Errorf("expected balance 50, got %d", got.Tokens)
	}
	if !got.CO2Saved.Equal(decimal.RequireFromString("2.4")) {
		t.Errorf("expected co2 total 2.4, got %s", got.CO2Saved)
	}

	txs, _ := store.ListTokenTransactionsByUser(ctx, u.ID)
	if len(txs) != 1 || txs[0].Type != domain.TransactionEarned || txs[0].Amount != 50 {
		t.Fatalf("expected one earned transaction of 50, got %+v", txs)
	}
	if txs[0].Description != "Selected route: Green Commute" {
		t.Errorf("unexpected description %q", txs[0].Description)
	}

	acts, _ := store.ListImpactActivitiesByUser(ctx, u.ID)
	if len(acts) != 1 {
		t.Fatalf("expected one activity, got %d", len(acts))
	}
	a := acts[0]
	if a.Title != "Used Delhi Metro" || a.Description != "From Home to Office" || a.Icon != domain.IconCheck {
		t.Errorf("unexpected activity: %+v", a)
	}
	if a.EnergySaved != nil {
		t.Errorf("expected no energy on a route activity")
	}

	if len(journal.entries) != 3 {
		t.Errorf("expected 3 journal entries, got %d", len(journal.entries))
	}
}

func TestAccounting_RecordRouteSelection_RouteNotFound(t *testing.T) {
	store := newLedger(t)
	svc := newAccounting(store, NopJournal{})
	u := mustUser(t, store, "alice")

	_, err := svc.RecordRouteSelection(context.Background(), u.ID, 99)
	if !errors.Is(err, domain.ErrRouteNotFound) {
		t.Errorf("expected ErrRouteNotFound, got: %v", err)
	}
}

func TestAccounting_RecordRouteSelection_DuplicateDoesNotDoubleCredit(t *testing.T) {
	store := newLedger(t)
	svc := newAccounting(store, NopJournal{})
	ctx := context.Background()
	u := mustUser(t, store, "alice")
	r := mustRoute(t, store, 50, "2.4")

	if _, err := svc.RecordRouteSelection(ctx, u.ID, r.ID); err != nil {
		t.Fatalf("first selection: %v", err)
	}
	_, err := svc.RecordRouteSelection(ctx, u.ID, r.ID)
	if !errors.Is(err, domain.ErrRouteAlreadySelected) {
		t.Fatalf("expected ErrRouteAlreadySelected, got: %v", err)
	}

	got, _ := store.GetUser(ctx, u.ID)
	if got.Tokens != 50 {
		t.Errorf("expected balance to stay 50, got %d", got.Tokens)
	}
	txs, _ := store.ListTokenTransactionsByUser(ctx, u.ID)
	if len(txs) != 1 {
		t.Errorf("expected a single transaction, got %d", len(txs))
	}
}

func TestAccounting_RecordRouteSelection_RollsBackOnPartialFailure(t *testing.T) {
	ledger := newLedger(t)
	svc := newAccounting(failingActivities{LedgerStore: ledger}, NopJournal{})
	ctx := context.Background()
	u := mustUser(t, ledger, "alice")
	r := mustRoute(t, ledger, 50, "2.4")

	if _, err := svc.RecordRouteSelection(ctx, u.ID, r.ID); err == nil {
		t.Fatal("expected error from failing activity write")
	}

	got, _ := ledger.GetUser(ctx, u.ID)
	if got.Tokens != 0 {
		t.Errorf("expected balance rolled back to 0, got %d", got.Tokens)
	}
	txs, _ := ledger.ListTokenTransactionsByUser(ctx, u.ID)
	if len(txs) != 0 {
		t.Errorf("expected no transactions, got %d", len(txs))
	}
	sels, _ := ledger.ListSelectedRoutesByUser(ctx, u.ID)
	if len(sels) != 0 {
		t.Errorf("expected selection rolled back")
	}
}

// ---------------------------------------------------------------------------
// RedeemTokens
// ---------------------------------------------------------------------------

func TestAccounting_RedeemTokens_Debits(t *testing.T) {
	store := newLedger(t)
	svc := newAccounting(store, NopJournal{})
	ctx := context.Background()
	u := mustUser(t, store, "alice")
	o := mustOption(t, store, 100, true)
	credit(t, store, u.ID, 150, testNow)

	tx, err := svc.RedeemTokens(ctx, ports.RedeemInput{UserID: u.ID, OptionID: o.ID, Cost: 100})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if tx.Amount != -100 || tx.Type != domain.TransactionRedeemed {
		t.Errorf("unexpected transaction: %+v", tx)
	}
	got, _ := store.GetUser(ctx, u.ID)
	if got.Tokens != 50 {
		t.Errorf("expected balance 50, got %d", got.Tokens)
	}
}

func TestAccounting_RedeemTokens_InsufficientBalanceLeavesLedgerUnchanged(t *testing.T) {
	store := newLedger(t)
	svc := newAccounting(store, NopJournal{})
	ctx := context.Background()
	u := mustUser(t, store, "alice")
	o := mustOption(t, store, 100, true)
	credit(t, store, u.ID, 80, testNow)

	_, err := svc.RedeemTokens(ctx, ports.RedeemInput{UserID: u.ID, OptionID: o.ID, Cost: 100})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got: %v", err)
	}
	got, _ := store.GetUser(ctx, u.ID)
	if got.Tokens != 80 {
		t.Errorf("expected balance 80, got %d", got.Tokens)
	}
	txs, _ := store.ListTokenTransactionsByUser(ctx, u.ID)
	if len(txs) != 1 {
		t.Errorf("expected ledger unchanged, got %d rows", len(txs))
	}
}

func TestAccounting_RedeemTokens_Errors(t *testing.T) {
	store := newLedger(t)
	svc := newAccounting(store, NopJournal{})
	u := mustUser(t, store, "alice")
	active := mustOption(t, store, 10, true)
	inactive := mustOption(t, store, 10, false)
	credit(t, store, u.ID, 100, testNow)

	var ve *domain.ValidationError
	cases := []struct {
		name  string
		in    ports.RedeemInput
		check func(error) bool
	}{
		{"unknown user", ports.RedeemInput{UserID: 99, OptionID: active.ID, Cost: 10}, func(err error) bool { return errors.Is(err, domain.ErrUserNotFound) }},
		{"unknown option", ports.RedeemInput{UserID: u.ID, OptionID: 99, Cost: 10}, func(err error) bool { return errors.Is(err, domain.ErrRedemptionOptionNotFound) }},
		{"inactive option", ports.RedeemInput{UserID: u.ID, OptionID: inactive.ID, Cost: 10}, func(err error) bool { return errors.Is(err, domain.ErrRedemptionOptionNotFound) }},
		{"zero cost", ports.RedeemInput{UserID: u.ID, OptionID: active.ID, Cost: 0}, func(err error) bool { return errors.As(err, &ve) }},
		{"negative cost", ports.RedeemInput{UserID: u.ID, OptionID: active.ID, Cost: -5}, func(err error) bool { return errors.As(err, &ve) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RedeemTokens(context.Background(), tc.in)
			if !tc.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestAccounting_RedeemTokens_ConcurrentCannotOverdraw(t *testing.T) {
	store := newLedger(t)
	svc := newAccounting(store, NopJournal{})
	ctx := context.Background()
	u := mustUser(t, store, "alice")
	o := mustOption(t, store, 60, true)
	credit(t, store, u.ID, 100, testNow)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.RedeemTokens(ctx, ports.RedeemInput{UserID: u.ID, OptionID: o.ID, Cost: 60})
		}()
	}
	wg.Wait()

	got, _ := store.GetUser(ctx, u.ID)
	if got.Tokens != 40 {
		t.Errorf("expected exactly one redemption to succeed, balance %d", got.Tokens)
	}
}

// ---------------------------------------------------------------------------
// Balance invariant
// ---------------------------------------------------------------------------

func TestAccounting_BalanceEqualsLedgerSum(t *testing.T) {
	store := newLedger(t)
	svc := newAccounting(store, NopJournal{})
	ctx := context.Background()
	u := mustUser(t, store, "alice")
	o := mustOption(t, store, 30, true)
	r1 := mustRoute(t, store, 50, "1.0")
	r2 := mustRoute(t, store, 25, "0.5")

	steps := []func() error{
		func() error { _, err := svc.RecordRouteSelection(ctx, u.ID, r1.ID); return err },
		func() error {
			_, err := svc.RedeemTokens(ctx, ports.RedeemInput{UserID: u.ID, OptionID: o.ID, Cost: 30})
			return err
		},
		func() error { _, err := svc.RecordRouteSelection(ctx, u.ID, r2.ID); return err },
		func() error {
			_, err := svc.RedeemTokens(ctx, ports.RedeemInput{UserID: u.ID, OptionID: o.ID, Cost: 500})
			return err
		},
	}
	for _, step := range steps {
		_ = step()
	}

	got, _ := store.GetUser(ctx, u.ID)
	txs, _ := store.ListTokenTransactionsByUser(ctx, u.ID)
	var sum int64
	for _, tx := range txs {
		sum += tx.Amount
	}
	if got.Tokens != sum || sum != 45 {
		t.Errorf("balance %d, ledger sum %d, want 45", got.Tokens, sum)
	}
}

// ---------------------------------------------------------------------------
// ComputeUserSnapshot
// ---------------------------------------------------------------------------

func TestAccounting_Snapshot_ScenarioA(t *testing.T) {
	store := newLedger(t)
	svc := newAccounting(store, NopJournal{})
	ctx := context.Background()
	u := mustUser(t, store, "alice")
	r := mustRoute(t, store, 50, "2.4")

	if _, err := svc.RecordRouteSelection(ctx, u.ID, r.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	snap, err := svc.ComputeUserSnapshot(ctx, u.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Tokens != 50 {
		t.Errorf("expected tokens 50, got %d", snap.Tokens)
	}
	if snap.TokenActivity.Earned != 50 || snap.TokenActivity.Redeemed != 0 {
		t.Errorf("unexpected weekly activity: %+v", snap.TokenActivity)
	}
	if len(snap.ImpactActivities) != 1 || snap.ImpactActivities[0].Icon != "check" {
		t.Fatalf("expected one check activity, got %+v", snap.ImpactActivities)
	}
	if got := snap.ImpactActivities[0].Impact; got != "2.4 kg CO₂ saved" {
		t.Errorf("unexpected impact text %q", got)
	}
	if snap.ImpactActivities[0].Time != "Today" {
		t.Errorf("expected Today, got %q", snap.ImpactActivities[0].Time)
	}
	if snap.ImpactStats.CO2Goal != 50 || snap.ImpactStats.TreesEquivalent != 842 {
		t.Errorf("unexpected goal block: %+v", snap.ImpactStats)
	}
}

func TestAccounting_Snapshot_WeeklyWindow(t *testing.T) {
	store := newLedger(t)
	svc := newAccounting(store, NopJournal{})
	ctx := context.Background()
	u := mustUser(t, store, "alice")

	credit(t, store, u.ID, 200, testNow.Add(-30*24*time.Hour))
	credit(t, store, u.ID, 40, testNow.Add(-2*24*time.Hour))
	credit(t, store, u.ID, 10, testNow.Add(-7*24*time.Hour))
	credit(t, store, u.ID, -25, testNow.Add(-time.Hour))
	credit(t, store, u.ID, -70, testNow.Add(-8*24*time.Hour))

	snap, err := svc.ComputeUserSnapshot(ctx, u.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.TokenActivity.Earned != 50 {
		t.Errorf("expected weekly earned 50, got %d", snap.TokenActivity.Earned)
	}
	if snap.TokenActivity.Redeemed != 25 {
		t.Errorf("expected weekly redeemed 25, got %d", snap.TokenActivity.Redeemed)
	}
}

func TestAccounting_Snapshot_NoRecentTransactions(t *testing.T) {
	store := newLedger(t)
	svc := newAccounting(store, NopJournal{})
	u := mustUser(t, store, "alice")
	credit(t, store, u.ID, 10, testNow.Add(-10*24*time.Hour))

	snap, err := svc.ComputeUserSnapshot(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.TokenActivity != (ports.TokenActivity{}) {
		t.Errorf("expected zero weekly activity, got %+v", snap.TokenActivity)
	}
	if len(snap.ImpactActivities) != 0 {
		t.Errorf("expected empty activity feed")
	}
}

func TestAccounting_Snapshot_CapsRecentActivities(t *testing.T) {
	store := newLedger(t)
	svc := newAccounting(store, NopJournal{})
	ctx := context.Background()
	u := mustUser(t, store, "alice")
	energy := decimal.RequireFromString("8.6")
	for i := range 7 {
		_, err := store.CreateImpactActivity(ctx, &domain.ImpactActivity{
			UserID: u.ID, Title: "charge", EnergySaved: &energy, Icon: domain.IconBolt,
			CreatedAt: testNow.Add(-time.Duration(i) * 24 * time.Hour),
		})
		if err != nil {
			t.Fatalf("create activity: %v", err)
		}
	}

	snap, err := svc.ComputeUserSnapshot(ctx, u.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.ImpactActivities) != 5 {
		t.Fatalf("expected 5 activities, got %d", len(snap.ImpactActivities))
	}
	want := []string{"Today", "Yesterday", "2 days ago", "3 days ago", "4 days ago"}
	for i, a := range snap.ImpactActivities {
		if a.Time != want[i] {
			t.Errorf("activity %d: expected %q, got %q", i, want[i], a.Time)
		}
	}
	if snap.ImpactActivities[0].Impact != "8.6 kWh from renewable energy" {
		t.Errorf("unexpected impact text %q", snap.ImpactActivities[0].Impact)
	}
}

func TestAccounting_Snapshot_UserNotFound(t *testing.T) {
	svc := newAccounting(newLedger(t), NopJournal{})
	_, err := svc.ComputeUserSnapshot(context.Background(), 42)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Read models
// ---------------------------------------------------------------------------

func TestAccounting_ListRoutesForDisplay(t *testing.T) {
	store := newLedger(t)
	svc := newAccounting(store, NopJournal{})
	ctx := context.Background()
	u := mustUser(t, store, "alice")
	r1 := mustRoute(t, store, 50, "2.4")
	mustRoute(t, store, 30, "1.8")

	if _, err := svc.RecordRouteSelection(ctx, u.ID, r1.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	views, err := svc.ListRoutesForDisplay(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(views))
	}
	v := views[0]
	if !v.Selected || views[1].Selected {
		t.Errorf("expected only the first route selected")
	}
	if v.ID != "1" || v.ETA != "8:45 AM" {
		t.Errorf("unexpected view: %+v", v)
	}
	if v.StartCoord != [2]float64{28.6139, 77.2090} || v.EndCoord != [2]float64{28.4950, 77.0895} {
		t.Errorf("unexpected coordinates: %v %v", v.StartCoord, v.EndCoord)
	}
	if len(v.Points) != 3 || v.Points[0] != v.StartCoord || v.Points[2] != v.EndCoord {
		t.Errorf("unexpected points: %v", v.Points)
	}
}

func TestAccounting_ImpactSummary(t *testing.T) {
	store := newLedger(t)
	svc := newAccounting(store, NopJournal{})
	ctx := context.Background()
	u := mustUser(t, store, "alice")
	r := mustRoute(t, store, 50, "2.4")
	if _, err := svc.RecordRouteSelection(ctx, u.ID, r.ID); err != nil {
		t.Fatalf("select: %v", err)
	}

	sum, err := svc.ImpactSummary(ctx, u.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.CO2Saved != 2.4 || sum.EnergySaved != 0 {
		t.Errorf("unexpected totals: %+v", sum)
	}
	if len(sum.Activities) != 1 || sum.Activities[0].CO2Saved == nil || sum.Activities[0].EnergySaved != nil {
		t.Errorf("unexpected activities: %+v", sum.Activities)
	}
}

func TestAccounting_ListRedemptionOptions_ActiveOnly(t *testing.T) {
	store := newLedger(t)
	svc := newAccounting(store, NopJournal{})
	mustOption(t, store, 10, true)
	mustOption(t, store, 20, false)

	opts, err := svc.ListRedemptionOptions(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(opts) != 1 || !opts[0].Active {
		t.Errorf("expected only active options, got %+v", opts)
	}
}
