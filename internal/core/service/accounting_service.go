package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

// Option tunes the clock and random source of a service.
type Option func(*deps)

type deps struct {
	now func() time.Time
	rnd Random
}

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

// WithRandom overrides the random source.
func WithRandom(rnd Random) Option {
	return func(d *deps) { d.rnd = rnd }
}

func newDeps(opts []Option) deps {
	d := deps{
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&d)
	}
	if d.rnd == nil {
		d.rnd = NewTimeSeededRandom()
	}
	return d
}

// AccountingService applies the token and impact rules on top of a LedgerStore.
// Every balance-changing operation runs inside a single store transaction.
type AccountingService struct {
	store   ports.LedgerStore
	journal ports.JournalSink
	log     zerolog.Logger
	deps
}

var _ ports.AccountingService = (*AccountingService)(nil)

func NewAccountingService(store ports.LedgerStore, journal ports.JournalSink, log zerolog.Logger, opts ...Option) *AccountingService {
	return &AccountingService{
		store:   store,
		journal: journal,
		log:     log,
		deps:    newDeps(opts),
	}
}

// RecordRouteSelection credits the route's token reward to the user and logs
// the matching impact activity. A second selection of the same route fails
// with domain.ErrRouteAlreadySelected and changes nothing.
func (s *AccountingService) RecordRouteSelection(ctx context.Context, userID, routeID int64) (*domain.SelectedRoute, error) {
	var (
		sel      *domain.SelectedRoute
		earned   *domain.TokenTransaction
		activity *domain.ImpactActivity
	)
	err := s.store.WithTx(ctx, func(tx ports.LedgerStore) error {
		route, err := tx.GetRoute(ctx, routeID)
		if err != nil {
			return err
		}
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}

		now := s.now()
		sel, err = tx.CreateSelectedRoute(ctx, &domain.SelectedRoute{UserID: userID, RouteID: routeID, CreatedAt: now})
		if err != nil {
			return err
		}

		earned, err = applyTransaction(ctx, tx, &domain.TokenTransaction{
			UserID:      userID,
			Amount:      route.Tokens,
			Description: "Selected route: " + route.Name,
			Type:        domain.TransactionEarned,
			CreatedAt:   now,
		})
		if err != nil {
			return err
		}

		co2 := route.CO2Saved
		activity, err = applyActivity(ctx, tx, &domain.ImpactActivity{
			UserID:      userID,
			Title:       "Used " + route.TransportName,
			Description: fmt.Sprintf("From %s to %s", route.StartLocation, route.EndLocation),
			CO2Saved:    &co2,
			Icon:        domain.IconCheck,
			CreatedAt:   now,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("record route selection: %w", err)
	}

	s.journal.Enqueue(domain.JournalEntry{Kind: domain.JournalRouteSelection, UserID: userID, RecordID: sel.ID, Detail: fmt.Sprint(routeID), OccurredAt: sel.CreatedAt})
	s.journal.Enqueue(transactionEntry(earned))
	s.journal.Enqueue(activityEntry(activity))

	s.log.Info().Int64("user_id", userID).Int64("route_id", routeID).Int64("tokens", earned.Amount).Msg("route selected")
	return sel, nil
}

// RedeemTokens debits cost from the user's balance. The balance check and the
// debit happen in one transaction, so concurrent redemptions cannot overdraw.
func (s *AccountingService) RedeemTokens(ctx context.Context, in ports.RedeemInput) (*domain.TokenTransaction, error) {
	var redeemed *domain.TokenTransaction
	err := s.store.WithTx(ctx, func(tx ports.LedgerStore) error {
		user, err := tx.GetUser(ctx, in.UserID)
		if err != nil {
			return err
		}
		option, err := tx.GetRedemptionOption(ctx, in.OptionID)
		if err != nil {
			return err
		}
		if !option.Active {
			return domain.ErrRedemptionOptionNotFound
		}
		if in.Cost <= 0 {
			return domain.NewValidationError("cost must be a positive integer")
		}
		if user.Tokens < in.Cost {
			return fmt.Errorf("%w: balance %d, cost %d", domain.ErrInsufficientBalance, user.Tokens, in.Cost)
		}

		redeemed, err = applyTransaction(ctx, tx, &domain.TokenTransaction{
			UserID:      in.UserID,
			Amount:      -in.Cost,
			Description: "Redeemed: " + option.Title,
			Type:        domain.TransactionRedeemed,
			CreatedAt:   s.now(),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("redeem tokens: %w", err)
	}

	s.journal.Enqueue(transactionEntry(redeemed))
	s.log.Info().Int64("user_id", in.UserID).Int64("option_id", in.OptionID).Int64("cost", in.Cost).Msg("tokens redeemed")
	return redeemed, nil
}

// ComputeUserSnapshot aggregates the dashboard view of one user.
func (s *AccountingService) ComputeUserSnapshot(ctx context.Context, userID int64) (*ports.UserSnapshot, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("compute snapshot: %w", err)
	}
	txs, err := s.store.ListTokenTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("compute snapshot: %w", err)
	}
	activities, err := s.store.ListImpactActivitiesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("compute snapshot: %w", err)
	}

	now := s.now()
	return &ports.UserSnapshot{
		Username: user.Username,
		Role:     user.Role,
		Tokens:   user.Tokens,
		ImpactStats: ports.ImpactStats{
			CO2Saved:            user.CO2Saved.InexactFloat64(),
			EnergySaved:         user.EnergySaved.InexactFloat64(),
			RenewablePercentage: snapshotRenewablePercentage,
			CO2Goal:             snapshotCO2Goal,
			EnergyGoal:          snapshotEnergyGoal,
			RenewableGoal:       snapshotRenewableGoal,
			CommunityCO2:        snapshotCommunityCO2,
			CommunityEnergy:     snapshotCommunityEnergy,
			TreesEquivalent:     snapshotTreesEquivalent,
		},
		TokenActivity:    weeklyTokenActivity(now, txs),
		ImpactActivities: recentActivities(now, activities),
	}, nil
}

// ListRoutesForDisplay shapes the route catalog for the map. Routes the user
// already selected are flagged. An unknown user just gets no flags.
func (s *AccountingService) ListRoutesForDisplay(ctx context.Context, userID int64) ([]ports.RouteView, error) {
	routes, err := s.store.ListRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	selections, err := s.store.ListSelectedRoutesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	chosen := make(map[int64]bool, len(selections))
	for _, sel := range selections {
		chosen[sel.RouteID] = true
	}

	views := make([]ports.RouteView, 0, len(routes))
	for _, r := range routes {
		views = append(views, routeView(s.rnd, r, chosen[r.ID]))
	}
	return views, nil
}

// ListTransactions returns the user's ledger, newest first.
func (s *AccountingService) ListTransactions(ctx context.Context, userID int64) ([]*domain.TokenTransaction, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs, err := s.store.ListTokenTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *AccountingService) ImpactSummary(ctx context.Context, userID int64) (*ports.ImpactSummary, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("impact summary: %w", err)
	}
	activities, err := s.store.ListImpactActivitiesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("impact summary: %w", err)
	}

	views := make([]ports.ImpactActivityView, 0, len(activities))
	for _, a := range activities {
		views = append(views, ports.ImpactActivityView{
			ID:          fmt.Sprint(a.ID),
			Title:       a.Title,
			Description: a.Description,
			CO2Saved:    optionalFloat(a.CO2Saved),
			EnergySaved: optionalFloat(a.EnergySaved),
			Date:        a.CreatedAt,
		})
	}
	return &ports.ImpactSummary{
		CO2Saved:    user.CO2Saved.InexactFloat64(),
		EnergySaved: user.EnergySaved.InexactFloat64(),
		Activities:  views,
	}, nil
}

// ListRedemptionOptions returns the active reward catalog.
func (s *AccountingService) ListRedemptionOptions(ctx context.Context) ([]*domain.RedemptionOption, error) {
	opts, err := s.store.ListRedemptionOptions(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list redemption options: %w", err)
	}
	return opts, nil
}

// applyTransaction appends t and moves the owner's balance by its amount.
func applyTransaction(ctx context.Context, tx ports.LedgerStore, t *domain.TokenTransaction) (*domain.TokenTransaction, error) {
	created, err := tx.CreateTokenTransaction(ctx, t)
	if err != nil {
		return nil, err
	}
	user, err := tx.GetUser(ctx, t.UserID)
	if err != nil {
		return nil, err
	}
	balance := user.Tokens + created.Amount
	if _, err := tx.UpdateUser(ctx, user.ID, domain.UserPatch{Tokens: &balance}); err != nil {
		return nil, err
	}
	return created, nil
}

// applyActivity appends a and adds its savings to the owner's running totals.
func applyActivity(ctx context.Context, tx ports.LedgerStore, a *domain.ImpactActivity) (*domain.ImpactActivity, error) {
	created, err := tx.CreateImpactActivity(ctx, a)
	if err != nil {
		return nil, err
	}
	user, err := tx.GetUser(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	patch := domain.UserPatch{}
	if a.CO2Saved != nil {
		total := user.CO2Saved.Add(*a.CO2Saved)
		patch.CO2Saved = &total
	}
	if a.EnergySaved != nil {
		total := user.EnergySaved.Add(*a.EnergySaved)
		patch.EnergySaved = &total
	}
	if _, err := tx.UpdateUser(ctx, user.ID, patch); err != nil {
		return nil, err
	}
	return created, nil
}

func weeklyTokenActivity(now time.Time, txs []*domain.TokenTransaction) ports.TokenActivity {
	cutoff := now.Add(-weeklyWindow)
	var out ports.TokenActivity
	for _, t := range txs {
		if t.CreatedAt.Before(cutoff) {
			continue
		}
		switch t.Type {
		case domain.TransactionEarned:
			out.Earned += t.Amount
		case domain.TransactionRedeemed:
			out.Redeemed += -t.Amount
		}
	}
	return out
}

// recentActivities expects activities newest first, as the store returns them.
func recentActivities(now time.Time, activities []*domain.ImpactActivity) []ports.RecentActivity {
	n := min(len(activities), recentActivityCap)
	out := make([]ports.RecentActivity, 0, n)
	for _, a := range activities[:n] {
		out = append(out, ports.RecentActivity{
			ID:     fmt.Sprint(a.ID),
			Title:  a.Title,
			Time:   relativeDayLabel(now, a.CreatedAt),
			Impact: impactText(a),
			Icon:   string(a.Icon),
		})
	}
	return out
}

func transactionEntry(t *domain.TokenTransaction) domain.JournalEntry {
	return domain.JournalEntry{
		Kind:       domain.JournalTokenTransaction,
		UserID:     t.UserID,
		RecordID:   t.ID,
		Amount:     t.Amount,
		Detail:     t.Description,
		OccurredAt: t.CreatedAt,
	}
}

func activityEntry(a *domain.ImpactActivity) domain.JournalEntry {
	return domain.JournalEntry{
		Kind:       domain.JournalImpactActivity,
		UserID:     a.UserID,
		RecordID:   a.ID,
		Detail:     a.Title,
		OccurredAt: a.CreatedAt,
	}
}

// NopJournal discards journal entries. It is used when no journal store is
// configured.
type NopJournal struct{}

func (NopJournal) Enqueue(domain.JournalEntry) {}
