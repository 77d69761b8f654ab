// Package memory implements the ledger store as a process-lifetime in-memory
// map per entity class.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp creation times.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.st.now = now }
}

// Store is a ports.LedgerStore backed by in-memory maps. All methods are safe
// for concurrent use; WithTx serialises a whole unit of work.
type Store struct {
	mu sync.RWMutex
	st *state
}

var _ ports.LedgerStore = (*Store)(nil)

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{st: &state{
		tables: newTables(),
		now:    func() time.Time { return time.Now().UTC() },
	}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close drops every record. The store must not be used afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.tables = newTables()
	return nil
}

// Ping reports whether the store is usable. It always succeeds for an open store.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// WithTx holds the write lock for the duration of fn and restores every table
// to its prior contents if fn fails or panics. Id sequences are not restored.
func (s *Store) WithTx(ctx context.Context, fn func(tx ports.LedgerStore) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	backup := s.st.tables.clone()
	committed := false
	defer func() {
		if !committed {
			s.st.tables = backup
		}
		s.mu.Unlock()
	}()

	if err := fn(s.st); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateUser(ctx, u)
}

func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetUser(ctx, id)
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.FindUserByUsername(ctx, username)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.FindUserByEmail(ctx, email)
}

func (s *Store) FindUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.FindUserByGoogleID(ctx, googleID)
}

func (s *Store) UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateUser(ctx, id, patch)
}

func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.ListUsers(ctx)
}

func (s *Store) CreateRoute(ctx context.Context, r *domain.Route) (*domain.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateRoute(ctx, r)
}

func (s *Store) GetRoute(ctx context.Context, id int64) (*domain.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetRoute(ctx, id)
}

func (s *Store) ListRoutes(ctx context.Context) ([]*domain.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.ListRoutes(ctx)
}

func (s *Store) CreateStation(ctx context.Context, cs *domain.ChargingStation) (*domain.ChargingStation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateStation(ctx, cs)
}

func (s *Store) GetStation(ctx context.Context, id int64) (*domain.ChargingStation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetStation(ctx, id)
}

func (s *Store) ListStations(ctx context.Context) ([]*domain.ChargingStation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.ListStations(ctx)
}

func (s *Store) UpdateStation(ctx context.Context, id int64, patch domain.StationPatch) (*domain.ChargingStation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.UpdateStation(ctx, id, patch)
}

func (s *Store) CreateTokenTransaction(ctx context.Context, t *domain.TokenTransaction) (*domain.TokenTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateTokenTransaction(ctx, t)
}

func (s *Store) ListTokenTransactionsByUser(ctx context.Context, userID int64) ([]*domain.TokenTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.ListTokenTransactionsByUser(ctx, userID)
}

func (s *Store) ListTokenTransactions(ctx context.Context) ([]*domain.TokenTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.ListTokenTransactions(ctx)
}

func (s *Store) CreateImpactActivity(ctx context.Context, a *domain.ImpactActivity) (*domain.ImpactActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateImpactActivity(ctx, a)
}

func (s *Store) ListImpactActivitiesByUser(ctx context.Context, userID int64) ([]*domain.ImpactActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.ListImpactActivitiesByUser(ctx, userID)
}

func (s *Store) CreateRedemptionOption(ctx context.Context, o *domain.RedemptionOption) (*domain.RedemptionOption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateRedemptionOption(ctx, o)
}

func (s *Store) GetRedemptionOption(ctx context.Context, id int64) (*domain.RedemptionOption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.GetRedemptionOption(ctx, id)
}

func (s *Store) ListRedemptionOptions(ctx context.Context, activeOnly bool) ([]*domain.RedemptionOption, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.ListRedemptionOptions(ctx, activeOnly)
}

func (s *Store) CreateSelectedRoute(ctx context.Context, sel *domain.SelectedRoute) (*domain.SelectedRoute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.CreateSelectedRoute(ctx, sel)
}

func (s *Store) ListSelectedRoutesByUser(ctx context.Context, userID int64) ([]*domain.SelectedRoute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.ListSelectedRoutesByUser(ctx, userID)
}

func (s *Store) ListSelectedRoutes(ctx context.Context) ([]*domain.SelectedRoute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.ListSelectedRoutes(ctx)
}

// ── unlocked state ────────────────────────────────────────────────────────────

type tables struct {
	users        map[int64]domain.User
	routes       map[int64]domain.Route
	stations     map[int64]domain.ChargingStation
	transactions map[int64]domain.TokenTransaction
	activities   map[int64]domain.ImpactActivity
	options      map[int64]domain.RedemptionOption
	selections   map[int64]domain.SelectedRoute
}

func newTables() tables {
	return tables{
		users:        make(map[int64]domain.User),
		routes:       make(map[int64]domain.Route),
		stations:     make(map[int64]domain.ChargingStation),
		transactions: make(map[int64]domain.TokenTransaction),
		activities:   make(map[int64]domain.ImpactActivity),
		options:      make(map[int64]domain.RedemptionOption),
		selections:   make(map[int64]domain.SelectedRoute),
	}
}

func (t tables) clone() tables {
	return tables{
		users:        cloneMap(t.users),
		routes:       cloneMap(t.routes),
		stations:     cloneMap(t.stations),
		transactions: cloneMap(t.transactions),
		activities:   cloneMap(t.activities),
		options:      cloneMap(t.options),
		selections:   cloneMap(t.selections),
	}
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// sequences hold the last id issued per entity class.
type sequences struct {
	user, route, station, transaction, activity, option, selection int64
}

// state holds the tables without any locking. It satisfies ports.LedgerStore
// so that the same code serves both plain calls and WithTx bodies.
type state struct {
	tables
	seq sequences
	now func() time.Time
}

func (st *state) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return st.now()
	}
	return t
}

// WithTx on the unlocked state runs fn inline; the enclosing Store.WithTx
// already owns the lock and the rollback.
func (st *state) WithTx(_ context.Context, fn func(tx ports.LedgerStore) error) error {
	return fn(st)
}

func (st *state) CreateUser(_ context.Context, u *domain.User) (*domain.User, error) {
	if u.Username == "" {
		return nil, domain.NewValidationError("username is required")
	}
	for _, existing := range st.users {
		switch {
		case domain.SameUsername(existing.Username, u.Username):
			return nil, fmt.Errorf("%w: username %q", domain.ErrUserExists, u.Username)
		case domain.SameEmail(existing.Email, u.Email):
			return nil, fmt.Errorf("%w: email %q", domain.ErrUserExists, u.Email)
		case u.GoogleID != "" && existing.GoogleID == u.GoogleID:
			return nil, fmt.Errorf("%w: google id", domain.ErrUserExists)
		}
	}

	st.seq.user++
	rec := *u
	rec.ID = st.seq.user
	rec.CreatedAt = st.stamp(u.CreatedAt)
	st.users[rec.ID] = rec
	return &rec, nil
}

func (st *state) GetUser(_ context.Context, id int64) (*domain.User, error) {
	u, ok := st.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (st *state) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	return st.findUser(func(u domain.User) bool { return domain.SameUsername(u.Username, username) })
}

func (st *state) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return st.findUser(func(u domain.User) bool { return domain.SameEmail(u.Email, email) })
}

func (st *state) FindUserByGoogleID(_ context.Context, googleID string) (*domain.User, error) {
	if googleID == "" {
		return nil, domain.ErrUserNotFound
	}
	return st.findUser(func(u domain.User) bool { return u.GoogleID == googleID })
}

// findUser scans in id order so that "first match" is deterministic.
func (st *state) findUser(match func(domain.User) bool) (*domain.User, error) {
	for _, u := range sortedValues(st.users, func(u domain.User) int64 { return u.ID }) {
		if match(*u) {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (st *state) UpdateUser(_ context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	u, ok := st.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if patch.Email != nil && *patch.Email != "" {
		for _, other := range st.users {
			if other.ID != id && domain.SameEmail(other.Email, *patch.Email) {
				return nil, fmt.Errorf("%w: email %q", domain.ErrUserExists, *patch.Email)
			}
		}
	}
	if patch.GoogleID != nil && *patch.GoogleID != "" {
		for _, other := range st.users {
			if other.ID != id && other.GoogleID == *patch.GoogleID {
				return nil, fmt.Errorf("%w: google id", domain.ErrUserExists)
			}
		}
	}
	patch.Apply(&u)
	st.users[id] = u
	return &u, nil
}

func (st *state) ListUsers(_ context.Context) ([]*domain.User, error) {
	return sortedValues(st.users, func(u domain.User) int64 { return u.ID }), nil
}

func (st *state) CreateRoute(_ context.Context, r *domain.Route) (*domain.Route, error) {
	st.seq.route++
	rec := *r
	rec.ID = st.seq.route
	rec.CreatedAt = st.stamp(r.CreatedAt)
	st.routes[rec.ID] = rec
	return &rec, nil
}

func (st *state) GetRoute(_ context.Context, id int64) (*domain.Route, error) {
	r, ok := st.routes[id]
	if !ok {
		return nil, domain.ErrRouteNotFound
	}
	return &r, nil
}

func (st *state) ListRoutes(_ context.Context) ([]*domain.Route, error) {
	return sortedValues(st.routes, func(r domain.Route) int64 { return r.ID }), nil
}

func (st *state) CreateStation(_ context.Context, cs *domain.ChargingStation) (*domain.ChargingStation, error) {
	st.seq.station++
	rec := *cs
	rec.ID = st.seq.station
	rec.CreatedAt = st.stamp(cs.CreatedAt)
	st.stations[rec.ID] = rec
	return &rec, nil
}

func (st *state) GetStation(_ context.Context, id int64) (*domain.ChargingStation, error) {
	cs, ok := st.stations[id]
	if !ok {
		return nil, domain.ErrStationNotFound
	}
	return &cs, nil
}

func (st *state) ListStations(_ context.Context) ([]*domain.ChargingStation, error) {
	return sortedValues(st.stations, func(cs domain.ChargingStation) int64 { return cs.ID }), nil
}

func (st *state) UpdateStation(_ context.Context, id int64, patch domain.StationPatch) (*domain.ChargingStation, error) {
	cs, ok := st.stations[id]
	if !ok {
		return nil, domain.ErrStationNotFound
	}
	patch.Apply(&cs)
	st.stations[id] = cs
	return &cs, nil
}

func (st *state) CreateTokenTransaction(_ context.Context, t *domain.TokenTransaction) (*domain.TokenTransaction, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if _, ok := st.users[t.UserID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	st.seq.transaction++
	rec := *t
	rec.ID = st.seq.transaction
	rec.CreatedAt = st.stamp(t.CreatedAt)
	st.transactions[rec.ID] = rec
	return &rec, nil
}

func (st *state) ListTokenTransactionsByUser(_ context.Context, userID int64) ([]*domain.TokenTransaction, error) {
	out := make([]*domain.TokenTransaction, 0)
	for _, t := range st.transactions {
		if t.UserID == userID {
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (st *state) ListTokenTransactions(_ context.Context) ([]*domain.TokenTransaction, error) {
	return sortedValues(st.transactions, func(t domain.TokenTransaction) int64 { return t.ID }), nil
}

func (st *state) CreateImpactActivity(_ context.Context, a *domain.ImpactActivity) (*domain.ImpactActivity, error) {
	if _, ok := st.users[a.UserID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	st.seq.activity++
	rec := *a
	rec.ID = st.seq.activity
	rec.CreatedAt = st.stamp(a.CreatedAt)
	st.activities[rec.ID] = rec
	return &rec, nil
}

func (st *state) ListImpactActivitiesByUser(_ context.Context, userID int64) ([]*domain.ImpactActivity, error) {
	out := make([]*domain.ImpactActivity, 0)
	for _, a := range st.activities {
		if a.UserID == userID {
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (st *state) CreateRedemptionOption(_ context.Context, o *domain.RedemptionOption) (*domain.RedemptionOption, error) {
	st.seq.option++
	rec := *o
	rec.ID = st.seq.option
	st.options[rec.ID] = rec
	return &rec, nil
}

func (st *state) GetRedemptionOption(_ context.Context, id int64) (*domain.RedemptionOption, error) {
	o, ok := st.options[id]
	if !ok {
		return nil, domain.ErrRedemptionOptionNotFound
	}
	return &o, nil
}

func (st *state) ListRedemptionOptions(_ context.Context, activeOnly bool) ([]*domain.RedemptionOption, error) {
	all := sortedValues(st.options, func(o domain.RedemptionOption) int64 { return o.ID })
	if !activeOnly {
		return all, nil
	}
	out := all[:0]
	for _, o := range all {
		if o.Active {
			out = append(out, o)
		}
	}
	return out, nil
}

func (st *state) CreateSelectedRoute(_ context.Context, sel *domain.SelectedRoute) (*domain.SelectedRoute, error) {
	for _, existing := range st.selections {
		if existing.UserID == sel.UserID && existing.RouteID == sel.RouteID {
			return nil, fmt.Errorf("%w: user %d route %d", domain.ErrRouteAlreadySelected, sel.UserID, sel.RouteID)
		}
	}
	st.seq.selection++
	rec := *sel
	rec.ID = st.seq.selection
	rec.CreatedAt = st.stamp(sel.CreatedAt)
	st.selections[rec.ID] = rec
	return &rec, nil
}

func (st *state) ListSelectedRoutesByUser(_ context.Context, userID int64) ([]*domain.SelectedRoute, error) {
	out := make([]*domain.SelectedRoute, 0)
	for _, sel := range st.selections {
		if sel.UserID == userID {
			out = append(out, &sel)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

func (st *state) ListSelectedRoutes(_ context.Context) ([]*domain.SelectedRoute, error) {
	return sortedValues(st.selections, func(s domain.SelectedRoute) int64 { return s.ID }), nil
}

// sortedValues copies the map values into a slice ordered by ascending id.
func sortedValues[V any](m map[int64]V, id func(V) int64) []*V {
	out := make([]*V, 0, len(m))
	for _, v := range m {
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return id(*out[i]) < id(*out[j]) })
	return out
}

func newerFirst(ti time.Time, idi int64, tj time.Time, idj int64) bool {
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return idi > idj
}
