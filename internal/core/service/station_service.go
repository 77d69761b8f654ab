package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/greenmiles/rewards-api/internal/core/domain"
	"github.com/greenmiles/rewards-api/internal/core/ports"
)

const renewableDriftSpan = 5

// StationService owns station reads and mutations. Every change is reported
// to the StationEvents listener, whatever surface triggered it.
type StationService struct {
	store            ports.LedgerStore
	events           ports.StationEvents
	persistRenewable bool
	log              zerolog.Logger
	deps
}

var _ ports.StationService = (*StationService)(nil)

// NewStationService builds the service. When persistRenewable is false the
// simulated renewable drift is broadcast but the stored value stays put.
func NewStationService(store ports.LedgerStore, events ports.StationEvents, persistRenewable bool, log zerolog.Logger, opts ...Option) *StationService {
	return &StationService{
		store:            store,
		events:           events,
		persistRenewable: persistRenewable,
		log:              log,
		deps:             newDeps(opts),
	}
}

func (s *StationService) ListStations(ctx context.Context) ([]*domain.ChargingStation, error) {
	return s.store.ListStations(ctx)
}

func (s *StationService) ListStationViews(ctx context.Context) ([]ports.StationView, error) {
	stations, err := s.store.ListStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	views := make([]ports.StationView, 0, len(stations))
	for _, st := range stations {
		views = append(views, stationView(st))
	}
	return views, nil
}

func (s *StationService) ListRoutes(ctx context.Context) ([]*domain.Route, error) {
	return s.store.ListRoutes(ctx)
}

func (s *StationService) SetAvailability(ctx context.Context, stationID int64, available bool) (*domain.ChargingStation, error) {
	updated, err := s.store.UpdateStation(ctx, stationID, domain.StationPatch{Available: &available})
	if err != nil {
		return nil, fmt.Errorf("set availability: %w", err)
	}
	s.log.Info().Int64("station_id", stationID).Bool("available", available).Msg("station availability set")
	s.events.StationAvailabilityChanged(updated)
	return updated, nil
}

// FlipRandomAvailability returns nil without error when there are no stations.
func (s *StationService) FlipRandomAvailability(ctx context.Context) (*domain.ChargingStation, error) {
	var updated *domain.ChargingStation
	err := s.store.WithTx(ctx, func(tx ports.LedgerStore) error {
		target, err := s.pick(ctx, tx)
		if err != nil || target == nil {
			return err
		}
		flipped := !target.Available
		updated, err = tx.UpdateStation(ctx, target.ID, domain.StationPatch{Available: &flipped})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("flip availability: %w", err)
	}
	if updated != nil {
		s.log.Debug().Int64("station_id", updated.ID).Bool("available", updated.Available).Msg("simulated availability flip")
		s.events.StationAvailabilityChanged(updated)
	}
	return updated, nil
}

// DriftRandomRenewable moves one station's renewable share by a delta in
// [-5, 5], clamped to the simulated range.
func (s *StationService) DriftRandomRenewable(ctx context.Context) (*domain.ChargingStation, error) {
	var updated *domain.ChargingStation
	err := s.store.WithTx(ctx, func(tx ports.LedgerStore) error {
		target, err := s.pick(ctx, tx)
		if err != nil || target == nil {
			return err
		}
		delta := s.rnd.Intn(2*renewableDriftSpan+1) - renewableDriftSpan
		pct := domain.ClampRenewable(target.RenewablePercentage + delta)
		if !s.persistRenewable {
			target.RenewablePercentage = pct
			updated = target
			return nil
		}
		updated, err = tx.UpdateStation(ctx, target.ID, domain.StationPatch{RenewablePercentage: &pct})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("drift renewable: %w", err)
	}
	if updated != nil {
		s.log.Debug().Int64("station_id", updated.ID).Int("renewable_percentage", updated.RenewablePercentage).Msg("simulated renewable drift")
		s.events.StationRenewableChanged(updated)
	}
	return updated, nil
}

func (s *StationService) pick(ctx context.Context, tx ports.LedgerStore) (*domain.ChargingStation, error) {
	stations, err := tx.ListStations(ctx)
	if err != nil || len(stations) == 0 {
		return nil, err
	}
	return stations[s.rnd.Intn(len(stations))], nil
}
