package realtime

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenmiles/rewards-api/internal/core/ports"
)

// Simulator periodically perturbs station state through the station service,
// which in turn broadcasts each change.
type Simulator struct {
	stations             ports.StationService
	availabilityInterval time.Duration
	renewableInterval    time.Duration
	log                  zerolog.Logger
}

func NewSimulator(stations ports.StationService, availabilityInterval, renewableInterval time.Duration, log zerolog.Logger) *Simulator {
	return &Simulator{
		stations:             stations,
		availabilityInterval: availabilityInterval,
		renewableInterval:    renewableInterval,
		log:                  log,
	}
}

// Run blocks until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) {
	availability := time.NewTicker(s.availabilityInterval)
	renewable := time.NewTicker(s.renewableInterval)
	defer availability.Stop()
	defer renewable.Stop()

	s.log.Info().
		Dur("availability_interval", s.availabilityInterval).
		Dur("renewable_interval", s.renewableInterval).
		Msg("station simulator started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("station simulator stopped")
			return
		case <-availability.C:
			if _, err := s.stations.FlipRandomAvailability(ctx); err != nil {
				s.log.Error().Err(err).Msg("simulated availability flip failed")
			}
		case <-renewable.C:
			if _, err := s.stations.DriftRandomRenewable(ctx); err != nil {
				s.log.Error().Err(err).Msg("simulated renewable drift failed")
			}
		}
	}
}
