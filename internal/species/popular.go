package species

import (
	"context"
	"errors"
)

var errMissingTaxon = errors.New("provider returned no taxon")

// PopularSpecies returns the popular species with their observation counts.
//
// All detail lookups run concurrently and are settled before any count lookup
// starts. Items whose detail or count lookup fails are dropped; the rest keep
// the order of the configured keys. Per-item failures never fail the call.
func (s *Service) PopularSpecies(ctx context.Context) []Record {
	keys := s.popularKeys

	details := settleAll(ctx, len(keys), func(ctx context.Context, i int) (*Taxon, error) {
		taxon, err := s.provider.GetSpecies(ctx, keys[i])
		if err == nil && taxon == nil {
			err = errMissingTaxon
		}
		return taxon, err
	})

	type found struct {
		key   int64
		taxon *Taxon
	}
	survivors := make([]found, 0, len(keys))
	for i, d := range details {
		if d.err != nil {
			s.logger.Warn().Err(d.err).
				Int64("species_key", keys[i]).
				Msg("dropping popular species: detail lookup failed")
			continue
		}
		survivors = append(survivors, found{key: keys[i], taxon: d.value})
	}

	counts := settleAll(ctx, len(survivors), func(ctx context.Context, i int) (int64, error) {
		return s.provider.CountOccurrences(ctx, OccurrenceQuery{
			TaxonKey: survivors[i].key,
			Country:  s.country,
		})
	})

	records := make([]Record, 0, len(survivors))
	for i, c := range counts {
		if c.err != nil {
			s.logger.Warn().Err(c.err).
				Int64("species_key", survivors[i].key).
				Msg("dropping popular species: count lookup failed")
			continue
		}
		records = append(records, WithObservationCount(ToRecord(*survivors[i].taxon), c.value))
	}

	s.logger.Debug().
		Int("requested", len(keys)).
		Int("returned", len(records)).
		Msg("popular species aggregated")

	return records
}
