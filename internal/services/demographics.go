package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cstore-dashboard/internal/census"
	"cstore-dashboard/internal/dataset"
	"cstore-dashboard/internal/models"
)

// ErrUnknownStore marks a store ID absent from the loaded dataset.
var ErrUnknownStore = errors.New("unknown store")

// StoreProfile joins one store with the demographics of its county. No
// sales aggregation happens here; it is a static lookup keyed by the
// store's geographic identifier.
type StoreProfile struct {
	Store        models.Store               `json:"store"`
	StateFIPS    string                     `json:"state_fips"`
	CountyFIPS   string                     `json:"county_fips"`
	Demographics *census.CountyDemographics `json:"demographics"`
}

type Demographics struct {
	census *census.Client
	loader *dataset.Loader
	logger *slog.Logger
}

func NewDemographics(client *census.Client, loader *dataset.Loader, logger *slog.Logger) *Demographics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Demographics{census: client, loader: loader, logger: logger}
}

// Profile resolves one store by ID and fetches its county demographics.
// An unknown store is an error; a census failure is passed through so the
// handler can degrade just this view.
func (d *Demographics) Profile(ctx context.Context, storeID string) (*StoreProfile, error) {
	var store *models.Store
	for _, s := range d.loader.Snapshot().Stores {
		if s.StoreID == storeID {
			store = &s
			break
		}
	}
	if store == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, storeID)
	}

	stateFIPS, countyFIPS := census.CountyForCity(store.City)
	demo, err := d.census.CountyProfile(ctx, stateFIPS, countyFIPS)
	if err != nil {
		return nil, fmt.Errorf("county %s-%s for store %s: %w", stateFIPS, countyFIPS, storeID, err)
	}

	return &StoreProfile{
		Store:        *store,
		StateFIPS:    stateFIPS,
		CountyFIPS:   countyFIPS,
		Demographics: demo,
	}, nil
}

// Compare fetches profiles for a primary store and optional comparison
// stores. Every requested store must resolve; the first failure aborts.
func (d *Demographics) Compare(ctx context.Context, storeIDs ...string) ([]StoreProfile, error) {
	profiles := make([]StoreProfile, 0, len(storeIDs))
	for _, id := range storeIDs {
		p, err := d.Profile(ctx, id)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, nil
}
