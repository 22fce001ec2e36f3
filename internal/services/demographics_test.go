package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cstore-dashboard/internal/census"
	"cstore-dashboard/internal/config"
	"cstore-dashboard/internal/dataset"
	"cstore-dashboard/internal/models"
)

const acsBody = `[
["NAME","B01001_001E","B19013_001E","state","county"],
["Jefferson County, Idaho","30891","71533","16","065"]
]`

func newTestDemographics(t *testing.T, censusURL string) *Demographics {
	t.Helper()
	loader := dataset.NewLoader(nil)
	loader.SetRecords(nil, []models.Store{
		{StoreID: "100", StoreName: "Store A", City: "RIGBY", State: "ID"},
		{StoreID: "200", StoreName: "Store B", City: "IDAHO FALLS", State: "ID"},
	})
	client := census.NewClient(config.CensusConfig{
		BaseURL: censusURL,
		Timeout: 5 * time.Second,
	})
	return NewDemographics(client, loader, nil)
}

func TestDemographics_Profile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(acsBody))
	}))
	defer server.Close()

	d := newTestDemographics(t, server.URL)
	profile, err := d.Profile(context.Background(), "100")
	if err != nil {
		t.Fatalf("Profile() error: %v", err)
	}

	if profile.Store.StoreID != "100" {
		t.Errorf("Store.StoreID = %q, want 100", profile.Store.StoreID)
	}
	if profile.StateFIPS != census.IdahoStateFIPS || profile.CountyFIPS != census.JeffersonCountyFIPS {
		t.Errorf("FIPS = %s-%s, want 16-065", profile.StateFIPS, profile.CountyFIPS)
	}
	if profile.Demographics == nil || profile.Demographics.TotalPopulation != 30891 {
		t.Errorf("demographics not populated: %+v", profile.Demographics)
	}
}

func TestDemographics_ProfileCountyMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(acsBody))
	}))
	defer server.Close()

	d := newTestDemographics(t, server.URL)
	profile, err := d.Profile(context.Background(), "200")
	if err != nil {
		t.Fatalf("Profile() error: %v", err)
	}
	if profile.CountyFIPS != census.BonnevilleCountyFIPS {
		t.Errorf("Idaho Falls store mapped to county %s, want %s", profile.CountyFIPS, census.BonnevilleCountyFIPS)
	}
}

func TestDemographics_UnknownStore(t *testing.T) {
	d := newTestDemographics(t, "http://127.0.0.1:1")
	_, err := d.Profile(context.Background(), "999")
	if !errors.Is(err, ErrUnknownStore) {
		t.Errorf("expected ErrUnknownStore, got %v", err)
	}
}

func TestDemographics_CensusFailure(t *testing.T) {
	d := newTestDemographics(t, "http://127.0.0.1:1")
	_, err := d.Profile(context.Background(), "100")
	if err == nil {
		t.Fatal("expected error when the census API is unreachable")
	}
	if errors.Is(err, ErrUnknownStore) {
		t.Error("census failure must not be reported as an unknown store")
	}
}

func TestDemographics_Compare(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(acsBody))
	}))
	defer server.Close()

	d := newTestDemographics(t, server.URL)
	profiles, err := d.Compare(context.Background(), "100", "200")
	if err != nil {
		t.Fatalf("Compare() error: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("got %d profiles, want 2", len(profiles))
	}
	if profiles[0].Store.StoreID != "100" || profiles[1].Store.StoreID != "200" {
		t.Errorf("profiles out of order: %+v", profiles)
	}

	_, err = d.Compare(context.Background(), "100", "999")
	if !errors.Is(err, ErrUnknownStore) {
		t.Errorf("Compare with unknown store should fail, got %v", err)
	}
}
