package census

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cstore-dashboard/internal/config"
)

const acsBody = `[
["NAME","B01001_001E","B01002_001E","B19013_001E","B25077_001E","B23025_005E","B15003_022E","B15003_023E","B02001_002E","B02001_003E","B03003_003E","B11001_002E","B25003_002E","B25003_003E","B08303_001E","state","county"],
["Jefferson County, Idaho","30891","33.2","71533","285400","512","2890","940","29120","85","3120","7450","8120","1890","22.5","16","065"]
]`

func newTestClient(url string) *Client {
	return NewClient(config.CensusConfig{
		BaseURL: url,
		Timeout: 5 * time.Second,
	})
}

func TestCountyProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("for"); got != "county:065" {
			t.Errorf("for = %q, want county:065", got)
		}
		if got := q.Get("in"); got != "state:16" {
			t.Errorf("in = %q, want state:16", got)
		}
		w.Write([]byte(acsBody))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	profile, err := c.CountyProfile(context.Background(), "16", "065")
	if err != nil {
		t.Fatalf("CountyProfile() error: %v", err)
	}

	if profile.Name != "Jefferson County, Idaho" {
		t.Errorf("Name = %q", profile.Name)
	}
	if profile.TotalPopulation != 30891 {
		t.Errorf("TotalPopulation = %f, want 30891", profile.TotalPopulation)
	}
	if profile.MedianAge != 33.2 {
		t.Errorf("MedianAge = %f, want 33.2", profile.MedianAge)
	}
	if profile.MedianHouseholdIncome != 71533 {
		t.Errorf("MedianHouseholdIncome = %f, want 71533", profile.MedianHouseholdIncome)
	}
	if profile.AvgCommuteMinutes != 22.5 {
		t.Errorf("AvgCommuteMinutes = %f, want 22.5", profile.AvgCommuteMinutes)
	}
}

func TestCountyProfile_CachesResponses(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(acsBody))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	for range 3 {
		if _, err := c.CountyProfile(context.Background(), "16", "065"); err != nil {
			t.Fatalf("CountyProfile() error: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("census API called %d times, want 1 (cached)", got)
	}
}

func TestCountyProfile_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	if _, err := c.CountyProfile(context.Background(), "16", "065"); err == nil {
		t.Error("expected error on HTTP 502")
	}
}

func TestCountyProfile_Unreachable(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1")
	if _, err := c.CountyProfile(context.Background(), "16", "065"); err == nil {
		t.Error("expected error when the census API is unreachable")
	}
}

func TestParseACSResponse_SuppressedSentinel(t *testing.T) {
	body := `[
["NAME","B19013_001E","state","county"],
["Jefferson County, Idaho","-666666666","16","065"]
]`
	profile, err := parseACSResponse([]byte(body))
	if err != nil {
		t.Fatalf("parseACSResponse() error: %v", err)
	}
	if profile.MedianHouseholdIncome != 0 {
		t.Errorf("suppressed estimate should map to 0, got %f", profile.MedianHouseholdIncome)
	}
}

func TestParseACSResponse_Malformed(t *testing.T) {
	for _, body := range []string{
		`not json`,
		`[["NAME"]]`,
		`[["NAME","B01001_001E"],["only one"]]`,
	} {
		if _, err := parseACSResponse([]byte(body)); err == nil {
			t.Errorf("parseACSResponse(%q) should fail", body)
		}
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{"42.5", 42.5},
		{float64(7), 7},
		{"", 0},
		{"null", 0},
		{nil, 0},
		{"garbage", 0},
		{true, 0},
	}
	for _, tt := range tests {
		if got := toFloat(tt.in); got != tt.want {
			t.Errorf("toFloat(%v) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

func TestCountyForCity(t *testing.T) {
	tests := []struct {
		city       string
		wantCounty string
	}{
		{"IDAHO FALLS", BonnevilleCountyFIPS},
		{"Idaho Falls", BonnevilleCountyFIPS},
		{"AMMON FALLS", BonnevilleCountyFIPS},
		{"RIGBY", JeffersonCountyFIPS},
		{"RIRIE", JeffersonCountyFIPS},
		{"", JeffersonCountyFIPS},
	}
	for _, tt := range tests {
		state, county := CountyForCity(tt.city)
		if state != IdahoStateFIPS {
			t.Errorf("CountyForCity(%q) state = %q, want %q", tt.city, state, IdahoStateFIPS)
		}
		if county != tt.wantCounty {
			t.Errorf("CountyForCity(%q) county = %q, want %q", tt.city, county, tt.wantCounty)
		}
	}
}
