// Package census fetches county-level demographics from the U.S. Census
// Bureau ACS 5-Year Estimates API.
package census

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"cstore-dashboard/internal/config"
	"github.com/go-resty/resty/v2"
)

const acsDataset = "2021/acs/acs5"

// The ACS uses large negative sentinels for suppressed estimates.
const suppressedSentinel = -666666666

// acsVariables maps the queried ACS variable codes, in request order.
var acsVariables = []string{
	"B01001_001E", // total population
	"B01002_001E", // median age
	"B19013_001E", // median household income
	"B25077_001E", // median home value
	"B23025_005E", // unemployed
	"B15003_022E", // bachelor's degree
	"B15003_023E", // master's degree
	"B02001_002E", // white alone
	"B02001_003E", // black or african american
	"B03003_003E", // hispanic or latino
	"B11001_002E", // family households
	"B25003_002E", // owner occupied housing
	"B25003_003E", // renter occupied housing
	"B08303_001E", // average commute time
}

type CountyDemographics struct {
	Name                  string  `json:"name"`
	TotalPopulation       float64 `json:"total_population"`
	MedianAge             float64 `json:"median_age"`
	MedianHouseholdIncome float64 `json:"median_household_income"`
	MedianHomeValue       float64 `json:"median_home_value"`
	Unemployed            float64 `json:"unemployed"`
	BachelorsDegree       float64 `json:"bachelors_degree"`
	MastersDegree         float64 `json:"masters_degree"`
	WhiteAlone            float64 `json:"white_alone"`
	BlackAlone            float64 `json:"black_alone"`
	HispanicOrLatino      float64 `json:"hispanic_or_latino"`
	FamilyHouseholds      float64 `json:"family_households"`
	OwnerOccupied         float64 `json:"owner_occupied_housing"`
	RenterOccupied        float64 `json:"renter_occupied_housing"`
	AvgCommuteMinutes     float64 `json:"average_commute_time"`
}

type cacheEntry struct {
	data    *CountyDemographics
	fetched time.Time
}

// Client is a caching ACS client. County demographics change yearly, so a
// one-hour TTL is generous.
type Client struct {
	http    *resty.Client
	baseURL string
	apiKey  string

	mu    sync.RWMutex
	cache map[string]cacheEntry
	ttl   time.Duration
}

func NewClient(cfg config.CensusConfig) *Client {
	httpClient := resty.New()
	httpClient.SetTimeout(cfg.Timeout)

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		cache:   make(map[string]cacheEntry),
		ttl:     time.Hour,
	}
}

// CountyProfile fetches the demographic profile for one county. Failures
// are returned to the caller; the demographics page degrades, the rest of
// the dashboard does not.
func (c *Client) CountyProfile(ctx context.Context, stateFIPS, countyFIPS string) (*CountyDemographics, error) {
	key := stateFIPS + "|" + countyFIPS

	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()
	if ok && time.Since(entry.fetched) < c.ttl {
		return entry.data, nil
	}

	url := fmt.Sprintf("%s/%s?get=NAME,%s&for=county:%s&in=state:%s",
		c.baseURL, acsDataset, strings.Join(acsVariables, ","), countyFIPS, stateFIPS)
	if c.apiKey != "" {
		url += "&key=" + c.apiKey
	}

	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("census request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("census API returned HTTP %d", resp.StatusCode())
	}

	profile, err := parseACSResponse(resp.Body())
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[key] = cacheEntry{data: profile, fetched: time.Now()}
	c.mu.Unlock()

	return profile, nil
}

// parseACSResponse decodes the two-row array format the ACS API returns:
// a header row of column names followed by one value row.
func parseACSResponse(body []byte) (*CountyDemographics, error) {
	var rows [][]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode census response: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("census response has %d rows, want at least 2", len(rows))
	}

	header, values := rows[0], rows[1]
	if len(header) != len(values) {
		return nil, fmt.Errorf("census header/value length mismatch: %d vs %d", len(header), len(values))
	}

	byCode := make(map[string]any, len(header))
	for i, col := range header {
		name, ok := col.(string)
		if !ok {
			continue
		}
		byCode[name] = values[i]
	}

	get := func(code string) float64 {
		v := toFloat(byCode[code])
		if v == suppressedSentinel {
			return 0
		}
		return v
	}

	profile := &CountyDemographics{
		TotalPopulation:       get("B01001_001E"),
		MedianAge:             get("B01002_001E"),
		MedianHouseholdIncome: get("B19013_001E"),
		MedianHomeValue:       get("B25077_001E"),
		Unemployed:            get("B23025_005E"),
		BachelorsDegree:       get("B15003_022E"),
		MastersDegree:         get("B15003_023E"),
		WhiteAlone:            get("B02001_002E"),
		BlackAlone:            get("B02001_003E"),
		HispanicOrLatino:      get("B03003_003E"),
		FamilyHouseholds:      get("B11001_002E"),
		OwnerOccupied:         get("B25003_002E"),
		RenterOccupied:        get("B25003_003E"),
		AvgCommuteMinutes:     get("B08303_001E"),
	}
	if name, ok := byCode["NAME"].(string); ok {
		profile.Name = name
	}
	return profile, nil
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case string:
		if t == "" || t == "null" {
			return 0
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
