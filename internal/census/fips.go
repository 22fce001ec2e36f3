package census

import "strings"

// All stores in the dataset are in Idaho.
const IdahoStateFIPS = "16"

// Idaho county FIPS codes used by the store mapping.
const (
	JeffersonCountyFIPS  = "065"
	BonnevilleCountyFIPS = "019"
)

// CountyForCity maps a store city to its (state, county) FIPS pair. The
// dataset carries no coordinates, so the mapping goes by city name: the
// Idaho Falls area is Bonneville County, everything else defaults to
// Jefferson County. A geocoding service would replace this.
func CountyForCity(city string) (stateFIPS, countyFIPS string) {
	upper := strings.ToUpper(city)
	if strings.Contains(upper, "FALLS") || strings.Contains(upper, "IDAHO") {
		return IdahoStateFIPS, BonnevilleCountyFIPS
	}
	return IdahoStateFIPS, JeffersonCountyFIPS
}
