package location

import "board-service/internal/geoip"

// Source values recorded on reconciled locations.
const (
	SourceGPS     = "gps"
	SourceBrowser = "browser"
	SourceIP      = "ip"
)

// GPSCity is the placeholder city reported for GPS-sourced locations; no
// reverse geocoding is performed.
const GPSCity = "GPS Location"

// Result is the reconciled location with its provenance tag.
type Result struct {
	Country string
	City    string
	Source  string
}

// Reconcile merges the available signals into one reported location.
// GPS coordinates win, then a usable browser timezone, then the IP lookup.
// Country always comes from the IP lookup, and so does city except for the
// GPS case, which substitutes the placeholder.
func Reconcile(ipLoc geoip.Location, gpsLat, gpsLng *float64, browserTimezone string) Result {
	if hasCoordinate(gpsLat) && hasCoordinate(gpsLng) {
		return Result{Country: ipLoc.Country, City: GPSCity, Source: SourceGPS}
	}
	if browserTimezone != "" && browserTimezone != "Unknown" {
		return Result{Country: ipLoc.Country, City: ipLoc.City, Source: SourceBrowser}
	}
	return Result{Country: ipLoc.Country, City: ipLoc.City, Source: SourceIP}
}

// hasCoordinate treats absent and exactly-zero coordinates the same, so a
// null island fix never counts as a GPS signal.
func hasCoordinate(v *float64) bool {
	return v != nil && *v != 0
}
