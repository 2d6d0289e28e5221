package mapview

import "strings"

// LatLng is a map coordinate pair
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Region is a dzongkhag the browse map can jump to
type Region struct {
	Name   string `json:"name"`
	Center LatLng `json:"center"`
	Zoom   int    `json:"zoom"`
}

// Zoom levels used by the viewport rules
const (
	DefaultZoom      = 12
	UserLocationZoom = 14
)

// DefaultCenter is the fixed fallback town center (Thimphu)
var DefaultCenter = LatLng{Lat: 27.4728, Lng: 89.6390}

// Regions lists the dzongkhags offered in the browse dropdown
var Regions = []Region{
	{Name: "Thimphu", Center: LatLng{Lat: 27.4728, Lng: 89.6390}, Zoom: DefaultZoom},
	{Name: "Paro", Center: LatLng{Lat: 27.4339, Lng: 89.4163}, Zoom: DefaultZoom},
	{Name: "Punakha", Center: LatLng{Lat: 27.6114, Lng: 89.8724}, Zoom: DefaultZoom},
	{Name: "Haa", Center: LatLng{Lat: 27.3686, Lng: 89.2908}, Zoom: DefaultZoom},
	{Name: "Bumthang", Center: LatLng{Lat: 27.6420, Lng: 90.6770}, Zoom: DefaultZoom},
	{Name: "Wangdue", Center: LatLng{Lat: 27.4870, Lng: 89.8990}, Zoom: DefaultZoom},
}

// LookupRegion finds a region by exact name
func LookupRegion(name string) (Region, bool) {
	for _, r := range Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// MatchRegion finds the first region whose name contains the query,
// case-insensitively. Empty queries match nothing.
func MatchRegion(query string) (Region, bool) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return Region{}, false
	}
	for _, r := range Regions {
		if strings.Contains(strings.ToLower(r.Name), query) {
			return r, true
		}
	}
	return Region{}, false
}
