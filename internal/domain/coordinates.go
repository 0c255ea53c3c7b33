package domain

import "math"

// Immutable geographic point in degrees (latitude, longitude).
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// A named place with resolved coordinates.
type Location struct {
	Address string `json:"address"`
	LatLng
}

// Bounds is the smallest lat/lng rectangle containing every extended point.
// The zero value is empty.
type Bounds struct {
	SouthWest LatLng `json:"south_west"`
	NorthEast LatLng `json:"north_east"`
	count     int
}

// Extend grows the rectangle to include p.
func (b *Bounds) Extend(p LatLng) {
	if b.count == 0 {
		b.SouthWest, b.NorthEast = p, p
		b.count = 1
		return
	}

	b.SouthWest.Lat = math.Min(b.SouthWest.Lat, p.Lat)
	b.SouthWest.Lng = math.Min(b.SouthWest.Lng, p.Lng)
	b.NorthEast.Lat = math.Max(b.NorthEast.Lat, p.Lat)
	b.NorthEast.Lng = math.Max(b.NorthEast.Lng, p.Lng)
	b.count++
}

// Len reports how many points were used to build the bounds.
func (b Bounds) Len() int { return b.count }

func (b Bounds) Empty() bool { return b.count == 0 }

func (b Bounds) Contains(p LatLng) bool {
	if b.count == 0 {
		return false
	}
	return p.Lat >= b.SouthWest.Lat && p.Lat <= b.NorthEast.Lat &&
		p.Lng >= b.SouthWest.Lng && p.Lng <= b.NorthEast.Lng
}

func (b Bounds) Center() LatLng {
	return LatLng{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}
