// Package geocode provides the reverse-geocoding collaborator used for
// deriving human-friendly project names from coordinates.
package geocode

import "context"

// Place is the coarse locality description a reverse-geocode yields. Any of
// the fields may be empty; callers fall back to coordinate-derived names when
// nothing useful comes back.
type Place struct {
	Municipality string
	Region       string
	Neighborhood string
}

// Empty reports whether the lookup produced nothing usable.
func (p *Place) Empty() bool {
	return p == nil || (p.Municipality == "" && p.Region == "" && p.Neighborhood == "")
}

// Geocoder resolves coordinates to a locality description.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*Place, error)
}
