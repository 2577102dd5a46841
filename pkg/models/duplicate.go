package models

// DuplicateMatch pairs a project with its distance from a query point.
// Derived data, never persisted.
type DuplicateMatch struct {
	Project    *Project `json:"project"`
	DistanceKm float64  `json:"distance_km"`
}

// DuplicateGroup is a cluster of mutually proximate projects. The anchor is
// the first-encountered member's position, not a centroid; clustering is
// order-dependent when radii overlap asymmetrically.
type DuplicateGroup struct {
	AnchorCoordinates Coordinates `json:"anchor_coordinates"`
	Projects          []*Project  `json:"projects"`
	Count             int         `json:"count"`
	AverageDistanceKm float64     `json:"average_distance_km"`
}

// Resolution is the outcome of resolving a free-text project reference.
// Either ProjectName is set, or IsAmbiguous is true and Matches lists the
// candidates, or neither (no match at all).
type Resolution struct {
	ProjectName string   `json:"project_name,omitempty"`
	IsAmbiguous bool     `json:"is_ambiguous"`
	Matches     []string `json:"matches,omitempty"`
}
