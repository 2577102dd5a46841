// Package geo implements proximity detection for project coordinates:
// great-circle distance, radius search, and duplicate clustering. Pure math,
// no I/O.
package geo

import (
	"math"
	"sort"

	"github.com/windrose-energy/windrose-engine/pkg/apperrors"
	"github.com/windrose-energy/windrose-engine/pkg/models"
)

// earthRadiusKm is the mean Earth radius used by the Haversine formula.
const earthRadiusKm = 6371.0

// Distance returns the great-circle (Haversine) distance between two points
// in kilometers. It is symmetric and returns zero for identical points.
func Distance(a, b models.Coordinates) (float64, error) {
	if !a.Valid() {
		return 0, apperrors.InvalidCoordinates(a.Latitude, a.Longitude)
	}
	if !b.Valid() {
		return 0, apperrors.InvalidCoordinates(b.Latitude, b.Longitude)
	}

	latA := a.Latitude * math.Pi / 180
	latB := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLon*sinLon

	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h))), nil
}

// WithinRadius returns the projects whose coordinates lie within radiusKm of
// target, sorted ascending by distance. Projects without coordinates are
// skipped.
func WithinRadius(projects []*models.Project, target models.Coordinates, radiusKm float64) ([]models.DuplicateMatch, error) {
	if radiusKm <= 0 {
		return nil, apperrors.InvalidSearchRadius(radiusKm)
	}
	if !target.Valid() {
		return nil, apperrors.InvalidCoordinates(target.Latitude, target.Longitude)
	}

	var matches []models.DuplicateMatch
	for _, p := range projects {
		if p.Coordinates == nil {
			continue
		}
		d, err := Distance(target, *p.Coordinates)
		if err != nil {
			return nil, err
		}
		if d <= radiusKm {
			matches = append(matches, models.DuplicateMatch{Project: p, DistanceKm: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].DistanceKm < matches[j].DistanceKm
	})
	return matches, nil
}

// GroupDuplicates clusters coordinate-bearing projects whose positions fall
// within radiusKm of each other. Iterating in input order, each unvisited
// project's neighborhood (itself included) becomes a group when it has more
// than one member; the group is anchored at the first-encountered project's
// position rather than a centroid, so results can depend on input ordering
// when radii overlap asymmetrically. Grouped projects are excluded from later
// neighborhoods, so groups never share a member. Singletons are not grouped.
// Groups are returned sorted by descending member count.
func GroupDuplicates(projects []*models.Project, radiusKm float64) ([]models.DuplicateGroup, error) {
	if radiusKm <= 0 {
		return nil, apperrors.InvalidSearchRadius(radiusKm)
	}

	var located []*models.Project
	for _, p := range projects {
		if p.Coordinates != nil {
			located = append(located, p)
		}
	}

	visited := make(map[string]bool, len(located))
	var groups []models.DuplicateGroup

	for _, anchor := range located {
		if visited[anchor.ProjectName] {
			continue
		}

		var members []*models.Project
		var totalDistance float64
		for _, candidate := range located {
			// A project already claimed by an earlier group stays there;
			// groups never overlap.
			if visited[candidate.ProjectName] {
				continue
			}
			d, err := Distance(*anchor.Coordinates, *candidate.Coordinates)
			if err != nil {
				return nil, err
			}
			if d <= radiusKm {
				members = append(members, candidate)
				totalDistance += d
			}
		}

		if len(members) < 2 {
			continue
		}
		for _, m := range members {
			visited[m.ProjectName] = true
		}
		groups = append(groups, models.DuplicateGroup{
			AnchorCoordinates: *anchor.Coordinates,
			Projects:          members,
			Count:             len(members),
			AverageDistanceKm: totalDistance / float64(len(members)),
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	return groups, nil
}
