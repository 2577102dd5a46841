// Package services contains the engine's business logic: session context
// management, project name generation, reference resolution, and the project
// lifecycle composition root.
package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/windrose-energy/windrose-engine/pkg/geocode"
	"github.com/windrose-energy/windrose-engine/pkg/models"
	"github.com/windrose-energy/windrose-engine/pkg/repositories"
)

// geocodeCacheTTL bounds how long a reverse-geocoded name is reused for the
// same (rounded) coordinates.
const geocodeCacheTTL = 24 * time.Hour

// ensureUniqueMaxAttempts caps the numeric-suffix search before falling back
// to a timestamp suffix.
const ensureUniqueMaxAttempts = 1000

// Extraction patterns for free-text queries, tried in fixed priority order.
// The ordering is part of the generator's contract: the first match wins.
var namePatterns = []*regexp.Regexp{
	// 1. "in/at {Location}" up to a terminator (wind farm / area / comma / for / with / end)
	regexp.MustCompile(`(?i)\b(?:in|at)\s+([A-Za-z][A-Za-z .'-]*?)(?:\s+wind\s+farm\b|\s+area\b|\s+for\b|\s+with\b|,|$)`),
	// 2. "{Location} wind farm"
	regexp.MustCompile(`(?i)\b([A-Za-z][A-Za-z .'-]*?)\s+wind\s+farm\b`),
	// 3. "near {Location}"
	regexp.MustCompile(`(?i)\bnear\s+([A-Za-z][A-Za-z .'-]*?)(?:\s+for\b|\s+with\b|,|$)`),
	// 4. "create/new project {Name}"
	regexp.MustCompile(`(?i)\b(?:create|new)\s+project\s+(?:named\s+|called\s+)?([A-Za-z0-9][A-Za-z0-9 .'_-]*)`),
	// 5. Leading capitalized phrase immediately before a keyword
	regexp.MustCompile(`^([A-Z][A-Za-z]*(?:\s+[A-Z][A-Za-z]*)*)\s+(?:terrain|wind|analysis|site)\b`),
}

var (
	nonNameChars  = regexp.MustCompile(`[^a-z0-9-]`)
	separatorRuns = regexp.MustCompile(`[\s_]+`)
	hyphenRuns    = regexp.MustCompile(`-{2,}`)
)

// NameGenerator derives and normalizes human-friendly project identifiers.
type NameGenerator interface {
	// GenerateFromQuery extracts a name from a free-text query, falling back
	// to reverse geocoding when coordinates are supplied, and finally to a
	// timestamp-derived generic name. The result is normalized but not yet
	// checked for uniqueness.
	GenerateFromQuery(ctx context.Context, query string, coords *models.Coordinates) string
	// GenerateFromCoordinates derives a name from a reverse-geocoded locality,
	// with a deterministic coordinate-based fallback.
	GenerateFromCoordinates(ctx context.Context, lat, lon float64) string
	// EnsureUnique suffixes base until it does not collide with an existing
	// project name.
	EnsureUnique(ctx context.Context, base string) (string, error)
}

type nameGenerator struct {
	geocoder geocode.Geocoder
	projects repositories.ProjectRepository
	logger   *zap.Logger

	mu    sync.Mutex
	cache map[string]cachedName
}

type cachedName struct {
	name     string
	cachedAt time.Time
}

// NewNameGenerator creates a project name generator.
func NewNameGenerator(geocoder geocode.Geocoder, projects repositories.ProjectRepository, logger *zap.Logger) NameGenerator {
	return &nameGenerator{
		geocoder: geocoder,
		projects: projects,
		logger:   logger.Named("namegen"),
		cache:    make(map[string]cachedName),
	}
}

// NormalizeName converts a raw name into the canonical kebab-case project
// identifier: lowercase, separator runs collapsed to single hyphens, anything
// outside [a-z0-9-] stripped, and a "-wind-farm" suffix appended unless the
// name already mentions wind or farm. Idempotent.
func NormalizeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = separatorRuns.ReplaceAllString(normalized, "-")
	normalized = nonNameChars.ReplaceAllString(normalized, "")
	normalized = hyphenRuns.ReplaceAllString(normalized, "-")
	normalized = strings.Trim(normalized, "-")

	if normalized == "" {
		return ""
	}
	if !strings.Contains(normalized, "wind") && !strings.Contains(normalized, "farm") {
		normalized += "-wind-farm"
	}
	return normalized
}

func (g *nameGenerator) GenerateFromQuery(ctx context.Context, query string, coords *models.Coordinates) string {
	for _, pattern := range namePatterns {
		m := pattern.FindStringSubmatch(strings.TrimSpace(query))
		if m == nil {
			continue
		}
		if name := NormalizeName(m[1]); name != "" {
			return name
		}
	}

	if coords != nil {
		return g.GenerateFromCoordinates(ctx, coords.Latitude, coords.Longitude)
	}

	name := genericTimestampName()
	g.logger.Debug("No name pattern matched, using generic name",
		zap.String("query", query),
		zap.String("name", name))
	return name
}

func (g *nameGenerator) GenerateFromCoordinates(ctx context.Context, lat, lon float64) string {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)

	g.mu.Lock()
	if entry, ok := g.cache[key]; ok && time.Since(entry.cachedAt) < geocodeCacheTTL {
		g.mu.Unlock()
		return entry.name
	}
	g.mu.Unlock()

	name := g.geocodedName(ctx, lat, lon)
	if name == "" {
		name = coordinateFallbackName(lat, lon)
	}

	g.mu.Lock()
	g.cache[key] = cachedName{name: name, cachedAt: time.Now()}
	g.mu.Unlock()
	return name
}

func (g *nameGenerator) geocodedName(ctx context.Context, lat, lon float64) string {
	place, err := g.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		g.logger.Warn("Reverse geocode failed, falling back to coordinate name",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		return ""
	}
	if place.Empty() {
		return ""
	}

	locality := place.Municipality
	if locality == "" {
		locality = place.Neighborhood
	}
	parts := []string{}
	if locality != "" {
		parts = append(parts, locality)
	}
	if place.Region != "" {
		parts = append(parts, place.Region)
	}
	return NormalizeName(strings.Join(parts, " "))
}

// coordinateFallbackName builds the deterministic site-{lat}{n|s}-{lon}{e|w}
// name used when geocoding yields nothing.
func coordinateFallbackName(lat, lon float64) string {
	ns := "n"
	if lat < 0 {
		ns = "s"
		lat = -lat
	}
	ew := "e"
	if lon < 0 {
		ew = "w"
		lon = -lon
	}
	format := func(v float64) string {
		return strings.ReplaceAll(strconv.FormatFloat(v, 'f', 4, 64), ".", "-")
	}
	return fmt.Sprintf("site-%s%s-%s%s", format(lat), ns, format(lon), ew)
}

func genericTimestampName() string {
	return "wind-farm-" + time.Now().UTC().Format("20060102-150405")
}

func (g *nameGenerator) EnsureUnique(ctx context.Context, base string) (string, error) {
	existing, err := g.projects.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list projects for uniqueness check: %w", err)
	}

	taken := make(map[string]bool, len(existing))
	for _, p := range existing {
		taken[p.ProjectName] = true
	}

	if !taken[base] {
		return base, nil
	}
	for i := 2; i <= ensureUniqueMaxAttempts; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken[candidate] {
			return candidate, nil
		}
	}

	// Pathological collision space; a timestamp suffix ends the search.
	fallback := fmt.Sprintf("%s-%s", base, strconv.FormatInt(time.Now().UnixMilli(), 36))
	g.logger.Warn("Exhausted numeric suffixes for project name",
		zap.String("base", base),
		zap.String("fallback", fallback))
	return fallback, nil
}
