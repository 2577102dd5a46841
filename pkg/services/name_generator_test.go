package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/windrose-energy/windrose-engine/pkg/geocode"
	"github.com/windrose-energy/windrose-engine/pkg/models"
)

type stubGeocoder struct {
	place *geocode.Place
	err   error
	calls int
}

func (g *stubGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*geocode.Place, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if g.place != nil {
		return g.place, nil
	}
	return &geocode.Place{}, nil
}

func newTestNameGenerator(geocoder geocode.Geocoder, repo *memoryProjectRepo) NameGenerator {
	return NewNameGenerator(geocoder, repo, zap.NewNop())
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Amarillo", "amarillo-wind-farm"},
		{"  West   Texas  ", "west-texas-wind-farm"},
		{"Amarillo Wind Farm", "amarillo-wind-farm"},
		{"St. John's Ridge", "st-johns-ridge-wind-farm"},
		{"amarillo-wind-farm", "amarillo-wind-farm"},
		{"windy_mesa", "windy-mesa"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	for _, in := range []string{"Amarillo", "near Lubbock, TX", "site-35n-101w"} {
		once := NormalizeName(in)
		assert.Equal(t, once, NormalizeName(once), "input %q", in)
	}
}

func TestGenerateFromQueryPatterns(t *testing.T) {
	gen := newTestNameGenerator(&stubGeocoder{}, newMemoryProjectRepo())

	tests := []struct {
		query string
		want  string
	}{
		{"run a terrain analysis in Amarillo", "amarillo-wind-farm"},
		{"analyze the site at Palo Duro Canyon", "palo-duro-canyon-wind-farm"},
		{"Sweetwater wind farm layout please", "sweetwater-wind-farm"},
		{"find a site near Lubbock for me", "lubbock-wind-farm"},
		{"create project named High Plains", "high-plains-wind-farm"},
		{"Amarillo terrain study", "amarillo-wind-farm"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, gen.GenerateFromQuery(context.Background(), tt.query, nil), "query %q", tt.query)
	}
}

func TestGenerateFromQueryPriorityOrder(t *testing.T) {
	gen := newTestNameGenerator(&stubGeocoder{}, newMemoryProjectRepo())

	// Both "in X" and "Y wind farm" could match; "in" wins.
	name := gen.GenerateFromQuery(context.Background(), "build the Sweetwater wind farm in Amarillo", nil)
	assert.Equal(t, "amarillo-wind-farm", name)
}

func TestGenerateFromQueryFallsBackToCoordinates(t *testing.T) {
	geocoder := &stubGeocoder{place: &geocode.Place{Municipality: "Amarillo", Region: "Texas"}}
	gen := newTestNameGenerator(geocoder, newMemoryProjectRepo())

	name := gen.GenerateFromQuery(context.Background(), "xyzzy", &models.Coordinates{Latitude: 35.2, Longitude: -101.8})
	assert.Equal(t, "amarillo-texas-wind-farm", name)
}

func TestGenerateFromQueryGenericFallback(t *testing.T) {
	gen := newTestNameGenerator(&stubGeocoder{}, newMemoryProjectRepo())

	name := gen.GenerateFromQuery(context.Background(), "xyzzy", nil)
	assert.True(t, strings.HasPrefix(name, "wind-farm-"), "got %q", name)
}

func TestGenerateFromCoordinates(t *testing.T) {
	t.Run("uses geocoded locality", func(t *testing.T) {
		geocoder := &stubGeocoder{place: &geocode.Place{Municipality: "Lubbock", Region: "Texas"}}
		gen := newTestNameGenerator(geocoder, newMemoryProjectRepo())

		name := gen.GenerateFromCoordinates(context.Background(), 33.6, -101.8)
		assert.Equal(t, "lubbock-texas-wind-farm", name)
	})

	t.Run("caches by rounded coordinates", func(t *testing.T) {
		geocoder := &stubGeocoder{place: &geocode.Place{Municipality: "Lubbock"}}
		gen := newTestNameGenerator(geocoder, newMemoryProjectRepo())

		first := gen.GenerateFromCoordinates(context.Background(), 33.6, -101.8)
		second := gen.GenerateFromCoordinates(context.Background(), 33.60001, -101.80001)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, geocoder.calls, "second lookup must hit the cache")
	})

	t.Run("coordinate fallback on geocoder failure", func(t *testing.T) {
		geocoder := &stubGeocoder{err: errors.New("timeout")}
		gen := newTestNameGenerator(geocoder, newMemoryProjectRepo())

		name := gen.GenerateFromCoordinates(context.Background(), 35.2, -101.8)
		assert.Equal(t, "site-35-2000n-101-8000w", name)
	})

	t.Run("southern and eastern hemispheres", func(t *testing.T) {
		geocoder := &stubGeocoder{}
		gen := newTestNameGenerator(geocoder, newMemoryProjectRepo())

		name := gen.GenerateFromCoordinates(context.Background(), -33.8, 151.2)
		assert.Equal(t, "site-33-8000s-151-2000e", name)
	})
}

func TestEnsureUnique(t *testing.T) {
	repo := newMemoryProjectRepo(
		siteProject("amarillo-wind-farm", 35.0, -101.0),
		siteProject("amarillo-wind-farm-2", 35.0, -101.0),
	)
	gen := newTestNameGenerator(&stubGeocoder{}, repo)

	name, err := gen.EnsureUnique(context.Background(), "lubbock-wind-farm")
	require.NoError(t, err)
	assert.Equal(t, "lubbock-wind-farm", name, "free name passes through")

	name, err = gen.EnsureUnique(context.Background(), "amarillo-wind-farm")
	require.NoError(t, err)
	assert.Equal(t, "amarillo-wind-farm-3", name, "first free numeric suffix")
}

func TestEnsureUniqueExhaustedSuffixes(t *testing.T) {
	projects := []*models.Project{siteProject("crowded-wind-farm", 35.0, -101.0)}
	for i := 2; i <= ensureUniqueMaxAttempts; i++ {
		projects = append(projects, siteProject(fmt.Sprintf("crowded-wind-farm-%d", i), 35.0, -101.0))
	}
	gen := newTestNameGenerator(&stubGeocoder{}, newMemoryProjectRepo(projects...))

	name, err := gen.EnsureUnique(context.Background(), "crowded-wind-farm")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "crowded-wind-farm-"), "got %q", name)
	assert.NotContains(t, name[len("crowded-wind-farm-"):], "-")
}

func TestEnsureUniqueListFailure(t *testing.T) {
	repo := newMemoryProjectRepo()
	repo.listErr = errors.New("connection refused")
	gen := newTestNameGenerator(&stubGeocoder{}, repo)

	_, err := gen.EnsureUnique(context.Background(), "amarillo-wind-farm")
	assert.Error(t, err)
}
