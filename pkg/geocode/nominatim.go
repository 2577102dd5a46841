package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/windrose-energy/windrose-engine/pkg/retry"
)

// NominatimClient reverse-geocodes against a Nominatim-compatible endpoint.
// Transient failures (rate limiting, 5xx, network errors) are retried with
// exponential backoff.
type NominatimClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	retryCfg   *retry.Config
	logger     *zap.Logger
}

// NominatimConfig holds client settings.
type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// NewNominatimClient creates a reverse-geocoding client.
func NewNominatimClient(cfg *NominatimConfig, logger *zap.Logger) (*NominatimClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("geocoder base URL is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &NominatimClient{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
		retryCfg:   retry.DefaultConfig(),
		logger:     logger.Named("geocode"),
	}, nil
}

// reverseResponse is the subset of the Nominatim reverse payload we read.
type reverseResponse struct {
	Address struct {
		Municipality  string `json:"municipality"`
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		State         string `json:"state"`
		Region        string `json:"region"`
		County        string `json:"county"`
		Suburb        string `json:"suburb"`
		Neighbourhood string `json:"neighbourhood"`
	} `json:"address"`
}

// ReverseGeocode resolves coordinates to a locality description.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, lat, lon float64) (*Place, error) {
	endpoint := fmt.Sprintf("%s/reverse?%s", c.baseURL, url.Values{
		"format": {"jsonv2"},
		"lat":    {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', 6, 64)},
	}.Encode())

	start := time.Now()
	payload, err := retry.DoWithResult(ctx, c.retryCfg, func() (reverseResponse, error) {
		return c.fetchReverse(ctx, endpoint)
	})
	if err != nil {
		return nil, err
	}

	place := &Place{
		Municipality: firstNonEmpty(
			payload.Address.Municipality,
			payload.Address.City,
			payload.Address.Town,
			payload.Address.Village,
		),
		Region: firstNonEmpty(
			payload.Address.State,
			payload.Address.Region,
			payload.Address.County,
		),
		Neighborhood: firstNonEmpty(
			payload.Address.Suburb,
			payload.Address.Neighbourhood,
		),
	}

	c.logger.Debug("Reverse geocoded point",
		zap.Float64("lat", lat),
		zap.Float64("lon", lon),
		zap.String("municipality", place.Municipality),
		zap.String("region", place.Region),
		zap.Duration("elapsed", time.Since(start)),
	)
	return place, nil
}

func (c *NominatimClient) fetchReverse(ctx context.Context, endpoint string) (reverseResponse, error) {
	var payload reverseResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return payload, fmt.Errorf("failed to build reverse geocode request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return payload, fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return payload, fmt.Errorf("reverse geocode returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return payload, fmt.Errorf("failed to decode reverse geocode response: %w", err)
	}
	return payload, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
