package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"NewsCourier/internal/domain"
	"NewsCourier/internal/ports"
)

// OWMClient fetches current conditions from the OpenWeatherMap API.
type OWMClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ ports.WeatherProvider = (*OWMClient)(nil)

// NewOWMClient wires the endpoint and API key.
func NewOWMClient(baseURL, apiKey string) *OWMClient {
	return &OWMClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type owmResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Snapshot returns the current observation at the coordinates. Temperatures
// come back in Kelvin, matching the API default.
func (c *OWMClient) Snapshot(ctx context.Context, longitude, latitude float64) (domain.WeatherSnapshot, error) {
	if c.apiKey == "" {
		return domain.WeatherSnapshot{}, fmt.Errorf("weather client misconfigured: empty api key")
	}

	query := url.Values{}
	query.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))
	query.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	query.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("fetch weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.WeatherSnapshot{}, fmt.Errorf("weather api returned %s", resp.Status)
	}

	var parsed owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.WeatherSnapshot{}, fmt.Errorf("decode weather response: %w", err)
	}

	snapshot := domain.WeatherSnapshot{
		TempKelvin: parsed.Main.Temp,
		Humidity:   parsed.Main.Humidity,
		WindSpeed:  parsed.Wind.Speed,
	}
	if len(parsed.Weather) > 0 {
		snapshot.Status = parsed.Weather[0].Main
		snapshot.DetailedStatus = parsed.Weather[0].Description
	}

	return snapshot, nil
}
