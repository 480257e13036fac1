package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	ports "github.com/sergeypospelov/toolcall-agent/tca/harness/ports"
)

// WeatherSchema declares the get_weather parameters.
const WeatherSchema = `{
  "type": "object",
  "properties": {
    "location": {
      "type": "string",
      "description": "City or place name, e.g. 'New York' or 'Paris, France'"
    }
  },
  "required": ["location"]
}`

const (
	defaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
)

// WeatherReport is the tool payload returned to the model.
type WeatherReport struct {
	Location     string  `json:"location"`
	Country      string  `json:"country,omitempty"`
	TemperatureC float64 `json:"temperature_c"`
	TodayHighC   float64 `json:"today_high_c"`
	TodayLowC    float64 `json:"today_low_c"`
	TodayMeanC   float64 `json:"today_mean_c"`
}

// WeatherTool resolves a place name to coordinates through the open-meteo
// geocoding API and reads the current temperature plus today's hourly series
// from the forecast API. No credentials required for either endpoint.
type WeatherTool struct {
	client       *http.Client
	geocodingURL string
	forecastURL  string
}

// NewWeatherTool creates the tool against the public open-meteo endpoints.
func NewWeatherTool() *WeatherTool {
	return &WeatherTool{
		client:       &http.Client{Timeout: 15 * time.Second},
		geocodingURL: defaultGeocodingURL,
		forecastURL:  defaultForecastURL,
	}
}

// NewWeatherToolWithEndpoints creates the tool against explicit endpoints.
// Used by tests and by deployments fronting open-meteo with a proxy.
func NewWeatherToolWithEndpoints(client *http.Client, geocodingURL, forecastURL string) *WeatherTool {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &WeatherTool{
		client:       client,
		geocodingURL: geocodingURL,
		forecastURL:  forecastURL,
	}
}

func (t *WeatherTool) Name() string { return "get_weather" }

func (t *WeatherTool) Description() string {
	return "Get the current temperature (Celsius) and today's high/low for a named location."
}

func (t *WeatherTool) Schema() []byte { return []byte(WeatherSchema) }

// Invoke resolves the location and fetches its current conditions. Unknown
// locations and HTTP failures surface as tool errors; the executor converts
// them into failed results for the model to react to.
func (t *WeatherTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		Location string `json:"location"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	if params.Location == "" {
		return nil, fmt.Errorf("location is required")
	}

	place, err := t.geocode(ctx, params.Location)
	if err != nil {
		return nil, err
	}

	forecast, err := t.forecast(ctx, place.Latitude, place.Longitude)
	if err != nil {
		return nil, err
	}

	report := WeatherReport{
		Location:     place.Name,
		Country:      place.Country,
		TemperatureC: forecast.Current.Temperature2m,
	}
	if series := forecast.Hourly.Temperature2m; len(series) > 0 {
		report.TodayHighC = floats.Max(series)
		report.TodayLowC = floats.Min(series)
		report.TodayMeanC = stat.Mean(series, nil)
	}
	return report, nil
}

type geocodeResult struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// geocode resolves a place name to its best-matching coordinates.
func (t *WeatherTool) geocode(ctx context.Context, location string) (*geocodeResult, error) {
	query := url.Values{
		"name":  {location},
		"count": {"1"},
	}

	var reply struct {
		Results []geocodeResult `json:"results"`
	}
	if err := t.getJSON(ctx, t.geocodingURL+"?"+query.Encode(), &reply); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", location, err)
	}
	if len(reply.Results) == 0 {
		return nil, fmt.Errorf("unknown location %q", location)
	}
	return &reply.Results[0], nil
}

type forecastReply struct {
	Current struct {
		Temperature2m float64 `json:"temperature_2m"`
	} `json:"current"`
	Hourly struct {
		Temperature2m []float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

// forecast fetches the current temperature and today's hourly series.
func (t *WeatherTool) forecast(ctx context.Context, lat, lon float64) (*forecastReply, error) {
	query := url.Values{
		"latitude":      {fmt.Sprintf("%g", lat)},
		"longitude":     {fmt.Sprintf("%g", lon)},
		"current":       {"temperature_2m"},
		"hourly":        {"temperature_2m"},
		"forecast_days": {"1"},
	}

	var reply forecastReply
	if err := t.getJSON(ctx, t.forecastURL+"?"+query.Encode(), &reply); err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	return &reply, nil
}

// getJSON fetches a URL and decodes the JSON body, retrying transient
// failures (network errors, 5xx) with fibonacci backoff.
func (t *WeatherTool) getJSON(ctx context.Context, rawURL string, out any) error {
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(200*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}

		resp, err := t.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("server returned %s", resp.Status))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned %s", resp.Status)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

// Ensure WeatherTool implements the Tool interface.
var _ ports.Tool = (*WeatherTool)(nil)
