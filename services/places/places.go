package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// UpstreamServiceError wraps a failed call to the places provider. The proxy
// surfaces it as a generic 500 without leaking provider details.
type UpstreamServiceError struct {
	Op  string
	Err error
}

func (e *UpstreamServiceError) Error() string {
	return fmt.Sprintf("places %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamServiceError) Unwrap() error { return e.Err }

// Prediction is one autocomplete suggestion, reduced to the two fields the
// client needs.
type Prediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// Details is the resolved place used to fill a game's location.
type Details struct {
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// Client is a stateless pass-through to the Google Places web API, scoped to
// one country.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Country    string
}

// NewClient builds a client from the environment.
func NewClient() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    defaultBaseURL,
		APIKey:     os.Getenv("GOOGLE_PLACES_API_KEY"),
		Country:    "ar",
	}
}

// Autocomplete returns place suggestions for a partial text input.
func (c *Client) Autocomplete(ctx context.Context, input string) ([]Prediction, error) {
	params := url.Values{}
	params.Set("input", input)
	params.Set("key", c.APIKey)
	params.Set("components", "country:"+c.Country)
	params.Set("types", "establishment|geocode")

	var payload struct {
		Status      string       `json:"status"`
		Predictions []Prediction `json:"predictions"`
	}
	if err := c.get(ctx, "autocomplete", params, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "OK" && payload.Status != "ZERO_RESULTS" {
		return nil, &UpstreamServiceError{Op: "autocomplete", Err: fmt.Errorf("provider status %s", payload.Status)}
	}
	if payload.Predictions == nil {
		payload.Predictions = []Prediction{}
	}
	return payload.Predictions, nil
}

// PlaceDetails resolves a place id into its name, address and coordinates.
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (*Details, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("key", c.APIKey)
	params.Set("fields", "formatted_address,geometry,name")

	var payload struct {
		Status string  `json:"status"`
		Result Details `json:"result"`
	}
	if err := c.get(ctx, "details", params, &payload); err != nil {
		return nil, err
	}
	if payload.Status != "OK" {
		return nil, &UpstreamServiceError{Op: "details", Err: fmt.Errorf("provider status %s", payload.Status)}
	}
	return &payload.Result, nil
}

func (c *Client) get(ctx context.Context, op string, params url.Values, out interface{}) error {
	endpoint := fmt.Sprintf("%s/%s/json?%s", c.BaseURL, op, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &UpstreamServiceError{Op: op, Err: err}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &UpstreamServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &UpstreamServiceError{Op: op, Err: fmt.Errorf("provider returned %d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamServiceError{Op: op, Err: err}
	}
	return nil
}
