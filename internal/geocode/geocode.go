// Package geocode resolves coordinates to a city name with the Google
// Geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

type Client struct {
	apiKey   string
	baseURL  string
	language string
	http     *http.Client
}

func New(apiKey string) *Client {
	return &Client{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		language: "de",
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL points the client at another endpoint.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

type response struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		AddressComponents []struct {
			LongName string `json:"long_name"`
		} `json:"address_components"`
	} `json:"results"`
}

// City returns the locality at the given coordinates, or "" if there is none.
func (c *Client) City(ctx context.Context, latitude, longitude float64) (string, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("result_type", "locality")
	q.Set("language", c.language)
	q.Set("latlng", strconv.FormatFloat(latitude, 'f', -1, 64)+","+strconv.FormatFloat(longitude, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode: unexpected status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("geocode: decode response: %w", err)
	}

	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		return "", nil
	default:
		return "", fmt.Errorf("geocode: status %s: %s", body.Status, body.ErrorMessage)
	}

	if len(body.Results) == 0 || len(body.Results[0].AddressComponents) == 0 {
		return "", nil
	}
	return body.Results[0].AddressComponents[0].LongName, nil
}
