package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/mission-service/internal/domain"
	"github.com/couchcryptid/mission-service/internal/observability"
)

const defaultBaseURL = "https://api.mapbox.com/directions/v5"

// Client implements pipeline.RoutePlanner using the Mapbox Directions API.
type Client struct {
	token      string
	profile    string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox directions client. profile is a routing profile
// such as "mapbox/driving".
func NewClient(token, profile string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:   token,
		profile: profile,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// GetDirections requests a route from origin through waypoint to destination.
// The last step of the first leg is marked as the waypoint arrival and the last
// step of the route as the destination arrival.
func (c *Client) GetDirections(ctx context.Context, origin, destination, waypoint domain.Location) ([]domain.MissionStep, error) {
	coords := strings.Join([]string{coordinate(origin), coordinate(waypoint), coordinate(destination)}, ";")
	u := fmt.Sprintf("%s/%s/%s", c.baseURL, c.profile, coords)
	params := url.Values{
		"access_token": {c.token},
		"steps":        {"true"},
		"overview":     {"false"},
	}

	resp, err := c.doRequest(ctx, u+"?"+params.Encode())
	if err != nil {
		c.metrics.RouteRequests.WithLabelValues("error").Inc()
		return nil, err
	}

	if len(resp.Routes) == 0 {
		c.metrics.RouteRequests.WithLabelValues("empty").Inc()
		c.logger.Info("no route found", "origin", origin.Key(), "waypoint", waypoint.Key(), "destination", destination.Key())
		return []domain.MissionStep{}, nil
	}

	c.metrics.RouteRequests.WithLabelValues("success").Inc()
	return mapRouteToSteps(resp.Routes[0]), nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RouteAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return response{}, fmt.Errorf("directions request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return response{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var directions response
	if err := json.NewDecoder(resp.Body).Decode(&directions); err != nil {
		return response{}, fmt.Errorf("decode response: %w", err)
	}
	if directions.Code != "" && directions.Code != "Ok" && directions.Code != "NoRoute" {
		return response{}, fmt.Errorf("mapbox API error: code %s: %s", directions.Code, directions.Message)
	}
	return directions, nil
}

// coordinate formats a location in Mapbox "lon,lat" order.
func coordinate(l domain.Location) string {
	return l.Long().String() + "," + l.Lat().String()
}

func mapRouteToSteps(r route) []domain.MissionStep {
	steps := []domain.MissionStep{}
	for i, leg := range r.Legs {
		for j, s := range leg.Steps {
			if len(s.Maneuver.Location) != 2 {
				continue
			}
			lastOfLeg := j == len(leg.Steps)-1
			steps = append(steps, domain.MissionStep{
				Lon:         s.Maneuver.Location[0],
				Lat:         s.Maneuver.Location[1],
				WayPoint:    lastOfLeg && i == 0 && len(r.Legs) > 1,
				Destination: lastOfLeg && i == len(r.Legs)-1,
			})
		}
	}
	return steps
}

// Mapbox API response types.

type response struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Routes  []route `json:"routes"`
}

type route struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Legs     []leg   `json:"legs"`
}

type leg struct {
	Steps []step `json:"steps"`
}

type step struct {
	Distance float64  `json:"distance"`
	Duration float64  `json:"duration"`
	Maneuver maneuver `json:"maneuver"`
}

type maneuver struct {
	Location    []float64 `json:"location"` // [lon, lat]
	Type        string    `json:"type"`
	Instruction string    `json:"instruction"`
}
