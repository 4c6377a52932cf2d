package routes

import (
	"bytes"
	"commute-planner/internal/platform/logger"
	"commute-planner/internal/platform/obs"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const DefaultURL = "https://routes.googleapis.com/directions/v2:computeRoutes"

// GoogleRoutesOracle implements ports.DurationOracle with the Google Routes
// computeRoutes endpoint, asking for traffic-aware driving durations.
type GoogleRoutesOracle struct {
	session     *http.Client
	apiKey      string
	url         string
	maxAttempts int
	backoff     time.Duration
	log         logger.Logger
}

type Options struct {
	URL         string
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
	Client      *http.Client
	Logger      logger.Logger
}

func NewGoogleRoutesOracle(apiKey string, opts Options) (*GoogleRoutesOracle, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google routes api key is empty")
	}

	o := &GoogleRoutesOracle{
		session:     opts.Client,
		apiKey:      strings.TrimSpace(apiKey),
		url:         opts.URL,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		log:         opts.Logger,
	}

	if o.session == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		o.session = &http.Client{Timeout: timeout}
	}
	if o.url == "" {
		o.url = DefaultURL
	}
	if o.maxAttempts < 1 {
		o.maxAttempts = 1
	}
	if o.backoff <= 0 {
		o.backoff = 200 * time.Millisecond
	}
	if o.log == nil {
		o.log = logger.NopLogger{}
	}

	return o, nil
}

type waypoint struct {
	Address string `json:"address"`
}

type computeRoutesRequest struct {
	Origin            waypoint `json:"origin"`
	Destination       waypoint `json:"destination"`
	TravelMode        string   `json:"travelMode"`
	RoutingPreference string   `json:"routingPreference"`
	DepartureTime     string   `json:"departureTime"`
}

type computeRoutesResponse struct {
	Routes []struct {
		Duration       string `json:"duration"`
		DistanceMeters int    `json:"distanceMeters"`
	} `json:"routes"`
}

// normalize collapses whitespace so equal addresses produce equal requests.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Duration returns the predicted drive time in minutes for departing at departAt.
func (o *GoogleRoutesOracle) Duration(
	ctx context.Context,
	origin string,
	destination string,
	departAt time.Time,
) (_ float64, err error) {
	defer obs.Time(ctx, o.log, "routes.Duration")(&err)

	normOrigin := normalize(origin)
	normDestination := normalize(destination)
	if normOrigin == "" || normDestination == "" {
		return 0, errors.New("routes duration: origin and destination must be non-empty")
	}

	payload, err := json.Marshal(computeRoutesRequest{
		Origin:            waypoint{Address: normOrigin},
		Destination:       waypoint{Address: normDestination},
		TravelMode:        "DRIVE",
		RoutingPreference: "TRAFFIC_AWARE_OPTIMAL",
		DepartureTime:     departAt.Format(time.RFC3339),
	})
	if err != nil {
		return 0, fmt.Errorf("marshal compute routes request: %w", err)
	}

	o.log.Debugf("requesting route %s -> %s at %s", normOrigin, normDestination, departAt.Format("2006-01-02 15:04"))

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, o.url, bytes.NewReader(payload))
	})
	if err != nil {
		return 0, fmt.Errorf("compute routes request failed: %w", err)
	}
	defer resp.Body.Close()

	var cr computeRoutesResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return 0, fmt.Errorf("decode compute routes response: %w", err)
	}

	if len(cr.Routes) == 0 {
		return 0, errors.New("compute routes: no route found")
	}

	// First route is the recommended one.
	if cr.Routes[0].Duration == "" {
		return 0, errors.New("compute routes: response has no duration")
	}

	return ParseDurationMinutes(cr.Routes[0].Duration)
}

// ParseDurationMinutes converts a protobuf duration string such as "1234.5s" to minutes.
func ParseDurationMinutes(s string) (float64, error) {
	raw := strings.TrimSuffix(strings.TrimSpace(s), "s")
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse route duration %q: %w", s, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("parse route duration %q: negative", s)
	}
	return seconds / 60.0, nil
}
