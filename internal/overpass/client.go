// Package overpass queries the OpenStreetMap Overpass API for road
// classification, nearby amenities and hazard markers. Every lookup degrades
// to a tagged offline result instead of returning an error; callers branch on
// the provenance tag only.
package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zeropenalty/riskzone/internal/model"
	"github.com/zeropenalty/riskzone/internal/risk"
)

// DefaultBaseURL is the public Overpass API interpreter endpoint.
const DefaultBaseURL = "https://overpass-api.de/api/interpreter"

// Default search radii in meters.
const (
	DefaultRoadRadiusM    = 30
	DefaultAmenityRadiusM = 100
	DefaultHazardRadiusM  = 500
)

// defaultTimeout bounds every Overpass call. Requests past this ceiling are
// abandoned and reported as offline_timeout.
const defaultTimeout = 5 * time.Second

// Options configures the Overpass client.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	RoadRadiusM    int
	AmenityRadiusM int
	RateLimit      rate.Limit
	RateBurst      int
}

// Client is a best-effort Overpass API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	limiter    *rate.Limiter
	breaker    *breaker

	roadRadiusM    int
	amenityRadiusM int
}

// NewClient creates an Overpass client with the given options.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RoadRadiusM <= 0 {
		opts.RoadRadiusM = DefaultRoadRadiusM
	}
	if opts.AmenityRadiusM <= 0 {
		opts.AmenityRadiusM = DefaultAmenityRadiusM
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 2
	}
	return &Client{
		httpClient:     &http.Client{Timeout: opts.Timeout},
		baseURL:        opts.BaseURL,
		timeout:        opts.Timeout,
		limiter:        rate.NewLimiter(opts.RateLimit, opts.RateBurst),
		breaker:        newBreaker(),
		roadRadiusM:    opts.RoadRadiusM,
		amenityRadiusM: opts.AmenityRadiusM,
	}
}

// overpassResponse is the JSON envelope returned by the interpreter.
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type string            `json:"type"`
	Tags map[string]string `json:"tags"`
}

// Classify looks up the road category and tracked amenities near a
// coordinate. It never returns an error: on timeout or any transport/parse
// failure the result carries an offline source tag, road type "unclassified"
// and no amenities.
func (c *Client) Classify(ctx context.Context, lat, lng float64) model.Classification {
	query := fmt.Sprintf(`[out:json][timeout:%d];
(
  way(around:%d,%f,%f)[highway];
  node(around:%d,%f,%f)[amenity];
);
out tags;`, int(c.timeout.Seconds()), c.roadRadiusM, lat, lng, c.amenityRadiusM, lat, lng)

	resp, err := c.interpret(ctx, query)
	if err != nil {
		zap.L().Warn("overpass: classify degraded",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Error(err),
		)
		return model.Classification{
			RoadType:  risk.RoadUnclassified,
			Amenities: []string{},
			Source:    sourceForError(err),
		}
	}

	roadType := ""
	var amenities []string
	seen := map[string]bool{}
	for _, el := range resp.Elements {
		if el.Type == "way" && el.Tags["highway"] != "" && roadType == "" {
			roadType = el.Tags["highway"]
		}
		if el.Type == "node" {
			amenity := el.Tags["amenity"]
			if amenity != "" && risk.KnownAmenity(amenity) && !seen[amenity] {
				seen[amenity] = true
				amenities = append(amenities, amenity)
			}
		}
	}
	if roadType == "" {
		roadType = risk.RoadUnclassified
	}
	if amenities == nil {
		amenities = []string{}
	}

	zap.L().Info("overpass: classified",
		zap.String("road_type", roadType),
		zap.Strings("amenities", amenities),
	)
	return model.Classification{RoadType: roadType, Amenities: amenities, Source: model.SourceOnline}
}

// NearbyHazards counts community-tagged hazard markers around a coordinate:
// speed cameras, accident-prone markers and generic hazard nodes. Degrades to
// an empty report with an offline source tag on any failure.
func (c *Client) NearbyHazards(ctx context.Context, lat, lng float64, radiusM int) model.HazardReport {
	if radiusM <= 0 {
		radiusM = DefaultHazardRadiusM
	}
	query := fmt.Sprintf(`[out:json][timeout:%d];
(
  node(around:%d,%f,%f)[highway=speed_camera];
  node(around:%d,%f,%f)[accident=yes];
  node(around:%d,%f,%f)[hazard];
  way(around:%d,%f,%f)[accident_prone=yes];
);
out ids;`, int(c.timeout.Seconds()), radiusM, lat, lng, radiusM, lat, lng, radiusM, lat, lng, radiusM, lat, lng)

	resp, err := c.interpret(ctx, query)
	if err != nil {
		zap.L().Warn("overpass: hazard lookup degraded",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Error(err),
		)
		return model.HazardReport{Source: sourceForError(err)}
	}

	count := len(resp.Elements)
	zap.L().Info("overpass: hazard check", zap.Int("count", count))
	return model.HazardReport{Present: count > 0, Count: count, Source: model.SourceOnline}
}

// interpret posts an Overpass QL query and decodes the JSON response. Calls
// go through the circuit breaker: when the interpreter keeps failing the call
// is rejected locally instead of burning the request timeout every time.
func (c *Client) interpret(ctx context.Context, query string) (*overpassResponse, error) {
	if err := c.breaker.allow(); err != nil {
		return nil, err
	}

	resp, err := c.doInterpret(ctx, query)
	c.breaker.record(err)
	return resp, err
}

func (c *Client) doInterpret(ctx context.Context, query string) (*overpassResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed overpassResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// sourceForError maps a transport failure to its provenance tag. Timeouts and
// context deadlines are reported separately from other errors.
func sourceForError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.SourceOfflineTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.SourceOfflineTimeout
	}
	return model.SourceOfflineError
}
