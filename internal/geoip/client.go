package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"board-service/internal/observability"
)

// Location is the result of one IP lookup.
type Location struct {
	Country  string `json:"country"`
	City     string `json:"city"`
	Region   string `json:"region"`
	Timezone string `json:"timezone"`
}

var (
	// LocalLocation is reported for loopback and private-range addresses,
	// which are never sent to the external lookup service.
	LocalLocation = Location{Country: "Local", City: "Localhost", Region: "Local", Timezone: "Local"}

	// UnknownLocation is reported when the lookup fails for any reason.
	UnknownLocation = Location{Country: "Unknown", City: "Unknown", Region: "Unknown", Timezone: "Unknown"}
)

// Client resolves an IP address to a coarse location. Lookup never returns
// an error: failures degrade to UnknownLocation so callers stay on the fast
// path.
type Client interface {
	Lookup(ctx context.Context, ip string) Location
}

// HTTPClient queries an ip-api.com compatible endpoint, with an optional
// read-through cache in front of it.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	cache   Cache
	logger  *zap.Logger
	tracer  trace.Tracer
}

func NewHTTPClient(baseURL string, timeout time.Duration, cache Cache, logger *zap.Logger) *HTTPClient {
	if cache == nil {
		cache = NopCache{}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
		logger:  logger,
		tracer:  otel.Tracer("board-service/geoip"),
	}
}

// Lookup resolves ip to a location. Private addresses short-circuit to
// LocalLocation, cached entries are served without a network call, and any
// failure yields UnknownLocation. Unknown results are never cached so a
// transient outage does not stick for the cache TTL.
func (c *HTTPClient) Lookup(ctx context.Context, ip string) Location {
	if isPrivate(ip) {
		observability.IncGeoIPLookup("local")
		return LocalLocation
	}
	if loc, ok := c.cache.Get(ctx, ip); ok {
		observability.IncGeoIPLookup("cache_hit")
		return loc
	}

	ctx, span := c.tracer.Start(ctx, "geoip.lookup")
	defer span.End()

	loc, err := c.fetch(ctx, ip)
	if err != nil {
		c.logger.Warn("geoip lookup failed", zap.String("ip", ip), zap.Error(err))
		observability.IncGeoIPLookup("error")
		return UnknownLocation
	}

	observability.IncGeoIPLookup("success")
	if loc != UnknownLocation {
		c.cache.Set(ctx, ip, loc)
	}
	return loc
}

// apiResponse is the wire shape of the lookup service. Only the fields the
// board stores are decoded.
type apiResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Country  string `json:"country"`
	City     string `json:"city"`
	Region   string `json:"regionName"`
	Timezone string `json:"timezone"`
}

func (c *HTTPClient) fetch(ctx context.Context, ip string) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(ip), nil)
	if err != nil {
		return Location{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Location{}, fmt.Errorf("decode response: %w", err)
	}
	if payload.Status != "success" {
		return Location{}, fmt.Errorf("lookup rejected: %s", payload.Message)
	}

	return Location{
		Country:  orUnknown(payload.Country),
		City:     orUnknown(payload.City),
		Region:   orUnknown(payload.Region),
		Timezone: orUnknown(payload.Timezone),
	}, nil
}

// isPrivate matches loopback plus the private ranges the board treats as
// local. Matching is on string prefixes, the same granularity the rest of
// the pipeline uses.
func isPrivate(ip string) bool {
	return ip == "127.0.0.1" || strings.HasPrefix(ip, "192.168.") || strings.HasPrefix(ip, "10.")
}

func orUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}
