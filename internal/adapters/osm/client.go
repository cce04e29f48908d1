// Package osm adapts OpenStreetMap to the domain.PlacesSource port:
// Nominatim resolves the free-text location to an administrative area
// handle, one bulk Overpass query pulls the tagged elements inside
// that area, and each element normalizes locally without further
// network calls.
package osm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/matteolefer/escapedia/internal/adapters/observability"
	"github.com/matteolefer/escapedia/internal/domain"
)

// ErrAreaNotFound aborts the run: without an area handle no Overpass
// query can be formed.
var ErrAreaNotFound = errors.New("osm: no administrative area found for location")

// Overpass area id offsets for ways and relations.
const (
	wayAreaOffset      = int64(2_400_000_000)
	relationAreaOffset = int64(3_600_000_000)
)

// poiSelectors are the tag filters of the bulk query; only named
// elements qualify, unnamed geometry is noise for a travel guide.
var poiSelectors = []string{
	`nwr["name"]["tourism"~"museum|gallery|attraction|viewpoint|zoo|information"]`,
	`nwr["name"]["historic"~"monument|memorial|castle|church"]`,
	`nwr["name"]["leisure"~"park|garden|nature_reserve"]`,
	`nwr["name"]["amenity"~"restaurant|cafe|bar|pub|nightclub|place_of_worship|library"]`,
}

type Options struct {
	NominatimBase string
	OverpassBase  string
	Language      string
	UserAgent     string
	Delay         time.Duration
	MaxResults    int
}

type Client struct {
	nominatimBase string
	overpassBase  string
	language      string
	userAgent     string
	maxResults    int

	hc *http.Client
	rl *rate.Limiter
}

func New(o Options) *Client {
	if o.NominatimBase == "" {
		o.NominatimBase = "https://nominatim.openstreetmap.org"
	}
	if o.OverpassBase == "" {
		o.OverpassBase = "https://overpass-api.de/api/interpreter"
	}
	if o.Language == "" {
		o.Language = "fr"
	}
	if o.MaxResults <= 0 {
		o.MaxResults = 60
	}
	rl := rate.NewLimiter(rate.Inf, 1)
	if o.Delay > 0 {
		rl = rate.NewLimiter(rate.Every(o.Delay), 1)
	}
	return &Client{
		nominatimBase: strings.TrimRight(o.NominatimBase, "/"),
		overpassBase:  o.OverpassBase,
		language:      o.Language,
		userAgent:     o.UserAgent,
		maxResults:    o.MaxResults,
		hc:            &http.Client{Timeout: 90 * time.Second},
		rl:            rl,
	}
}

func (c *Client) Name() string { return "osm" }

func (c *Client) Search(ctx context.Context, location string) ([]domain.PlaceStub, error) {
	areaID, areaName, err := c.resolveArea(ctx, location)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("area", areaID).Str("match", areaName).Msg("resolved administrative area")

	elements, err := c.queryArea(ctx, areaID)
	if err != nil {
		return nil, err
	}

	stubs := make([]domain.PlaceStub, 0, len(elements))
	for _, el := range elements {
		id := elementID(el)
		name := tagValue(el, "name")
		if id == "" || name == "" {
			continue
		}
		stubs = append(stubs, domain.PlaceStub{ID: id, Name: name, Raw: el})
	}
	log.Info().Int("results", len(stubs)).Str("location", location).Msg("overpass query done")
	return stubs, nil
}

// Resolve normalizes the element captured at search time; no network.
func (c *Client) Resolve(ctx context.Context, stub domain.PlaceStub) (*domain.Experience, error) {
	if stub.Raw == nil {
		return nil, fmt.Errorf("osm: stub %s carries no element", stub.ID)
	}
	exp := normalizeElement(stub.Raw)
	if exp == nil {
		log.Warn().Str("placeId", stub.ID).Msg("element not usable, skipping")
	}
	return exp, nil
}

// resolveArea asks Nominatim for the best match and derives the
// Overpass area id. Node matches carry no boundary, so they cannot
// scope a query and count as not found.
func (c *Client) resolveArea(ctx context.Context, location string) (int64, string, error) {
	q := url.Values{}
	q.Set("q", location)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")

	var matches []struct {
		OSMType     string `json:"osm_type"`
		OSMID       int64  `json:"osm_id"`
		DisplayName string `json:"display_name"`
	}
	u := c.nominatimBase + "/search?" + q.Encode()
	if err := c.do(ctx, "nominatim", http.MethodGet, u, "", &matches); err != nil {
		return 0, "", fmt.Errorf("resolve area for %q: %w", location, err)
	}
	if len(matches) == 0 {
		return 0, "", fmt.Errorf("%w: %q", ErrAreaNotFound, location)
	}
	m := matches[0]
	switch m.OSMType {
	case "relation":
		return relationAreaOffset + m.OSMID, m.DisplayName, nil
	case "way":
		return wayAreaOffset + m.OSMID, m.DisplayName, nil
	default:
		return 0, "", fmt.Errorf("%w: %q matched a %s", ErrAreaNotFound, location, m.OSMType)
	}
}

func (c *Client) queryArea(ctx context.Context, areaID int64) ([]map[string]any, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:60];\narea(%d)->.a;\n(\n", areaID)
	for _, sel := range poiSelectors {
		fmt.Fprintf(&b, "  %s(area.a);\n", sel)
	}
	fmt.Fprintf(&b, ");\nout center %d;\n", c.maxResults)

	var payload struct {
		Elements []map[string]any `json:"elements"`
	}
	body := "data=" + url.QueryEscape(b.String())
	if err := c.do(ctx, "overpass", http.MethodPost, c.overpassBase, body, &payload); err != nil {
		return nil, fmt.Errorf("overpass query: %w", err)
	}
	if len(payload.Elements) > c.maxResults {
		payload.Elements = payload.Elements[:c.maxResults]
	}
	return payload.Elements, nil
}

func (c *Client) do(ctx context.Context, endpoint, method, u, body string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	var req *http.Request
	var err error
	if body != "" {
		req, err = http.NewRequestWithContext(ctx, method, u, strings.NewReader(body))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u, nil)
	}
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", c.language)
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("osm", endpoint, 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("osm", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("osm %s: HTTP %d", endpoint, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
